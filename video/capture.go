package video

import (
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/queue"
)

// Capture owns one gocv video device and, once started, a dedicated
// goroutine pushing Frames into a bounded queue. start_stream/stop_stream
// are idempotent; Close stops the stream and releases the device.
type Capture struct {
	deviceID string
	format   TargetFormat
	pts      clock.PTS

	mu      sync.Mutex
	vc      *gocv.VideoCapture
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	Frames *queue.Bounded[Frame]
}

// Open opens deviceIndex with gocv and configures the target format.
// deviceIndex must be parseable as the numeric index GocvVideoScanner
// assigned; camcore has no durable device-path backend to open by name.
func Open(deviceID string, deviceIndex int, format TargetFormat, pts clock.PTS, queueCapacity int) (*Capture, error) {
	vc, err := gocv.OpenVideoCapture(deviceIndex)
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "open video device %s", deviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(format.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(format.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(format.FPS))

	return &Capture{
		deviceID: deviceID,
		format:   format,
		pts:      pts,
		vc:       vc,
		Frames:   queue.New[Frame](queueCapacity),
	}, nil
}

// StartStream launches the capture goroutine. Idempotent.
func (c *Capture) StartStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.started = true
	c.stopCh = make(chan struct{})

	c.wg.Add(1)
	go c.readLoop(c.stopCh)
	return nil
}

// StopStream signals the capture goroutine to exit and waits for it.
// Idempotent.
func (c *Capture) StopStream() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// CaptureFrame reads one frame synchronously, bypassing the queue. Useful
// for diagnose-style one-shot tools.
func (c *Capture) CaptureFrame() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readOnce()
}

func (c *Capture) readLoop(stopCh chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		c.mu.Lock()
		frame, err := c.readOnce()
		c.mu.Unlock()
		if err != nil {
			continue
		}
		c.Frames.PushDropOldest(frame)
	}
}

// readOnce must be called with c.mu held.
func (c *Capture) readOnce() (Frame, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		return Frame{}, engine.Backendf("read frame from %s", c.deviceID)
	}

	raw := mat.ToBytes()
	pts := c.pts.Now()

	if looksLikeJPEG(raw) {
		rgb, w, h, err := decodeJPEGToRGB24(raw)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Data: rgb, Width: w, Height: h, Format: FormatRGB24, PTS: pts, DeviceID: c.deviceID}, nil
	}

	return Frame{
		Data:     raw,
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Format:   FormatRGB24,
		PTS:      pts,
		DeviceID: c.deviceID,
	}, nil
}

// Close stops the stream (if running) and releases the device handle. Safe
// to call multiple times.
func (c *Capture) Close() error {
	_ = c.StopStream()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	c.Frames.Close()
	if err != nil {
		return engine.Wrap(engine.KindBackend, err, "close video device %s", c.deviceID)
	}
	return nil
}

// WarmUp waits up to timeout for the first frame and discards it, absorbing
// auto-exposure/white-balance startup transients.
func (c *Capture) WarmUp(timeout time.Duration) error {
	_, ok, err := c.Frames.PopTimeout(timeout)
	if err != nil {
		return err
	}
	if !ok {
		return engine.Timeoutf("no frame received from %s within warmup window", c.deviceID)
	}
	return nil
}
