package audio

import (
	"sync"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/internal/logging"
	"github.com/ethan/camcore/queue"
)

// Source is the platform backend contract: Read blocks until one frame
// worth of samples is available or the source errs. Concrete backends
// (ALSA, CoreAudio, WASAPI) live outside this module; Capture only needs
// this narrow interface to stay backend-agnostic.
type Source interface {
	Read() ([]float32, error)
	Close() error
}

// Capture owns one audio Source and, once started, a dedicated goroutine
// pushing Frames into a bounded queue of fixed capacity 256. Enqueue
// failures are impossible by construction (PushDropOldest never blocks);
// the bound keeps memory use flat under a stalled consumer.
type Capture struct {
	deviceID   string
	sampleRate int
	channels   int
	pts        clock.PTS
	source     Source

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	Frames *queue.Bounded[Frame]
}

// New validates sampleRate/channels and wraps source. sampleRate must be
// 44100 or 48000; channels must be 1 or 2.
func New(deviceID string, sampleRate, channels int, pts clock.PTS, source Source) (*Capture, error) {
	if sampleRate != 44100 && sampleRate != 48000 {
		return nil, engine.InvalidArgumentf("unsupported sample rate %d", sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, engine.InvalidArgumentf("unsupported channel count %d", channels)
	}
	return &Capture{
		deviceID:   deviceID,
		sampleRate: sampleRate,
		channels:   channels,
		pts:        pts,
		source:     source,
		Frames:     queue.New[Frame](queueCapacity),
	}, nil
}

// Start launches the capture goroutine. Idempotent.
func (c *Capture) Start() error {
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

// Stop signals the capture goroutine to exit and waits for it. Idempotent.
func (c *Capture) Stop() error {
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

func (c *Capture) readLoop(stopCh chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		samples, err := c.source.Read()
		if err != nil {
			// Internal backend errors are logged and non-fatal: a single
			// bad read must not take down the capture goroutine.
			logging.Default().DebugCapture("audio read error", "device_id", c.deviceID, "error", err)
			continue
		}

		c.Frames.PushDropOldest(Frame{
			Samples:    samples,
			SampleRate: c.sampleRate,
			Channels:   c.channels,
			PTS:        c.pts.Now(),
			DeviceID:   c.deviceID,
		})
	}
}

// Close stops the stream and releases the underlying source. Safe to call
// multiple times.
func (c *Capture) Close() error {
	_ = c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil {
		return nil
	}
	err := c.source.Close()
	c.source = nil
	c.Frames.Close()
	if err != nil {
		return engine.Wrap(engine.KindBackend, err, "close audio device %s", c.deviceID)
	}
	return nil
}
