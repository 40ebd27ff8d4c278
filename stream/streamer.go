package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/codec/h264"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/internal/logging"
	"github.com/ethan/camcore/rtppkt"
	"github.com/ethan/camcore/video"
)

const (
	keyframeInterval       = 30
	defaultMaxFailures     = 10
	subscriberBufferLen    = 100
	videoQueueCapacity     = 8
	cameraPopTimeout       = 50 * time.Millisecond
)

// RTPSender forwards one packetized RTP payload to whatever sink owns the
// wire framing (PT, SSRC, header). It is the spec's opaque Track.send, one
// level up: the Streamer never constructs wire bytes itself.
type RTPSender interface {
	Send(kind MediaKind, payload rtppkt.Payload) error
}

// Streamer runs one capture->encode->packetize pipeline: camera (or
// synthetic fallback) -> H.264 encoder -> broadcast fan-out -> optional RTP
// forwarding. One goroutine drives the whole loop once StartStreaming is
// called; exported methods synchronize through mu, and the subscriber set
// through subMu.
type Streamer struct {
	id       string
	pts      clock.PTS
	registry *device.Registry
	logger   *logging.Logger

	mu           sync.Mutex
	cfg          Config
	mode         Mode
	cameraStatus CameraStatus
	paused       bool
	failureCount uint32
	maxFailures  uint32
	running      bool
	deviceID     string
	currentFPS   int

	enc     *h264.Encoder
	h264Pkt *rtppkt.H264Packetizer
	opusPkt *rtppkt.OpusPacketizer
	sender  RTPSender

	subMu sync.Mutex
	subs  map[chan EncodedFrame]struct{}

	cam *video.Capture

	stopCh chan struct{}
	wg     sync.WaitGroup

	frameCounter      uint64
	lastKeyframeFrame uint64
}

// New builds a Streamer in RealCamera mode with an Available camera status
// until StartStreaming proves otherwise. An empty id is replaced with a
// generated UUID, matching the teacher's per-camera session naming.
func New(id string, cfg Config, registry *device.Registry, pts clock.PTS, logger *logging.Logger) *Streamer {
	if logger == nil {
		logger = logging.Default()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Streamer{
		id:           id,
		pts:          pts,
		registry:     registry,
		logger:       logger,
		cfg:          cfg,
		mode:         ModeRealCamera,
		cameraStatus: Available(),
		maxFailures:  defaultMaxFailures,
		subs:         make(map[chan EncodedFrame]struct{}),
	}
}

// SetMode switches between pulling from a real camera and generating
// synthetic frames unconditionally. Takes effect at the loop's next
// iteration if already streaming.
func (s *Streamer) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// InitH264Packetizer configures the H.264 RTP packetizer with the given MTU
// budget. Must be called before StartStreaming if RTP forwarding is wanted.
func (s *Streamer) InitH264Packetizer(mtu int) error {
	pkt, err := rtppkt.NewH264Packetizer(mtu)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.h264Pkt = pkt
	s.mu.Unlock()
	return nil
}

// InitOpusPacketizer configures the Opus RTP packetizer.
func (s *Streamer) InitOpusPacketizer() {
	s.mu.Lock()
	s.opusPkt = rtppkt.NewOpusPacketizer()
	s.mu.Unlock()
}

// SetRTPSender installs the sink RTP payloads are forwarded to. A nil sender
// disables RTP forwarding (encoded frames still fan out to subscribers).
func (s *Streamer) SetRTPSender(sender RTPSender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// Subscribe registers a new broadcast subscriber and returns its receive
// channel plus an Unsubscribe function. The channel is buffered to 100
// frames; once full, the oldest unread frame is discarded to make room for
// the newest one rather than blocking the streamer loop.
func (s *Streamer) Subscribe() (<-chan EncodedFrame, func()) {
	ch := make(chan EncodedFrame, subscriberBufferLen)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, unsubscribe
}

func (s *Streamer) broadcast(frame EncodedFrame) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- frame:
		default:
			// Lagged subscriber: drop its oldest queued frame, then retry.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}

// Pause stops RTP forwarding (encoding and broadcast continue) until Resume.
func (s *Streamer) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Streamer) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// SetBitrate updates the target bitrate, propagating it to the live encoder
// if one exists.
func (s *Streamer) SetBitrate(bps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.TargetBitrate = bps
	if s.enc != nil {
		return s.enc.SetBitrate(bps)
	}
	return nil
}

// UpdateConfig replaces the streamer's config. Resolution changes only take
// effect on the next StartStreaming, since the encoder is fixed-size for its
// lifetime (spec.md §5, "encoders confined to one thread for their
// lifetime").
func (s *Streamer) UpdateConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// ForceKeyframe requests an IDR frame from the encoder at the next encode
// call. Wired to RTCP PLI/FIR feedback by webrtctrack.
func (s *Streamer) ForceKeyframe() {
	s.mu.Lock()
	enc := s.enc
	s.mu.Unlock()
	if enc != nil {
		enc.ForceKeyframe()
	}
}

// GetStats returns a point-in-time diagnostic snapshot.
func (s *Streamer) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subMu.Lock()
	subscribers := len(s.subs)
	s.subMu.Unlock()

	return Stats{
		StreamID:      s.id,
		IsActive:      s.running,
		TargetBitrate: s.cfg.TargetBitrate,
		CurrentFPS:    s.currentFPS,
		Resolution:    resolutionString(s.cfg.Width, s.cfg.Height),
		Codec:         s.cfg.Codec,
		Subscribers:   subscribers,
		Mode:          s.mode,
		CameraStatus:  s.cameraStatus,
	}
}

func resolutionString(w, h int) string {
	const sep = "x"
	return itoa(w) + sep + itoa(h)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// StartStreaming spawns the streaming goroutine against deviceID (used only
// in RealCamera mode). Returns AlreadyStarted if already streaming so a
// caller never double-spawns the loop for the same stream ID.
func (s *Streamer) StartStreaming(deviceID string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return engine.AlreadyStartedf("stream %s already running", s.id)
	}

	enc, err := h264.New(s.cfg.Width, s.cfg.Height, s.cfg.MaxFPS, s.cfg.TargetBitrate)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.enc = enc
	s.deviceID = deviceID
	s.running = true
	s.failureCount = 0
	s.frameCounter = 0
	s.lastKeyframeFrame = 0
	s.stopCh = make(chan struct{})
	mode := s.mode
	s.mu.Unlock()

	if mode == ModeRealCamera {
		s.openCamera(deviceID)
	}

	s.wg.Add(1)
	go s.loop(s.stopCh)
	return nil
}

// StopStreaming signals the loop to exit and waits for it, then releases
// the camera if one was opened. Idempotent.
func (s *Streamer) StopStreaming() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	cam := s.cam
	s.cam = nil
	enc := s.enc
	s.enc = nil
	s.mu.Unlock()

	if cam != nil {
		_ = cam.Close()
	}
	if enc != nil {
		_ = enc.Close()
	}
	return nil
}

// openCamera resolves deviceID and opens it, setting cameraStatus to
// Unavailable (not erroring the whole stream) on failure, per spec.md §4.10
// step 1.
func (s *Streamer) openCamera(deviceID string) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	info, err := s.registry.FindVideoDevice(deviceID)
	if err != nil {
		s.setCameraStatus(Unavailable(err.Error()))
		return
	}

	cam, err := video.Open(info.ID, info.Index, video.TargetFormat{Width: cfg.Width, Height: cfg.Height, FPS: cfg.MaxFPS}, s.pts, videoQueueCapacity)
	if err != nil {
		s.setCameraStatus(Unavailable(err.Error()))
		return
	}
	if err := cam.StartStream(); err != nil {
		_ = cam.Close()
		s.setCameraStatus(Unavailable(err.Error()))
		return
	}

	s.mu.Lock()
	s.cam = cam
	s.mu.Unlock()
	s.setCameraStatus(Available())
}

func (s *Streamer) setCameraStatus(status CameraStatus) {
	s.mu.Lock()
	s.cameraStatus = status
	s.mu.Unlock()
}

func (s *Streamer) loop(stopCh chan struct{}) {
	defer s.wg.Done()

	// Synthetic frames keep the size the encoder was built with, even if
	// UpdateConfig changes the resolution mid-stream.
	s.mu.Lock()
	width, height := s.cfg.Width, s.cfg.Height
	s.mu.Unlock()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		s.mu.Lock()
		cfg := s.cfg
		cfg.Width, cfg.Height = width, height
		mode := s.mode
		paused := s.paused
		sender := s.sender
		h264Pkt := s.h264Pkt
		enc := s.enc
		s.frameCounter++
		frameNo := s.frameCounter
		if frameNo == 1 || frameNo-s.lastKeyframeFrame >= keyframeInterval {
			s.lastKeyframeFrame = frameNo
			if enc != nil {
				enc.ForceKeyframe()
			}
		}
		s.mu.Unlock()

		frame, ok := s.acquireFrame(mode, cfg, frameNo)
		if !ok {
			if s.onIterationFailure() {
				return
			}
			continue
		}

		encoded, err := enc.EncodeRGB(frame.data, frame.pts)
		if err != nil {
			s.logger.DebugEncode("encode failed", "stream_id", s.id, "error", err)
			if s.onIterationFailure() {
				return
			}
			continue
		}

		s.broadcast(EncodedFrame{Data: encoded.Data, IsKeyframe: encoded.IsKeyframe, PTS: encoded.PTS})

		forwardFailed := false
		if !paused && sender != nil && h264Pkt != nil && cfg.Codec == CodecH264 {
			payloads, err := h264Pkt.Packetize(encoded.Data, uint64(encoded.PTS*90000))
			if err != nil {
				forwardFailed = true
			} else {
				for _, p := range payloads {
					if err := sender.Send(MediaVideo, p); err != nil {
						forwardFailed = true
						break
					}
				}
			}
		}

		if forwardFailed {
			if s.onIterationFailure() {
				return
			}
			continue
		}
		s.onIterationSuccess()

		s.mu.Lock()
		s.currentFPS = cfg.MaxFPS
		fps := cfg.MaxFPS
		s.mu.Unlock()
		if fps <= 0 {
			fps = 1
		}
		select {
		case <-stopCh:
			return
		case <-time.After(time.Second / time.Duration(fps)):
		}
	}
}

type capturedFrame struct {
	data []byte
	pts  float64
}

// acquireFrame tries the camera when available, otherwise (or on camera
// miss) generates a synthetic frame. Returns ok=false only when the loop
// should treat this iteration as a failure (camera present but erroring).
func (s *Streamer) acquireFrame(mode Mode, cfg Config, frameCounter uint64) (capturedFrame, bool) {
	if mode == ModeRealCamera {
		s.mu.Lock()
		cam := s.cam
		status := s.cameraStatus
		s.mu.Unlock()

		if cam != nil && status.Kind == CameraAvailable {
			vf, ok, err := cam.Frames.PopTimeout(cameraPopTimeout)
			if err != nil {
				s.setCameraStatus(Failed(err.Error()))
				return capturedFrame{}, false
			} else if ok {
				return capturedFrame{data: vf.Data, pts: vf.PTS}, true
			}
			// No frame yet within the poll window: fall through to
			// synthetic for this iteration without counting a failure.
		}
	}

	return capturedFrame{
		data: generateSyntheticRGB(cfg.Width, cfg.Height, frameCounter),
		pts:  s.pts.Now(),
	}, true
}

func (s *Streamer) onIterationSuccess() {
	s.mu.Lock()
	s.failureCount = 0
	s.mu.Unlock()
}

// onIterationFailure increments the failure budget and reports whether it
// has been exceeded, in which case the caller (the loop goroutine itself)
// must return immediately: StopStreaming would deadlock waiting on s.wg if
// called from inside the loop.
func (s *Streamer) onIterationFailure() (exceeded bool) {
	s.mu.Lock()
	s.failureCount++
	exceeded = s.failureCount > s.maxFailures
	if exceeded {
		s.running = false
	}
	cam := s.cam
	if exceeded {
		s.cam = nil
	}
	s.mu.Unlock()

	if exceeded {
		s.setCameraStatus(Failed("failure budget exhausted"))
		if cam != nil {
			_ = cam.Close()
		}
	}
	return exceeded
}
