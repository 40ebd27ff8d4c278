// Package headless implements the façade out-of-process consumers drive:
// open -> start -> (poll frames/audio) -> stop -> close, per spec.md §4.13
// and the external contract in §6.
package headless

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ethan/camcore/audio"
	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/video"
)

// State is the session's state machine: Open -> Started -> Stopped ->
// Closed, with any state able to reach Closed via Close.
type State string

const (
	StateOpen    State = "open"
	StateStarted State = "started"
	StateStopped State = "stopped"
	StateClosed  State = "closed"
)

const warmupTimeout = 5 * time.Second

// Config describes what a Session should open. AudioSource is optional;
// when nil, the session is video-only and GetAudioPacket returns
// Unsupported, matching spec.md §7 ("audio requested without the audio
// build").
type Config struct {
	VideoDeviceID string
	Width         int
	Height        int
	FPS           int
	QueueCapacity int

	AudioSource     audio.Source
	AudioSampleRate int
	AudioChannels   int

	ControlsBackend Backend
}

// Frame is the wire-serialized frame shape from spec.md §6.
type Frame struct {
	Sequence    uint64
	TimestampUs uint64
	Width       uint32
	Height      uint32
	Format      string
	DeviceID    string
	Data        []byte
}

// AudioPacket is the audio-build counterpart to Frame.
type AudioPacket struct {
	Sequence    uint64
	TimestampUs uint64
	SampleRate  uint32
	Channels    uint32
	Samples     []float32
}

// Session is the headless façade: one video capture, one optional audio
// capture, and the shared PTS clock they were both constructed against.
type Session struct {
	id      string
	pts     clock.PTS
	cfg     Config
	backend Backend

	mu            sync.Mutex
	state         State
	cam           *video.Capture
	mic           *audio.Capture
	frameSeq      uint64
	audioSeq      uint64
	droppedFrames uint64
}

// Open resolves the configured video device and constructs (but does not
// start) its capture, building an audio Capture too if cfg.AudioSource is
// set. The session starts in StateOpen.
func Open(cfg Config, registry *device.Registry, pts clock.PTS) (*Session, error) {
	info, err := registry.FindVideoDevice(cfg.VideoDeviceID)
	if err != nil {
		return nil, err
	}

	queueCap := cfg.QueueCapacity
	if queueCap < 1 {
		queueCap = 8
	}

	cam, err := video.Open(info.ID, info.Index, video.TargetFormat{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS}, pts, queueCap)
	if err != nil {
		return nil, err
	}

	var mic *audio.Capture
	if cfg.AudioSource != nil {
		mic, err = audio.New(cfg.VideoDeviceID+"-mic", cfg.AudioSampleRate, cfg.AudioChannels, pts, cfg.AudioSource)
		if err != nil {
			_ = cam.Close()
			return nil, err
		}
	}

	backend := cfg.ControlsBackend
	if backend == nil {
		backend = newMemoryBackend()
	}

	return &Session{
		id:      uuid.NewString(),
		pts:     pts,
		cfg:     cfg,
		backend: backend,
		state:   StateOpen,
		cam:     cam,
		mic:     mic,
	}, nil
}

// ID returns this session's generated identifier, stable for its lifetime.
func (s *Session) ID() string {
	return s.id
}

// Start transitions Open or Stopped -> Started, launches the capture
// thread(s), and discards the first frame delivered within 5s as warmup.
func (s *Session) Start() error {
	s.mu.Lock()
	switch s.state {
	case StateStarted:
		s.mu.Unlock()
		return engine.AlreadyStartedf("session already started")
	case StateClosed:
		s.mu.Unlock()
		return engine.Closedf("session closed")
	}
	s.mu.Unlock()

	if err := s.cam.StartStream(); err != nil {
		return err
	}
	if s.mic != nil {
		if err := s.mic.Start(); err != nil {
			return err
		}
	}

	_ = s.cam.WarmUp(warmupTimeout)

	s.mu.Lock()
	s.state = StateStarted
	s.frameSeq = 0
	s.audioSeq = 0
	s.mu.Unlock()
	return nil
}

// GetFrame pops the next video frame. ok is false only on an elapsed
// timeout with the session still Started; state violations return an error.
func (s *Session) GetFrame(timeout time.Duration) (Frame, bool, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateClosed:
		return Frame{}, false, engine.Closedf("session closed")
	case StateStopped:
		return Frame{}, false, engine.Stoppedf("session stopped")
	case StateOpen:
		return Frame{}, false, engine.InvalidArgumentf("session not started")
	}

	vf, ok, err := s.cam.Frames.PopTimeout(timeout)
	if err != nil {
		if engine.Is(err, engine.KindClosed) {
			return Frame{}, false, engine.Stoppedf("capture stream closed")
		}
		return Frame{}, false, err
	}
	if !ok {
		return Frame{}, false, nil
	}

	s.mu.Lock()
	s.frameSeq++
	seq := s.frameSeq
	s.mu.Unlock()

	return Frame{
		Sequence:    seq,
		TimestampUs: uint64(vf.PTS * 1e6),
		Width:       uint32(vf.Width),
		Height:      uint32(vf.Height),
		Format:      string(vf.Format),
		DeviceID:    vf.DeviceID,
		Data:        vf.Data,
	}, true, nil
}

// GetAudioPacket pops the next audio frame. Returns Unsupported when the
// session was opened without an audio source.
func (s *Session) GetAudioPacket(timeout time.Duration) (AudioPacket, bool, error) {
	s.mu.Lock()
	state := s.state
	mic := s.mic
	s.mu.Unlock()

	if mic == nil {
		return AudioPacket{}, false, engine.Unsupportedf("session opened without an audio source")
	}

	switch state {
	case StateClosed:
		return AudioPacket{}, false, engine.Closedf("session closed")
	case StateStopped:
		return AudioPacket{}, false, engine.Stoppedf("session stopped")
	case StateOpen:
		return AudioPacket{}, false, engine.InvalidArgumentf("session not started")
	}

	af, ok, err := mic.Frames.PopTimeout(timeout)
	if err != nil {
		if engine.Is(err, engine.KindClosed) {
			return AudioPacket{}, false, engine.Stoppedf("audio capture closed")
		}
		return AudioPacket{}, false, err
	}
	if !ok {
		return AudioPacket{}, false, nil
	}

	s.mu.Lock()
	s.audioSeq++
	seq := s.audioSeq
	s.mu.Unlock()

	return AudioPacket{
		Sequence:    seq,
		TimestampUs: uint64(af.PTS * 1e6),
		SampleRate:  uint32(af.SampleRate),
		Channels:    uint32(af.Channels),
		Samples:     af.Samples,
	}, true, nil
}

// SetControl validates value against the closed schema (spec.md §6) and
// applies it via the session's Backend.
func (s *Session) SetControl(id ControlID, value ControlValue) error {
	if err := validateControlValue(id, value); err != nil {
		return err
	}
	return s.backend.SetControl(id, value)
}

// GetControl returns id's current value.
func (s *Session) GetControl(id ControlID) (ControlValue, error) {
	if _, ok := controlTable[id]; !ok {
		return ControlValue{}, engine.InvalidArgumentf("unknown control %q", id)
	}
	return s.backend.GetControl(id)
}

// ListControls returns the current value of every known control that has
// one set; controls never written since Open are omitted.
func (s *Session) ListControls() map[ControlID]ControlValue {
	out := make(map[ControlID]ControlValue, len(controlTable))
	for id := range controlTable {
		if v, err := s.backend.GetControl(id); err == nil {
			out[id] = v
		}
	}
	return out
}

// Stop signals the capture thread(s) to exit and joins up to timeout. On
// timeout it returns a Timeout error without losing the thread handle so a
// later Stop or Close may retry.
func (s *Session) Stop(timeout time.Duration) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state == StateClosed {
		return engine.Closedf("session closed")
	}
	if state == StateStopped {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := s.cam.StopStream()
		if s.mic != nil {
			if micErr := s.mic.Stop(); err == nil {
				err = micErr
			}
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		return nil
	case <-time.After(timeout):
		return engine.Timeoutf("stop did not complete within %s", timeout)
	}
}

// Close performs a best-effort Stop, then releases the device handles and
// transitions to Closed regardless of whether Stop finished in time. Closed
// is terminal and idempotent.
func (s *Session) Close(timeout time.Duration) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_ = s.Stop(timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.cam.Close()
	if s.mic != nil {
		_ = s.mic.Close()
	}
	s.state = StateClosed
	return nil
}

// DroppedFrames returns the video queue's cumulative drop count.
func (s *Session) DroppedFrames() uint64 {
	return s.cam.Frames.Dropped()
}
