// Package record wires an H.264 encoder to an opaque container sink,
// producing a seekable file with accurate video-frame PTS and drop
// accounting. The sink's byte layout is out of scope (spec.md §1): Recorder
// only ever calls WriteVideo and Finish.
package record

import (
	"sync"
	"time"

	"github.com/ethan/camcore/codec/h264"
	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/video"
)

// Sink is the opaque container-muxer contract: a sink that accepts Annex-B
// NAL units with their presentation timestamp and keyframe flag, and
// finalizes into a stats summary on Finish.
type Sink interface {
	WriteVideo(pts float64, nal []byte, isKeyframe bool) error
	Finish() (SinkStats, error)
}

// SinkStats is what the opaque sink itself reports at Finish.
type SinkStats struct {
	VideoFrames  int
	AudioFrames  int
	DurationSecs float64
	BytesWritten int64
}

// Config mirrors the encoder parameters a Recorder is constructed with.
type Config struct {
	Width   int
	Height  int
	FPS     int
	Bitrate int
}

// Stats is returned by Finish: the sink's own counters plus the recorder's
// drop accounting and achieved frame rate.
type Stats struct {
	VideoFrames   int
	AudioFrames   int
	DurationSecs  float64
	BytesWritten  int64
	ActualFPS     float64
	DroppedFrames int
	OutputPath    string
}

// Recorder encodes VideoFrames to H.264 and writes them to a Sink, dropping
// frames that arrive faster than 80% of the configured frame interval.
type Recorder struct {
	cfg           Config
	outputPath    string
	frameDuration time.Duration

	mu               sync.Mutex
	enc              *h264.Encoder
	sink             Sink
	frameCounter     uint64
	droppedFrames    uint64
	lastFrameInstant time.Time
	startInstant     time.Time
}

// New builds a Recorder targeting cfg's resolution/fps/bitrate, writing to
// sink, and reporting outputPath in its final Stats.
func New(cfg Config, sink Sink, outputPath string) (*Recorder, error) {
	enc, err := h264.New(cfg.Width, cfg.Height, cfg.FPS, cfg.Bitrate)
	if err != nil {
		return nil, err
	}
	if cfg.FPS <= 0 {
		_ = enc.Close()
		return nil, engine.InvalidArgumentf("fps must be positive, got %d", cfg.FPS)
	}

	return &Recorder{
		cfg:           cfg,
		outputPath:    outputPath,
		frameDuration: time.Second / time.Duration(cfg.FPS),
		enc:           enc,
		sink:          sink,
		startInstant:  time.Now(),
	}, nil
}

// WriteFrame encodes and writes one captured video frame. Frames with the
// wrong dimensions are rejected outright (not counted as dropped); frames
// arriving faster than 80% of the frame interval, or that encode to zero
// bytes, are silently dropped and counted.
func (r *Recorder) WriteFrame(vf video.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if vf.Width != r.cfg.Width || vf.Height != r.cfg.Height {
		return engine.InvalidArgumentf("dimension mismatch: got %dx%d, want %dx%d", vf.Width, vf.Height, r.cfg.Width, r.cfg.Height)
	}

	now := time.Now()
	if !r.lastFrameInstant.IsZero() {
		minGap := time.Duration(0.8 * float64(r.frameDuration))
		if now.Sub(r.lastFrameInstant) < minGap {
			r.droppedFrames++
			return nil
		}
	}
	r.lastFrameInstant = now

	encoded, err := r.enc.EncodeRGB(vf.Data, vf.PTS)
	if err != nil {
		return err
	}
	if len(encoded.Data) == 0 {
		r.droppedFrames++
		return nil
	}

	pts := float64(r.frameCounter) * r.frameDuration.Seconds()
	r.frameCounter++

	if err := r.sink.WriteVideo(pts, encoded.Data, encoded.IsKeyframe); err != nil {
		return engine.Wrap(engine.KindBackend, err, "write video frame to sink")
	}
	return nil
}

// Finish finalizes the sink and returns accumulated statistics. The encoder
// is closed regardless of whether the sink finalizes successfully.
func (r *Recorder) Finish() (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sinkStats, err := r.sink.Finish()
	_ = r.enc.Close()
	if err != nil {
		return Stats{}, engine.Wrap(engine.KindBackend, err, "finalize recording sink")
	}

	elapsed := time.Since(r.startInstant).Seconds()
	actualFPS := 0.0
	if elapsed > 0 {
		actualFPS = float64(r.frameCounter) / elapsed
	}

	return Stats{
		VideoFrames:   sinkStats.VideoFrames,
		AudioFrames:   sinkStats.AudioFrames,
		DurationSecs:  sinkStats.DurationSecs,
		BytesWritten:  sinkStats.BytesWritten,
		ActualFPS:     actualFPS,
		DroppedFrames: int(r.droppedFrames),
		OutputPath:    r.outputPath,
	}, nil
}
