// Package h264 wraps a libwebrtc-backed H.264 encoder with the fixed
// encode_rgb/encode_yuv/force_keyframe contract camcore's capture pipeline
// expects.
package h264

import (
	"sync"
	"time"

	"github.com/thesyncim/libgowebrtc/pkg/codec"
	"github.com/thesyncim/libgowebrtc/pkg/encoder"
	"github.com/thesyncim/libgowebrtc/pkg/frame"

	"github.com/ethan/camcore/internal/engine"
)

// EncodedVideo is one encoded access unit.
type EncodedVideo struct {
	Data       []byte
	IsKeyframe bool
	FrameIndex uint64
	PTS        float64
}

// Encoder turns RGB or YUV420 frames into H.264 access units. It keeps a
// frame counter and last-keyframe flag independent of the underlying
// encoder's own bookkeeping, since frame_count/last_was_keyframe are part of
// this package's contract regardless of which backend implements the codec.
type Encoder struct {
	width, height int
	fps           int

	mu            sync.Mutex
	backend       encoder.VideoEncoder
	frameCount    uint64
	lastKeyframe  bool
	forceKeyframe bool
	buf           []byte
}

// New builds an Encoder targeting width x height at fps with targetBitrate
// bits per second.
func New(width, height, fps, targetBitrate int) (*Encoder, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, engine.InvalidArgumentf("width/height must be positive and even, got %dx%d", width, height)
	}

	backend, err := encoder.NewH264Encoder(codec.H264Config{
		Width:       width,
		Height:      height,
		Bitrate:     uint32(targetBitrate),
		FPS:         float64(fps),
		KeyInterval: 30,
		Profile:     codec.H264ProfileConstrainedBase,
	})
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "initialize h264 encoder")
	}

	e := &Encoder{width: width, height: height, fps: fps, backend: backend}
	e.buf = make([]byte, backend.MaxEncodedSize())
	return e, nil
}

// EncodeRGB validates len(rgb) == width*height*3, converts to YUV420, and
// encodes it.
func (e *Encoder) EncodeRGB(rgb []byte, pts float64) (EncodedVideo, error) {
	if len(rgb) != e.width*e.height*3 {
		return EncodedVideo{}, engine.InvalidArgumentf(
			"rgb buffer size %d does not match %dx%d*3", len(rgb), e.width, e.height)
	}
	return e.EncodeYUV(rgbToYUV420(rgb, e.width, e.height), pts)
}

// EncodeYUV encodes an already-planar YUV420 buffer.
func (e *Encoder) EncodeYUV(yuv []byte, pts float64) (EncodedVideo, error) {
	ySize := e.width * e.height
	cSize := (e.width / 2) * (e.height / 2)
	if len(yuv) != ySize+2*cSize {
		return EncodedVideo{}, engine.InvalidArgumentf(
			"yuv buffer size %d does not match expected planar size %d", len(yuv), ySize+2*cSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vf := &frame.VideoFrame{
		Width:     e.width,
		Height:    e.height,
		Format:    frame.PixelFormatI420,
		Data:      [][]byte{yuv[:ySize], yuv[ySize : ySize+cSize], yuv[ySize+cSize:]},
		Stride:    []int{e.width, e.width / 2, e.width / 2},
		Timestamp: time.Duration(pts * float64(time.Second)),
	}

	force := e.forceKeyframe
	e.forceKeyframe = false

	result, err := e.backend.EncodeInto(vf, e.buf, force)
	if err != nil {
		return EncodedVideo{}, engine.Wrap(engine.KindBackend, err, "encode h264 frame")
	}

	e.frameCount++
	e.lastKeyframe = result.IsKeyframe

	out := make([]byte, result.N)
	copy(out, e.buf[:result.N])

	return EncodedVideo{
		Data:       out,
		IsKeyframe: result.IsKeyframe,
		FrameIndex: e.frameCount,
		PTS:        pts,
	}, nil
}

// SetBitrate adjusts the backend's target bitrate in bits per second.
func (e *Encoder) SetBitrate(bps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.backend.SetBitrate(uint32(bps)); err != nil {
		return engine.Wrap(engine.KindBackend, err, "set h264 bitrate")
	}
	return nil
}

// ForceKeyframe causes the next Encode* call to emit an IDR frame.
func (e *Encoder) ForceKeyframe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forceKeyframe = true
	e.backend.RequestKeyFrame()
}

// FrameCount returns the number of frames encoded so far.
func (e *Encoder) FrameCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

// LastWasKeyframe reports whether the most recently encoded frame was a
// keyframe.
func (e *Encoder) LastWasKeyframe() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastKeyframe
}

// Close releases the backend encoder.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return nil
	}
	err := e.backend.Close()
	e.backend = nil
	return err
}
