// Package opus wraps libopus (via gopkg.in/hraban/opus.v2, a cgo binding)
// with the fixed 20ms-framing contract camcore's audio pipeline expects. Per
// spec.md §9 ("Manual C FFI for Opus"), the raw encoder handle never leaves
// this package; callers only see Encoder and its Close.
package opus

import (
	"sync"

	"gopkg.in/hraban/opus.v2"

	"github.com/ethan/camcore/internal/engine"
)

const (
	// sampleRate is the only rate Opus accepts at this frame size in the
	// core; spec.md §4.7 requires 48kHz.
	sampleRate = 48000
	// frameDuration is the fixed 20ms frame the encoder accumulates to.
	frameDuration = 0.020
	// samplesPerChannel is 960 at 48kHz/20ms.
	samplesPerChannel = 960
	maxPacketBytes     = 4000
)

// Packet is one encoded Opus frame.
type Packet struct {
	Data     []byte
	PTS      float64
	Duration float64
}

// Encoder accumulates interleaved f32 PCM into 20ms frames and encodes each
// as one Opus packet. It is confined to one goroutine for its lifetime, like
// every other encoder in this module (spec.md §5).
type Encoder struct {
	channels int

	mu            sync.Mutex
	backend       *opus.Encoder
	ring          []float32
	bufferStart   float64 // PTS of the first sample ever delivered; never updated
	bufferStartSet bool
	samplesEncoded uint64
}

// New builds an Encoder. sampleRate must be 48000; channels must be 1 or 2.
func New(rate, channels int) (*Encoder, error) {
	if rate != sampleRate {
		return nil, engine.InvalidArgumentf("opus encoder requires 48000Hz, got %d", rate)
	}
	if channels != 1 && channels != 2 {
		return nil, engine.InvalidArgumentf("unsupported channel count %d", channels)
	}

	backend, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "initialize opus encoder")
	}

	return &Encoder{channels: channels, backend: backend}, nil
}

// SetBitrate adjusts the target bitrate in bits per second.
func (e *Encoder) SetBitrate(bps int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.backend.SetBitrate(bps); err != nil {
		return engine.Wrap(engine.KindBackend, err, "set opus bitrate")
	}
	return nil
}

// Encode accumulates samples (interleaved f32 PCM) and returns zero or more
// complete 20ms packets. pts is the presentation timestamp of the first
// sample in this call; only the very first call's pts seeds bufferStart, per
// spec.md §4.7 ("never updated thereafter, avoids double-counting").
func (e *Encoder) Encode(samples []float32, pts float64) ([]Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bufferStartSet {
		e.bufferStart = pts
		e.bufferStartSet = true
	}

	e.ring = append(e.ring, samples...)

	frameLen := samplesPerChannel * e.channels
	var packets []Packet
	for len(e.ring) >= frameLen {
		pkt, err := e.encodeFrameLocked(e.ring[:frameLen])
		if err != nil {
			return packets, err
		}
		e.ring = e.ring[frameLen:]
		packets = append(packets, pkt)
	}
	return packets, nil
}

// Flush zero-pads any partial frame to the next 20ms boundary and emits it.
// Call once, at shutdown.
func (e *Encoder) Flush() ([]Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	frameLen := samplesPerChannel * e.channels
	if len(e.ring) == 0 {
		return nil, nil
	}

	padded := make([]float32, frameLen)
	copy(padded, e.ring)
	e.ring = e.ring[:0]

	pkt, err := e.encodeFrameLocked(padded)
	if err != nil {
		return nil, err
	}
	return []Packet{pkt}, nil
}

// encodeFrameLocked must be called with e.mu held.
func (e *Encoder) encodeFrameLocked(frame []float32) (Packet, error) {
	out := make([]byte, maxPacketBytes)
	n, err := e.backend.EncodeFloat32(frame, out)
	if err != nil {
		return Packet{}, engine.Wrap(engine.KindBackend, err, "encode opus frame")
	}

	pts := e.bufferStart + float64(e.samplesEncoded)/float64(sampleRate)
	e.samplesEncoded += samplesPerChannel

	return Packet{
		Data:     out[:n],
		PTS:      pts,
		Duration: frameDuration,
	}, nil
}

// Close releases the backend encoder. hraban/opus.v2 frees its C state via
// a finalizer, but calling Close explicitly drops the reference promptly.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backend = nil
	return nil
}
