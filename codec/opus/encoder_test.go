package opus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/internal/engine"
)

func TestNewRejectsUnsupportedFormats(t *testing.T) {
	_, err := New(44100, 1)
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindInvalidArgument))

	_, err = New(48000, 3)
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindInvalidArgument))
}

func TestEncodePacketsAdvanceBy20ms(t *testing.T) {
	enc, err := New(48000, 1)
	require.NoError(t, err)
	defer enc.Close()

	// Three full 20ms frames delivered in one call.
	samples := make([]float32, samplesPerChannel*3)
	packets, err := enc.Encode(samples, 1.0)
	require.NoError(t, err)
	require.Len(t, packets, 3)

	for k, pkt := range packets {
		assert.InDelta(t, 1.0+float64(k)*0.020, pkt.PTS, 1e-9)
		assert.Equal(t, 0.020, pkt.Duration)
		assert.Less(t, int(pkt.Data[0]>>3), 32, "opus TOC configuration code must be <32")
	}
}

func TestEncodeAccumulatesPartialFrames(t *testing.T) {
	enc, err := New(48000, 2)
	require.NoError(t, err)
	defer enc.Close()

	half := make([]float32, samplesPerChannel) // one channel-frame worth, stereo needs samplesPerChannel*2
	packets, err := enc.Encode(half, 0.0)
	require.NoError(t, err)
	assert.Empty(t, packets, "half a frame must not emit a packet yet")

	packets, err = enc.Encode(half, 0.010)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.InDelta(t, 0.0, packets[0].PTS, 1e-9, "bufferStart is seeded by the first call, not updated by later ones")
}

func TestFlushPadsPartialFrame(t *testing.T) {
	enc, err := New(48000, 1)
	require.NoError(t, err)
	defer enc.Close()

	_, err = enc.Encode(make([]float32, 100), 5.0)
	require.NoError(t, err)

	packets, err := enc.Flush()
	require.NoError(t, err)
	require.Len(t, packets, 1)

	more, err := enc.Flush()
	require.NoError(t, err)
	assert.Empty(t, more, "flush with nothing buffered emits no packet")
}
