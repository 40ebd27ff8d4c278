package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/internal/engine"
)

type fakeSource struct {
	frame   []float32
	failing bool
	closed  bool
}

func (f *fakeSource) Read() ([]float32, error) {
	if f.failing {
		return nil, errors.New("device hiccup")
	}
	time.Sleep(time.Millisecond)
	return f.frame, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func TestNewRejectsUnsupportedFormats(t *testing.T) {
	_, err := New("mic", 22050, 1, clock.New(), &fakeSource{})
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindInvalidArgument))

	_, err = New("mic", 48000, 3, clock.New(), &fakeSource{})
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindInvalidArgument))
}

func TestCaptureProducesFrames(t *testing.T) {
	src := &fakeSource{frame: make([]float32, 960)}
	capture, err := New("mic", 48000, 1, clock.New(), src)
	require.NoError(t, err)

	require.NoError(t, capture.Start())
	require.NoError(t, capture.Start())

	frame, ok, err := capture.Frames.PopTimeout(time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 48000, frame.SampleRate)
	assert.Equal(t, "mic", frame.DeviceID)

	require.NoError(t, capture.Close())
	require.NoError(t, capture.Close())
	assert.True(t, src.closed)
}

func TestCaptureSurvivesSourceErrors(t *testing.T) {
	src := &fakeSource{failing: true}
	capture, err := New("mic", 48000, 2, clock.New(), src)
	require.NoError(t, err)

	require.NoError(t, capture.Start())
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, capture.Close())
}
