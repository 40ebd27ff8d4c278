package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/internal/engine"
)

func TestOpenFailsForUnknownDevice(t *testing.T) {
	registry := device.NewRegistry(nil, nil)
	_, err := Open(Config{VideoDeviceID: "nonexistent"}, registry, clock.New())
	require.Error(t, err)
}

// The state-guard paths of GetFrame/GetAudioPacket return before touching
// the camera or microphone handles, so they're exercised directly against a
// Session literal with no live capture.

func TestGetFrameRespectsState(t *testing.T) {
	cases := []struct {
		state State
		kind  engine.Kind
	}{
		{StateOpen, engine.KindInvalidArgument},
		{StateStopped, engine.KindStopped},
		{StateClosed, engine.KindClosed},
	}
	for _, tc := range cases {
		s := &Session{backend: newMemoryBackend(), state: tc.state}
		_, ok, err := s.GetFrame(time.Millisecond)
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, engine.Is(err, tc.kind))
	}
}

func TestGetAudioPacketUnsupportedWithoutMic(t *testing.T) {
	s := &Session{backend: newMemoryBackend(), state: StateStarted}
	_, ok, err := s.GetAudioPacket(time.Millisecond)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, engine.Is(err, engine.KindUnsupported))
}

func TestSetControlValidatesAgainstSchema(t *testing.T) {
	s := &Session{backend: newMemoryBackend(), state: StateOpen}

	err := s.SetControl(ControlBrightness, ControlValue{Kind: KindF32, F32: 0.5})
	require.NoError(t, err)

	got, err := s.GetControl(ControlBrightness)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), got.F32)

	err = s.SetControl(ControlBrightness, ControlValue{Kind: KindF32, F32: 5.0})
	require.Error(t, err)
	assert.True(t, engine.Is(err, engine.KindInvalidArgument))

	err = s.SetControl("not_a_real_control", ControlValue{Kind: KindBool, Bool: true})
	require.Error(t, err)
}

func TestListControlsOnlyReportsSetValues(t *testing.T) {
	s := &Session{backend: newMemoryBackend(), state: StateOpen}
	require.Empty(t, s.ListControls())

	require.NoError(t, s.SetControl(ControlAutoFocus, ControlValue{Kind: KindBool, Bool: true}))
	listed := s.ListControls()
	require.Len(t, listed, 1)
	assert.True(t, listed[ControlAutoFocus].Bool)
}

func TestCloseIsIdempotentOnStateOnlySession(t *testing.T) {
	s := &Session{backend: newMemoryBackend(), state: StateClosed}
	require.NoError(t, s.Close(time.Second))
	require.NoError(t, s.Close(time.Second))
}
