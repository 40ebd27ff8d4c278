package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
	"github.com/ethan/camcore/rtppkt"
)

func testConfig() Config {
	return Config{Width: 16, Height: 16, MaxFPS: 200, TargetBitrate: 100_000, Codec: CodecH264}
}

type fakeSender struct {
	mu   sync.Mutex
	fail bool
	sent int
}

func (f *fakeSender) Send(kind MediaKind, payload rtppkt.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assertErr
	}
	f.sent++
	return nil
}

var assertErr = errSend{}

type errSend struct{}

func (errSend) Error() string { return "send failed" }

func TestStreamerSyntheticModeProducesFrames(t *testing.T) {
	s := New("s1", testConfig(), device.NewRegistry(nil, nil), clock.New(), nil)
	s.SetMode(ModeSyntheticTest)
	require.NoError(t, s.InitH264Packetizer(1200))

	sender := &fakeSender{}
	s.SetRTPSender(sender)

	ch, unsub := s.Subscribe()
	defer unsub()

	require.NoError(t, s.StartStreaming("nonexistent"))
	defer s.StopStreaming()

	select {
	case frame := <-ch:
		assert.NotEmpty(t, frame.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an encoded frame")
	}

	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return sender.sent > 0
	}, 2*time.Second, 10*time.Millisecond)

	stats := s.GetStats()
	assert.True(t, stats.IsActive)
	assert.Equal(t, "16x16", stats.Resolution)
}

func TestStreamerCameraUnavailableFallsBackToSynthetic(t *testing.T) {
	s := New("s2", testConfig(), device.NewRegistry(nil, nil), clock.New(), nil)
	require.NoError(t, s.InitH264Packetizer(1200))

	ch, unsub := s.Subscribe()
	defer unsub()

	require.NoError(t, s.StartStreaming("does-not-exist"))

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}

	require.Eventually(t, func() bool {
		return s.GetStats().CameraStatus.Kind == CameraUnavailable
	}, time.Second, 10*time.Millisecond)

	start := time.Now()
	require.NoError(t, s.StopStreaming())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestStreamerPauseStopsForwardingNotBroadcast(t *testing.T) {
	s := New("s3", testConfig(), device.NewRegistry(nil, nil), clock.New(), nil)
	s.SetMode(ModeSyntheticTest)
	require.NoError(t, s.InitH264Packetizer(1200))

	sender := &fakeSender{}
	s.SetRTPSender(sender)
	s.Pause()

	ch, unsub := s.Subscribe()
	defer unsub()

	require.NoError(t, s.StartStreaming("x"))
	defer s.StopStreaming()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast must continue while paused")
	}

	time.Sleep(50 * time.Millisecond)
	sender.mu.Lock()
	sent := sender.sent
	sender.mu.Unlock()
	assert.Zero(t, sent, "paused streamer must not forward RTP")
}

func TestStreamerFailureBudgetStopsStream(t *testing.T) {
	s := New("s4", testConfig(), device.NewRegistry(nil, nil), clock.New(), nil)
	s.SetMode(ModeSyntheticTest)
	s.maxFailures = 2
	require.NoError(t, s.InitH264Packetizer(1200))

	sender := &fakeSender{fail: true}
	s.SetRTPSender(sender)

	require.NoError(t, s.StartStreaming("x"))

	require.Eventually(t, func() bool {
		return !s.GetStats().IsActive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartStreamingTwiceFails(t *testing.T) {
	s := New("s5", testConfig(), device.NewRegistry(nil, nil), clock.New(), nil)
	s.SetMode(ModeSyntheticTest)
	require.NoError(t, s.StartStreaming("x"))
	defer s.StopStreaming()

	err := s.StartStreaming("x")
	require.Error(t, err)
}
