package webrtctrack

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/rtppkt"
	"github.com/ethan/camcore/stream"
)

func newTestPeerConnection(t *testing.T) *webrtc.PeerConnection {
	t.Helper()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func TestNewWiresVideoAndAudioTracks(t *testing.T) {
	pc := newTestPeerConnection(t)

	track, err := New(pc, "cam1", true, nil)
	require.NoError(t, err)
	require.NotNil(t, track.videoTrack)
	require.NotNil(t, track.audioTrack)
}

func TestSendWritesToBoundTrack(t *testing.T) {
	pc := newTestPeerConnection(t)
	track, err := New(pc, "cam1", false, nil)
	require.NoError(t, err)

	// With no remote peer, WriteRTP has no bound transports to fan out to
	// and returns nil: this exercises the PT/SSRC stamping path without
	// a full ICE/DTLS handshake.
	err = track.Send(stream.MediaVideo, rtppkt.Payload{Bytes: []byte{1, 2, 3}, Timestamp: 90000, Sequence: 1, Marker: true})
	require.NoError(t, err)
}

func TestSendRejectsAudioWithoutAudioTrack(t *testing.T) {
	pc := newTestPeerConnection(t)
	track, err := New(pc, "cam1", false, nil)
	require.NoError(t, err)

	err = track.Send(stream.MediaAudio, rtppkt.Payload{Bytes: []byte{1}})
	require.Error(t, err)
	require.True(t, engine.Is(err, engine.KindUnsupported))
}
