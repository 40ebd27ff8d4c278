// Package webrtctrack adapts a camcore stream.Streamer to a pion WebRTC
// PeerConnection: one TrackLocalStaticRTP per media kind, an RTPSender that
// stamps PT/SSRC onto rtppkt.Payload values before writing them to the
// track, and an RTCP reader goroutine that turns PLI/FIR feedback into
// keyframe requests.
package webrtctrack

import (
	"errors"
	"io"
	"sync"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/ethan/camcore/internal/engine"
	"github.com/ethan/camcore/internal/logging"
	"github.com/ethan/camcore/rtppkt"
	"github.com/ethan/camcore/stream"
)

const (
	videoClockRate = 90000
	audioClockRate = 48000
)

// KeyframeRequester is the subset of Streamer that an RTCP reader needs.
type KeyframeRequester interface {
	ForceKeyframe()
}

// Track binds one video and one (optional) audio TrackLocalStaticRTP to a
// PeerConnection, and implements stream.RTPSender by stamping a fixed PT and
// SSRC onto every payload before writing it to the right track.
type Track struct {
	cameraID string
	logger   *logging.Logger

	videoTrack *webrtc.TrackLocalStaticRTP
	audioTrack *webrtc.TrackLocalStaticRTP

	videoPT, audioPT     uint8
	videoSSRC, audioSSRC uint32

	wg sync.WaitGroup
}

// New creates the video (and, if withAudio, audio) tracks named after
// cameraID and adds them to pc. PT is fixed at 96 for video and 111 for
// audio; each SSRC is taken from its RTPSender's encoding parameters.
func New(pc *webrtc.PeerConnection, cameraID string, withAudio bool, logger *logging.Logger) (*Track, error) {
	if logger == nil {
		logger = logging.Default()
	}

	videoTrack, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: videoClockRate},
		cameraID+"-video", "camcore-video",
	)
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "create video track")
	}
	videoSender, err := pc.AddTrack(videoTrack)
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "add video track")
	}

	t := &Track{
		cameraID:   cameraID,
		logger:     logger,
		videoTrack: videoTrack,
		videoPT:    96,
		videoSSRC:  uint32(videoSender.GetParameters().Encodings[0].SSRC),
	}

	if withAudio {
		audioTrack, err := webrtc.NewTrackLocalStaticRTP(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: audioClockRate, Channels: 2},
			cameraID+"-audio", "camcore-audio",
		)
		if err != nil {
			return nil, engine.Wrap(engine.KindBackend, err, "create audio track")
		}
		audioSender, err := pc.AddTrack(audioTrack)
		if err != nil {
			return nil, engine.Wrap(engine.KindBackend, err, "add audio track")
		}
		t.audioTrack = audioTrack
		t.audioPT = 111
		t.audioSSRC = uint32(audioSender.GetParameters().Encodings[0].SSRC)
	}

	return t, nil
}

// Send implements stream.RTPSender: it marshals payload into wire bytes with
// this track's PT/SSRC and writes it to the matching pion track.
func (t *Track) Send(kind stream.MediaKind, payload rtppkt.Payload) error {
	switch kind {
	case stream.MediaVideo:
		return t.write(t.videoTrack, payload, t.videoPT, t.videoSSRC)
	case stream.MediaAudio:
		if t.audioTrack == nil {
			return engine.Unsupportedf("track has no audio leg")
		}
		return t.write(t.audioTrack, payload, t.audioPT, t.audioSSRC)
	default:
		return engine.InvalidArgumentf("unknown media kind %q", kind)
	}
}

func (t *Track) write(track *webrtc.TrackLocalStaticRTP, payload rtppkt.Payload, pt uint8, ssrc uint32) error {
	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    pt,
			SequenceNumber: payload.Sequence,
			Timestamp:      uint32(payload.Timestamp),
			SSRC:           ssrc,
			Marker:         payload.Marker,
		},
		Payload: payload.Bytes,
	}
	if err := track.WriteRTP(packet); err != nil {
		return engine.Wrap(engine.KindBackend, err, "write rtp packet to track")
	}
	return nil
}

// WatchRTCP starts a goroutine reading RTCP from sender and calling
// streamer.ForceKeyframe on every PLI/FIR. The goroutine exits when sender's
// read loop ends (peer connection closed) or stop is closed.
func (t *Track) WatchRTCP(sender *webrtc.RTPSender, streamer KeyframeRequester, stop <-chan struct{}) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			packets, _, err := sender.ReadRTCP()
			if err != nil {
				select {
				case <-stop:
					return
				default:
				}
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
					return
				}
				t.logger.DebugRTP("rtcp read error", "camera_id", t.cameraID, "error", err)
				return
			}
			for _, packet := range packets {
				switch packet.(type) {
				case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
					streamer.ForceKeyframe()
				}
			}
		}
	}()
}

// Wait blocks until every WatchRTCP goroutine has returned.
func (t *Track) Wait() {
	t.wg.Wait()
}
