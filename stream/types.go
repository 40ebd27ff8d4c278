// Package stream implements the capture->encode->packetize pipeline: one
// Streamer per logical stream, fanning encoded video out to subscribers and
// forwarding RTP payloads to an external Track sink, with a synthetic-frame
// fallback when the camera is unavailable and a failure-budget supervisor
// bounding how long a wedged device or dead sink can stall the pipeline.
package stream

import "fmt"

// Mode selects whether the Streamer pulls from a real camera or generates
// synthetic test frames unconditionally.
type Mode string

const (
	ModeRealCamera    Mode = "real_camera"
	ModeSyntheticTest Mode = "synthetic_test"
)

// CameraStatusKind is the closed set of camera health states.
type CameraStatusKind string

const (
	CameraAvailable   CameraStatusKind = "available"
	CameraUnavailable CameraStatusKind = "unavailable"
	CameraFailed      CameraStatusKind = "failed"
)

// CameraStatus reports camera health and, for the non-Available kinds, why.
type CameraStatus struct {
	Kind   CameraStatusKind
	Reason string
}

func Available() CameraStatus { return CameraStatus{Kind: CameraAvailable} }

func Unavailable(reason string) CameraStatus {
	return CameraStatus{Kind: CameraUnavailable, Reason: reason}
}

func Failed(reason string) CameraStatus {
	return CameraStatus{Kind: CameraFailed, Reason: reason}
}

func (s CameraStatus) String() string {
	if s.Reason == "" {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Reason)
}

// Codec names the wire codec declared in Config. Only H264 is ever emitted
// by this core: the encoder is always H.264, and with any other codec
// declared its frames still reach subscribers but no RTP is forwarded.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecVP8  Codec = "vp8"
	CodecVP9  Codec = "vp9"
	CodecAV1  Codec = "av1"
)

// SimulcastLayer names one simulcast rendition. Declared but never emitted:
// the streamer loop instantiates exactly one encoder (spec.md §9 Open
// Questions).
type SimulcastLayer struct {
	RID     string
	Width   int
	Height  int
	Bitrate int
	FPS     int
}

// Config is the spec's StreamConfig.
type Config struct {
	Width         int
	Height        int
	MaxFPS        int
	TargetBitrate int
	Codec         Codec
	Simulcast     []SimulcastLayer
}

// EncodedFrame is what Subscribe's channel delivers: one encoded H.264
// access unit plus its keyframe flag and PTS.
type EncodedFrame struct {
	Data       []byte
	IsKeyframe bool
	PTS        float64
}

// MediaKind tags which RTP stream a payload belongs to.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Stats is the spec's session diagnostics view (get_stats).
type Stats struct {
	StreamID      string
	IsActive      bool
	TargetBitrate int
	CurrentFPS    int
	Resolution    string
	Codec         Codec
	Subscribers   int
	Mode          Mode
	CameraStatus  CameraStatus
}
