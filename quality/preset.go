// Package quality holds the named StreamConfig presets the original
// source's quality module exposed; folded here into a small lookup rather
// than a standalone module since the concept is just a handful of canned
// tuples (spec.md's original_source supplement).
package quality

import "github.com/ethan/camcore/stream"

// Preset names a canned {width,height,max_fps,target_bitrate} tuple.
type Preset string

const (
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
)

// Config returns the StreamConfig for a named preset, with codec fixed to
// H264 (the only codec this core emits).
func Config(p Preset) stream.Config {
	switch p {
	case PresetLow:
		return stream.Config{Width: 320, Height: 240, MaxFPS: 15, TargetBitrate: 250_000, Codec: stream.CodecH264}
	case PresetHigh:
		return stream.Config{Width: 1280, Height: 720, MaxFPS: 30, TargetBitrate: 2_500_000, Codec: stream.CodecH264}
	default:
		return stream.Config{Width: 640, Height: 480, MaxFPS: 30, TargetBitrate: 1_000_000, Codec: stream.CodecH264}
	}
}
