// Package rtppkt turns encoded H.264 access units and Opus packets into RTP
// payloads (RFC 6184 and RFC 7587 respectively), plus a thin adapter that
// prepends the 12-byte RTP wire header. The core only ever produces
// payloads; a caller (webrtctrack, or any other Track sink) owns the PT and
// SSRC that go on the wire.
package rtppkt

// Payload is one RTP payload with no header attached: the payload bytes, a
// 64-bit presentation timestamp (the low 32 bits go on the wire), a 16-bit
// sequence number that wraps around at 2^16, and the marker bit.
type Payload struct {
	Bytes     []byte
	Timestamp uint64
	Sequence  uint16
	Marker    bool
}
