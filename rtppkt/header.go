package rtppkt

import "github.com/pion/rtp"

// Marshal prepends the 12-byte RTP wire header to p's payload: version 2, no
// padding/extension/CSRC, PT and SSRC supplied by the track binding, and the
// low 32 bits of p's 64-bit timestamp. This is the "thin adapter" spec.md
// §4.8/§6 describes sitting between the core's Payload values and the wire.
func Marshal(p Payload, payloadType uint8, ssrc uint32) ([]byte, error) {
	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    payloadType,
			SequenceNumber: p.Sequence,
			Timestamp:      uint32(p.Timestamp),
			SSRC:           ssrc,
			Marker:         p.Marker,
		},
		Payload: p.Bytes,
	}
	return packet.Marshal()
}
