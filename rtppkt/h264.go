package rtppkt

import (
	"github.com/pion/rtp/codecs"

	"github.com/ethan/camcore/internal/engine"
)

// rtpHeaderBytes is the fixed 12-byte RTP header size reserved out of the
// configured MTU budget.
const rtpHeaderBytes = 12

// H264Packetizer turns one Annex-B access unit into RFC 6184 RTP payloads:
// a single-NAL payload when a NAL fits the MTU budget, FU-A fragments
// otherwise. It is grounded on the teacher's bridge.go, which drives the
// same pion/rtp/codecs.H264Payloader for the send-side fragmentation this
// packetizer generalizes into a standalone, track-agnostic component.
type H264Packetizer struct {
	mtu       int
	payloader codecs.H264Payloader
	seq       uint16
}

// NewH264Packetizer builds a packetizer budgeting mtu bytes total (including
// the 12-byte RTP header); mtu <= 12 is rejected.
func NewH264Packetizer(mtu int) (*H264Packetizer, error) {
	if mtu <= rtpHeaderBytes {
		return nil, engine.InvalidArgumentf("mtu %d must exceed the %d-byte RTP header", mtu, rtpHeaderBytes)
	}
	return &H264Packetizer{mtu: mtu, payloader: codecs.H264Payloader{DisableStapA: true}}, nil
}

// Packetize splits accessUnit into NAL units and payloads each one, all
// sharing the given 90kHz timestamp. The marker bit is set only on the last
// fragment of the last NAL.
func (p *H264Packetizer) Packetize(accessUnit []byte, timestamp uint64) ([]Payload, error) {
	nalus := SplitAnnexB(accessUnit)
	if len(nalus) == 0 {
		return nil, engine.InvalidArgumentf("access unit contains no NAL units")
	}

	budget := uint16(p.mtu - rtpHeaderBytes)

	var out []Payload
	for nalIdx, nalu := range nalus {
		fragments := p.payloader.Payload(budget, nalu)
		for i, frag := range fragments {
			last := nalIdx == len(nalus)-1 && i == len(fragments)-1
			out = append(out, Payload{
				Bytes:     frag,
				Timestamp: timestamp,
				Sequence:  p.seq,
				Marker:    last,
			})
			p.seq++
		}
	}
	return out, nil
}
