package rtppkt

// opusSamplesPerFrame is the 48kHz RTP clock advance per 20ms Opus frame.
const opusSamplesPerFrame = 960

// OpusPacketizer turns each encoded Opus packet into exactly one RTP
// payload per RFC 7587: the packet bytes are the payload unchanged, the
// marker bit is always set, and the 48kHz timestamp advances by 960 samples
// (one 20ms frame) per call.
type OpusPacketizer struct {
	seq uint16
	ts  uint32
}

// NewOpusPacketizer builds a packetizer starting its internal RTP clock at 0.
func NewOpusPacketizer() *OpusPacketizer {
	return &OpusPacketizer{}
}

// Packetize wraps one Opus packet as an RTP payload and advances the
// internal 48kHz clock by 960 samples.
func (p *OpusPacketizer) Packetize(packet []byte) Payload {
	out := Payload{
		Bytes:     packet,
		Timestamp: uint64(p.ts),
		Sequence:  p.seq,
		Marker:    true,
	}
	p.seq++
	p.ts += opusSamplesPerFrame
	return out
}
