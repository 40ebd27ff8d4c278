package rtppkt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpusPacketizerAdvancesTimestampBy960(t *testing.T) {
	p := NewOpusPacketizer()

	pkt1 := p.Packetize([]byte{0x78, 0x01, 0x02})
	pkt2 := p.Packetize([]byte{0x78, 0x03, 0x04})

	assert.Equal(t, uint64(0), pkt1.Timestamp)
	assert.Equal(t, uint64(960), pkt2.Timestamp)
	assert.Equal(t, uint16(0), pkt1.Sequence)
	assert.Equal(t, uint16(1), pkt2.Sequence)
	assert.True(t, pkt1.Marker)
	assert.True(t, pkt2.Marker)
}
