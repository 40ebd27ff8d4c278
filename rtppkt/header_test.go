package rtppkt

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func TestMarshalProducesVersion2Header(t *testing.T) {
	p := Payload{Bytes: []byte{0xAA, 0xBB}, Timestamp: 0x1_0000_0042, Sequence: 7, Marker: true}

	raw, err := Marshal(p, 96, 0xCAFEBABE)
	require.NoError(t, err)

	var pkt rtp.Packet
	require.NoError(t, pkt.Unmarshal(raw))

	require.Equal(t, uint8(2), pkt.Version)
	require.False(t, pkt.Padding)
	require.False(t, pkt.Extension)
	require.Empty(t, pkt.CSRC)
	require.Equal(t, uint8(96), pkt.PayloadType)
	require.Equal(t, uint16(7), pkt.SequenceNumber)
	require.Equal(t, uint32(0x42), pkt.Timestamp, "only the low 32 bits of the 64-bit timestamp go on the wire")
	require.Equal(t, uint32(0xCAFEBABE), uint32(pkt.SSRC))
	require.True(t, pkt.Marker)
	require.Equal(t, []byte{0xAA, 0xBB}, pkt.Payload)
}
