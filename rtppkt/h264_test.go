package rtppkt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annexB(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, n...)
	}
	return out
}

func TestH264PacketizerSingleNALPerNAL(t *testing.T) {
	p, err := NewH264Packetizer(1200)
	require.NoError(t, err)

	sps := []byte{0x67, 0x01, 0x02}
	pps := []byte{0x68, 0x03}
	idr := []byte{0x65, 0x04, 0x05, 0x06}

	payloads, err := p.Packetize(annexB(sps, pps, idr), 90000)
	require.NoError(t, err)
	require.Len(t, payloads, 3, "one single-NAL payload per NAL under the MTU")

	for i, pl := range payloads[:2] {
		assert.False(t, pl.Marker, "only the last payload carries the marker")
		assert.Equal(t, uint64(90000), pl.Timestamp)
		assert.Equal(t, uint16(i), pl.Sequence)
	}
	assert.True(t, payloads[2].Marker)
	assert.Equal(t, idr, payloads[2].Bytes)
}

func TestH264PacketizerFUAFragmentsReassemble(t *testing.T) {
	const mtu = 1200
	p, err := NewH264Packetizer(mtu)
	require.NoError(t, err)

	header := byte(0x65) // NRI=3<<5 | type=5 (IDR)
	payload := bytes.Repeat([]byte{0xAB}, mtu*2)
	nalu := append([]byte{header}, payload...)

	payloads, err := p.Packetize(annexB(nalu), 12345)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payloads), 2)

	first := payloads[0].Bytes
	last := payloads[len(payloads)-1].Bytes

	fuIndicator := first[0]
	assert.Equal(t, uint8(28), fuIndicator&0x1F, "FU indicator NAL type must be 28")
	assert.NotZero(t, first[1]&0x80, "S bit set on first fragment")
	assert.Zero(t, first[1]&0x40, "E bit clear on first fragment")

	lastHeader := last[1]
	assert.NotZero(t, lastHeader&0x40, "E bit set on last fragment")
	assert.Zero(t, lastHeader&0x80, "S bit clear on last fragment")

	for _, pl := range payloads[:len(payloads)-1] {
		assert.False(t, pl.Marker)
	}
	assert.True(t, payloads[len(payloads)-1].Marker)

	var reassembled []byte
	reassembled = append(reassembled, fuIndicator&0xE0|lastHeader&0x1F)
	for _, pl := range payloads {
		reassembled = append(reassembled, pl.Bytes[2:]...)
	}
	assert.Equal(t, nalu, reassembled)
}

func TestH264PacketizerRejectsTinyMTU(t *testing.T) {
	_, err := NewH264Packetizer(10)
	require.Error(t, err)
}

func TestH264PacketizerRejectsEmptyAccessUnit(t *testing.T) {
	p, err := NewH264Packetizer(1200)
	require.NoError(t, err)
	_, err = p.Packetize([]byte{0x01, 0x02}, 0)
	require.Error(t, err)
}
