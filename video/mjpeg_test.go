package video

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeJPEGDetectsSOI(t *testing.T) {
	assert.True(t, looksLikeJPEG([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.False(t, looksLikeJPEG([]byte{0x00, 0x01, 0x02}))
	assert.False(t, looksLikeJPEG(nil))
}

func TestDecodeJPEGToRGB24RoundTrips(t *testing.T) {
	const w, h = 4, 2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))

	rgb, gotW, gotH, err := decodeJPEGToRGB24(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w, gotW)
	assert.Equal(t, h, gotH)
	assert.Len(t, rgb, w*h*3)
}
