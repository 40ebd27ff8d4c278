package video

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/ethan/camcore/internal/engine"
)

// jpegSOI is the JPEG Start-Of-Image marker. A device exposing an Annex-B /
// MJPEG stream while RGB was requested hands back buffers beginning with
// this marker instead of raw pixels.
var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

// looksLikeJPEG reports whether data begins with the JPEG SOI marker.
func looksLikeJPEG(data []byte) bool {
	return bytes.HasPrefix(data, jpegSOI)
}

// decodeJPEGToRGB24 decodes a JPEG buffer into tightly packed RGB24 bytes
// (row-major, no padding) so it matches what the H.264 encoder expects from
// an RGB-format frame.
func decodeJPEGToRGB24(data []byte) ([]byte, int, int, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, engine.Wrap(engine.KindBackend, err, "decode mjpeg frame")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := make([]byte, width*height*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := colorAt(img, x, y)
			out[i] = r
			out[i+1] = g
			out[i+2] = b
			i += 3
		}
	}
	return out, width, height, nil
}

func colorAt(img image.Image, x, y int) (r, g, b, a byte) {
	rr, gg, bb, aa := img.At(x, y).RGBA()
	return byte(rr >> 8), byte(gg >> 8), byte(bb >> 8), byte(aa >> 8)
}
