package stream

import "math"

// syntheticDeviceID is the device ID reserved for frames produced when no
// real camera is in use. EncodedFrame has no device ID field, so the
// Streamer does not attach this ID to the frames it broadcasts.
const syntheticDeviceID = "synthetic"

// generateSyntheticRGB builds an RGB24 buffer with a low-frequency temporal
// pattern driven by frameCounter, plus a small per-pixel modulation so the
// content isn't trivially constant (a constant frame would let a degenerate
// encoder collapse to a single I-frame forever).
func generateSyntheticRGB(width, height int, frameCounter uint64) []byte {
	buf := make([]byte, width*height*3)

	base := 0.5 + 0.5*math.Sin(float64(frameCounter)*0.05)
	r := byte(base * 255)
	g := byte((1 - base) * 200)
	b := byte(128)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			mod := byte((x + y + int(frameCounter)) % 16)
			i := (y*width + x) * 3
			buf[i] = clampAdd(r, mod)
			buf[i+1] = clampAdd(g, mod)
			buf[i+2] = clampAdd(b, mod)
		}
	}
	return buf
}

func clampAdd(base, delta byte) byte {
	v := int(base) + int(delta)
	if v > 255 {
		return 255
	}
	return byte(v)
}
