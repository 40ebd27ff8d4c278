package device

import (
	"strconv"

	"gocv.io/x/gocv"
)

// GocvVideoScanner enumerates video devices by probing sequential indices
// with gocv.OpenVideoCapture. gocv exposes no device naming API, so names
// are synthesized as "Camera N" (index 0 is "Camera 0 (default)");
// SynthesizeID then derives a stable ID from
// that name, matching the fallback path for backends without durable IDs.
type GocvVideoScanner struct {
	// MaxIndex bounds the probe; device indices 0..MaxIndex-1 are tried.
	MaxIndex int
}

// NewGocvVideoScanner builds a scanner probing indices 0..maxIndex-1.
func NewGocvVideoScanner(maxIndex int) *GocvVideoScanner {
	if maxIndex < 1 {
		maxIndex = 4
	}
	return &GocvVideoScanner{MaxIndex: maxIndex}
}

// ScanVideo probes each candidate index, keeping the ones that open
// successfully. Index 0 is reported as the default device.
func (s *GocvVideoScanner) ScanVideo() ([]Info, error) {
	var devices []Info
	for i := 0; i < s.MaxIndex; i++ {
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		devices = append(devices, Info{
			Name:      deviceName(i),
			IsDefault: i == 0,
			Index:     i,
		})
		vc.Close()
	}
	return devices, nil
}

func deviceName(index int) string {
	if index == 0 {
		return "Camera 0 (default)"
	}
	return "Camera " + strconv.Itoa(index)
}
