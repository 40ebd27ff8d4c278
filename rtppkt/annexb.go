package rtppkt

// SplitAnnexB splits an Annex-B access unit into its constituent NAL units,
// scanning for 3- or 4-byte start codes (00 00 01 / 00 00 00 01). Each
// returned slice is a NAL unit (header byte first) with the start code
// stripped, aliasing the input buffer.
func SplitAnnexB(accessUnit []byte) [][]byte {
	starts := findStartCodes(accessUnit)
	if len(starts) == 0 {
		return nil
	}

	nalus := make([][]byte, 0, len(starts))
	for i, s := range starts {
		nalStart := s.offset + s.length
		nalEnd := len(accessUnit)
		if i+1 < len(starts) {
			nalEnd = starts[i+1].offset
		}
		if nalEnd > nalStart {
			nalus = append(nalus, accessUnit[nalStart:nalEnd])
		}
	}
	return nalus
}

type startCode struct {
	offset int
	length int
}

// findStartCodes locates every 00 00 01 or 00 00 00 01 marker in data,
// preferring the longer 4-byte form when both match at the same position.
func findStartCodes(data []byte) []startCode {
	var out []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] != 0x00 || data[i+1] != 0x00 {
			continue
		}
		if data[i+2] == 0x01 {
			out = append(out, startCode{offset: i, length: 3})
			i += 2
			continue
		}
		if i+3 < len(data) && data[i+2] == 0x00 && data[i+3] == 0x01 {
			out = append(out, startCode{offset: i, length: 4})
			i += 3
		}
	}
	return out
}
