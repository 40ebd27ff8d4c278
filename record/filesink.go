package record

import (
	"encoding/binary"
	"os"

	"github.com/ethan/camcore/internal/engine"
)

// FileSink writes each access unit as a length-prefixed Annex-B record to a
// plain file. The container's actual byte layout is explicitly out of scope
// (spec.md §1: "the sink's byte layout is out of scope"); FileSink exists so
// the CLI binaries have a real, inspectable Sink to drive rather than a
// mock, not as a stand-in for a production fragmented-MP4 muxer.
type FileSink struct {
	f       *os.File
	frames  int
	lastPTS float64
	written int64
}

// NewFileSink creates (truncating) the file at path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, engine.Wrap(engine.KindBackend, err, "create recording file")
	}
	return &FileSink{f: f}, nil
}

// WriteVideo appends one [ptsMicros(8) | flags(1) | length(4) | nal] record,
// where ptsMicros is the PTS in whole microseconds.
func (s *FileSink) WriteVideo(pts float64, nal []byte, isKeyframe bool) error {
	var header [13]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(pts*1e6))
	if isKeyframe {
		header[8] = 1
	}
	binary.BigEndian.PutUint32(header[9:13], uint32(len(nal)))

	n1, err := s.f.Write(header[:])
	if err != nil {
		return engine.Wrap(engine.KindBackend, err, "write frame header")
	}
	n2, err := s.f.Write(nal)
	if err != nil {
		return engine.Wrap(engine.KindBackend, err, "write frame payload")
	}

	s.frames++
	s.lastPTS = pts
	s.written += int64(n1 + n2)
	return nil
}

// Finish flushes and closes the underlying file.
func (s *FileSink) Finish() (SinkStats, error) {
	if err := s.f.Close(); err != nil {
		return SinkStats{}, engine.Wrap(engine.KindBackend, err, "close recording file")
	}
	return SinkStats{
		VideoFrames:  s.frames,
		DurationSecs: s.lastPTS,
		BytesWritten: s.written,
	}, nil
}
