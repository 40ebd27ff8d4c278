package record

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSinkRoundTripsFrameCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.WriteVideo(0.0, []byte{0, 0, 0, 1, 0x65}, true))
	require.NoError(t, sink.WriteVideo(0.033, []byte{0, 0, 0, 1, 0x41}, false))

	stats, err := sink.Finish()
	require.NoError(t, err)
	require.Equal(t, 2, stats.VideoFrames)
	require.Greater(t, stats.BytesWritten, int64(0))
}
