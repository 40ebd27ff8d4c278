package video

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/camcore/clock"
)

func TestCaptureWithReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	// Device index -1 can never open via gocv, so every attempt fails; this
	// exercises the retry-and-give-up path without a real camera.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := CaptureWithReconnect(ctx, "missing", -1, TargetFormat{Width: 16, Height: 16, FPS: 30}, clock.New(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open video device")
}
