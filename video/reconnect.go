package video

import (
	"context"

	"github.com/ethan/camcore/clock"
	"github.com/ethan/camcore/device"
)

// CaptureWithReconnect opens deviceID with exponential backoff, retrying
// open failures the way the teacher's extendWithRetry retries a failed
// stream extension. maxAttempts of 0 means retry forever until ctx is
// cancelled.
func CaptureWithReconnect(ctx context.Context, deviceID string, deviceIndex int, format TargetFormat, pts clock.PTS, queueCapacity, maxAttempts int) (*Capture, error) {
	open := func(_ context.Context, id string) (*Capture, error) {
		return Open(id, deviceIndex, format, pts, queueCapacity)
	}
	return device.ReconnectWithBackoff(ctx, deviceID, maxAttempts, open)
}
