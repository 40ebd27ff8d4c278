package device

import (
	"context"
	"math"
	"time"
)

// backoffDelay returns the exponential backoff delay before reconnect
// attempt n (1-indexed): min(100·2^(n-1), 2000) ms.
func backoffDelay(attempt int) time.Duration {
	ms := 100 * math.Pow(2, float64(attempt-1))
	if ms > 2000 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}

// Opener opens a device by ID, returning a handle of type T or an error.
// video.CaptureWithReconnect adapts video.Open to this shape.
type Opener[T any] func(ctx context.Context, deviceID string) (T, error)

// ReconnectWithBackoff retries open until it succeeds, ctx is cancelled, or
// maxAttempts is exhausted (0 means unlimited). Delays follow backoffDelay.
func ReconnectWithBackoff[T any](ctx context.Context, deviceID string, maxAttempts int, open Opener[T]) (T, error) {
	var zero T
	attempt := 0
	for {
		attempt++
		handle, err := open(ctx, deviceID)
		if err == nil {
			return handle, nil
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoffDelay(attempt)):
		}
	}
}
