package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelaySequenceCapsAt2s(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDelay(1))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(2))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(3))
	assert.Equal(t, 800*time.Millisecond, backoffDelay(4))
	assert.Equal(t, 1600*time.Millisecond, backoffDelay(5))
	assert.Equal(t, 2000*time.Millisecond, backoffDelay(6))
	assert.Equal(t, 2000*time.Millisecond, backoffDelay(20))
}

func TestReconnectWithBackoffSucceedsEventually(t *testing.T) {
	attempts := 0
	open := func(ctx context.Context, deviceID string) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("not ready")
		}
		return 42, nil
	}

	v, err := ReconnectWithBackoff(context.Background(), "dev", 0, open)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, attempts)
}

func TestReconnectWithBackoffRespectsMaxAttempts(t *testing.T) {
	attempts := 0
	open := func(ctx context.Context, deviceID string) (int, error) {
		attempts++
		return 0, errors.New("always fails")
	}

	_, err := ReconnectWithBackoff(context.Background(), "dev", 2, open)
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestReconnectWithBackoffRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	open := func(ctx context.Context, deviceID string) (int, error) {
		return 0, errors.New("always fails")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := ReconnectWithBackoff(ctx, "dev", 0, open)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
