package device

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconnectQueuePrioritizesReconnectOverRescan(t *testing.T) {
	q := NewReconnectQueue(time.Millisecond)
	q.Start()
	defer q.Stop()

	var mu sync.Mutex
	var order []string

	var wg sync.WaitGroup
	wg.Add(2)

	// Submit the rescan first; the queue must still run reconnect first
	// since it has higher priority.
	go func() {
		defer wg.Done()
		require.NoError(t, q.SubmitRescan("cam1", func() error {
			mu.Lock()
			order = append(order, "rescan")
			mu.Unlock()
			return nil
		}))
	}()
	time.Sleep(5 * time.Millisecond)
	go func() {
		defer wg.Done()
		require.NoError(t, q.SubmitReconnect("cam1", func() error {
			mu.Lock()
			order = append(order, "reconnect")
			mu.Unlock()
			return nil
		}))
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 2)
	assert.Equal(t, "reconnect", order[0])
}

func TestReconnectQueueStopCancelsPending(t *testing.T) {
	q := NewReconnectQueue(time.Hour)

	done := make(chan error, 1)
	go func() {
		done <- q.SubmitReconnect("cam1", func() error { return nil })
	}()

	time.Sleep(5 * time.Millisecond)
	q.Start()
	q.Stop()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("submit did not unblock after Stop")
	}
}
