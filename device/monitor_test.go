package device

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutableVideoScanner struct {
	mu      sync.Mutex
	devices []Info
}

func (m *mutableVideoScanner) ScanVideo() ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mutableVideoScanner) set(devices []Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

func TestUnboundedEventsPushPopFIFO(t *testing.T) {
	var q unboundedEvents

	_, ok := q.tryPop()
	assert.False(t, ok)

	q.push(Event{Kind: EventConnected, ID: "a"})
	q.push(Event{Kind: EventConnected, ID: "b"})

	e1, ok := q.tryPop()
	require.True(t, ok)
	assert.Equal(t, "a", e1.ID)

	e2 := q.pop()
	assert.Equal(t, "b", e2.ID)
}

func TestUnboundedEventsWaitForEventBlocksUntilPush(t *testing.T) {
	var q unboundedEvents

	got := make(chan Event, 1)
	go func() { got <- q.pop() }()

	time.Sleep(20 * time.Millisecond)
	q.push(Event{Kind: EventDisconnected, ID: "x"})

	select {
	case e := <-got:
		assert.Equal(t, "x", e.ID)
	case <-time.After(time.Second):
		t.Fatal("wait for event did not wake on push")
	}
}

func TestMonitorDetectsConnectAndDisconnect(t *testing.T) {
	scanner := &mutableVideoScanner{devices: []Info{{ID: "v1", Name: "Alpha", IsDefault: true}}}
	reg := NewRegistry(scanner, nil)
	mon := &Monitor{registry: reg}

	mon.tick()
	_, ok := mon.PollEvent()
	assert.False(t, ok, "first tick only establishes the baseline, no events")

	scanner.set([]Info{
		{ID: "v1", Name: "Alpha", IsDefault: true},
		{ID: "v2", Name: "Beta"},
	})
	mon.tick()

	evt := mon.WaitForEvent()
	assert.Equal(t, EventConnected, evt.Kind)
	assert.Equal(t, "v2", evt.ID)

	scanner.set([]Info{{ID: "v2", Name: "Beta"}})
	mon.tick()

	evt = mon.WaitForEvent()
	assert.Equal(t, EventDisconnected, evt.Kind)
	assert.Equal(t, "v1", evt.ID)
}

func TestTriggerScanIsRateLimited(t *testing.T) {
	scanner := &mutableVideoScanner{devices: []Info{{ID: "v1", Name: "Alpha", IsDefault: true}}}
	reg := NewRegistry(scanner, nil)
	mon := &Monitor{registry: reg}

	assert.True(t, mon.TriggerScan())
	assert.False(t, mon.TriggerScan(), "a second immediate trigger must be throttled")
}

func TestMonitorStartStopIdempotent(t *testing.T) {
	scanner := &mutableVideoScanner{}
	reg := NewRegistry(scanner, nil)
	mon := NewMonitor(reg)

	mon.Start()
	mon.Start()
	time.Sleep(10 * time.Millisecond)
	mon.Stop()
	mon.Stop()
}
