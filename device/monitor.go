package device

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const scanInterval = 2 * time.Second

// Monitor periodically rescans the Registry's video devices and emits
// Connected/Disconnected events for IDs that appeared or vanished since the
// last scan. Modified is reserved but never emitted by this core.
type Monitor struct {
	registry *Registry

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	triggerOnce sync.Once
	triggerLim  *rate.Limiter

	events unboundedEvents
	known  map[string]struct{}
}

// NewMonitor builds a Monitor over registry. Call Start to begin scanning.
func NewMonitor(registry *Registry) *Monitor {
	return &Monitor{registry: registry}
}

// triggerLimiter lazily builds the out-of-band scan limiter, matching the
// zero-value-usable pattern unboundedEvents uses for its sync.Cond.
func (m *Monitor) triggerLimiter() *rate.Limiter {
	m.triggerOnce.Do(func() {
		m.triggerLim = rate.NewLimiter(rate.Every(scanInterval), 1)
	})
	return m.triggerLim
}

// TriggerScan requests an immediate out-of-band rescan, for callers reacting
// to an OS hotplug notification rather than waiting for the next tick.
// Collapses to a no-op (returns false) if called more often than
// scanInterval, so a noisy hotplug source can't flood ScanVideo.
func (m *Monitor) TriggerScan() bool {
	if !m.triggerLimiter().Allow() {
		return false
	}
	m.tick()
	return true
}

// Start begins the background scan loop. Idempotent: calling Start while
// already running is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})

	m.wg.Add(1)
	go m.scanLoop(m.stopCh)
}

// Stop signals the scan loop to exit and waits for it to finish.
// Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Monitor) scanLoop(stopCh chan struct{}) {
	defer m.wg.Done()

	m.tick()

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	next, err := m.registry.snapshotVideoIDs()
	if err != nil {
		// A transient enumeration error leaves the known set untouched; the
		// next tick tries again.
		return
	}

	m.mu.Lock()
	prev := m.known
	m.known = next
	m.mu.Unlock()

	if prev == nil {
		// The first successful scan only establishes the baseline.
		return
	}

	for id := range prev {
		if _, ok := next[id]; !ok {
			m.events.push(Event{Kind: EventDisconnected, ID: id})
		}
	}
	for id := range next {
		if _, ok := prev[id]; !ok {
			m.events.push(Event{Kind: EventConnected, ID: id})
		}
	}
}

// PollEvent returns the next pending event without blocking, or ok=false if
// none is queued.
func (m *Monitor) PollEvent() (Event, bool) {
	return m.events.tryPop()
}

// WaitForEvent blocks until an event is available.
func (m *Monitor) WaitForEvent() Event {
	return m.events.pop()
}

// unboundedEvents is a FIFO of unbounded capacity guarded by a condition
// variable, mirroring the Rust monitor's mpsc::unbounded_channel: producers
// never block, and there is exactly one logical consumer queue shared by
// PollEvent and WaitForEvent.
type unboundedEvents struct {
	mu    sync.Mutex
	cond  *sync.Cond
	once  sync.Once
	items []Event
}

func (q *unboundedEvents) init() {
	q.once.Do(func() { q.cond = sync.NewCond(&q.mu) })
}

func (q *unboundedEvents) push(e Event) {
	q.init()
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *unboundedEvents) tryPop() (Event, bool) {
	q.init()
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

func (q *unboundedEvents) pop() Event {
	q.init()
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e
}
