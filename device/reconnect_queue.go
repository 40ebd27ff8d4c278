package device

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TaskKind orders work submitted to a ReconnectQueue: reconnect attempts
// always run ahead of best-effort rescans, mirroring the teacher's
// CmdExtend-before-CmdGenerate priority split in pkg/nest/queue.go.
type TaskKind int

const (
	TaskReconnect TaskKind = iota // high priority: a camera is down, bring it back
	TaskRescan                    // low priority: routine enumeration
)

// ticket is one queued unit of work with a priority and a response channel
// the submitter blocks on.
type ticket struct {
	kind      TaskKind
	deviceID  string
	timestamp time.Time
	execute   func() error
	response  chan error
	index     int
}

type ticketHeap []*ticket

func (h ticketHeap) Len() int { return len(h) }

func (h ticketHeap) Less(i, j int) bool {
	if h[i].kind != h[j].kind {
		return h[i].kind < h[j].kind
	}
	return h[i].timestamp.Before(h[j].timestamp)
}

func (h ticketHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *ticketHeap) Push(x any) {
	n := len(*h)
	t := x.(*ticket)
	t.index = n
	*h = append(*h, t)
}

func (h *ticketHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// ReconnectQueue serializes camera reconnect attempts and device rescans
// through one rate-limited worker, so a storm of disconnect events can't
// hammer the platform's device-open syscalls. Reconnects always preempt
// queued rescans.
type ReconnectQueue struct {
	limiter *rate.Limiter

	mu   sync.Mutex
	heap ticketHeap

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconnectQueue builds a queue that executes at most one task every
// minInterval.
func NewReconnectQueue(minInterval time.Duration) *ReconnectQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &ReconnectQueue{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	heap.Init(&q.heap)
	return q
}

// Start begins the worker goroutine.
func (q *ReconnectQueue) Start() {
	q.wg.Add(1)
	go q.workerLoop()
}

// Stop cancels pending work and waits for the worker to exit. Any tickets
// still queued receive context.Canceled.
func (q *ReconnectQueue) Stop() {
	q.cancel()
	q.wg.Wait()

	q.mu.Lock()
	for q.heap.Len() > 0 {
		t := heap.Pop(&q.heap).(*ticket)
		t.response <- context.Canceled
		close(t.response)
	}
	q.mu.Unlock()
}

// SubmitReconnect enqueues execute as a high-priority reconnect attempt and
// blocks until it runs or the queue is stopped.
func (q *ReconnectQueue) SubmitReconnect(deviceID string, execute func() error) error {
	return q.submit(TaskReconnect, deviceID, execute)
}

// SubmitRescan enqueues execute as a low-priority rescan.
func (q *ReconnectQueue) SubmitRescan(deviceID string, execute func() error) error {
	return q.submit(TaskRescan, deviceID, execute)
}

func (q *ReconnectQueue) submit(kind TaskKind, deviceID string, execute func() error) error {
	t := &ticket{
		kind:      kind,
		deviceID:  deviceID,
		timestamp: time.Now(),
		execute:   execute,
		response:  make(chan error, 1),
	}

	q.mu.Lock()
	heap.Push(&q.heap, t)
	q.mu.Unlock()

	select {
	case err := <-t.response:
		return err
	case <-q.ctx.Done():
		return context.Canceled
	}
}

func (q *ReconnectQueue) workerLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNext()
		}
	}
}

func (q *ReconnectQueue) processNext() {
	q.mu.Lock()
	if q.heap.Len() == 0 {
		q.mu.Unlock()
		return
	}
	t := heap.Pop(&q.heap).(*ticket)
	q.mu.Unlock()

	if err := q.limiter.Wait(q.ctx); err != nil {
		t.response <- err
		close(t.response)
		return
	}

	var err error
	if t.execute == nil {
		err = errors.New("reconnect queue: nil execute function")
	} else {
		err = t.execute()
	}
	t.response <- err
	close(t.response)
}
