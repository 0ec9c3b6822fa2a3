package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkazmirchuk/workbot/internal/chat"
)

// Handler consumes one inbound event.
type Handler interface {
	Handle(ctx context.Context, ev chat.Event) error
}

var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher serializes events per session: each session gets its own queue
// and worker goroutine, so no two events for one session ever run
// concurrently, while distinct sessions proceed in parallel. Queues are
// created on demand and reaped once idle.
type Dispatcher struct {
	handler   Handler
	logger    *slog.Logger
	queueSize int
	idleAfter time.Duration

	mu      sync.Mutex
	queues  map[string]*sessionQueue
	closed  bool
	baseCtx context.Context
	wg      sync.WaitGroup

	// sendMu fences channel closes against in-flight Submit sends: Submit
	// holds it shared for the send, closers hold it exclusively, so a queue
	// channel is never closed underneath a pending send.
	sendMu sync.RWMutex
}

type sessionQueue struct {
	ch         chan chat.Event
	lastActive atomic.Int64 // unix nanos
	inFlight   atomic.Bool
}

func (q *sessionQueue) touch() {
	q.lastActive.Store(time.Now().UnixNano())
}

func NewDispatcher(handler Handler, logger *slog.Logger, queueSize int, idleAfter time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 16
	}
	if idleAfter <= 0 {
		idleAfter = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handler:   handler,
		logger:    logger.With("component", "dispatcher"),
		queueSize: queueSize,
		idleAfter: idleAfter,
		queues:    make(map[string]*sessionQueue),
		baseCtx:   context.Background(),
	}
}

// Start wires the lifecycle context and begins reaping idle session queues.
func (d *Dispatcher) Start(ctx context.Context, reapInterval time.Duration) {
	if reapInterval <= 0 {
		reapInterval = 30 * time.Second
	}
	d.mu.Lock()
	d.baseCtx = ctx
	d.mu.Unlock()

	ticker := time.NewTicker(reapInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				d.Close()
				return
			case <-ticker.C:
				d.reapIdle()
			}
		}
	}()
}

// Submit enqueues the event for its session's worker, blocking when the
// queue is full so the transport experiences backpressure instead of
// reordering.
func (d *Dispatcher) Submit(ctx context.Context, ev chat.Event) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	q, ok := d.queues[ev.SessionID]
	if !ok {
		q = &sessionQueue{ch: make(chan chat.Event, d.queueSize)}
		q.touch()
		d.queues[ev.SessionID] = q
		d.wg.Add(1)
		go d.runWorker(ev.SessionID, q)
	}
	q.touch()
	d.mu.Unlock()

	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	if d.isClosed() {
		// Close won the race between the queue lookup and the send.
		return ErrDispatcherClosed
	}
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dispatcher) runWorker(sessionID string, q *sessionQueue) {
	defer d.wg.Done()
	d.mu.Lock()
	ctx := d.baseCtx
	d.mu.Unlock()
	for ev := range q.ch {
		q.inFlight.Store(true)
		if err := d.handler.Handle(ctx, ev); err != nil {
			d.logger.Warn("event handling failed",
				"session_id", sessionID,
				"kind", string(ev.Kind),
				"error", err)
		}
		q.inFlight.Store(false)
		q.touch()
	}
}

// reapIdle closes queues that have been quiet for the idle window. A worker
// that is mid-event is never reaped: its queue reports inFlight.
func (d *Dispatcher) reapIdle() {
	cutoff := time.Now().Add(-d.idleAfter).UnixNano()
	var victims []*sessionQueue
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	for id, q := range d.queues {
		if q.inFlight.Load() || len(q.ch) > 0 {
			continue
		}
		if q.lastActive.Load() > cutoff {
			continue
		}
		victims = append(victims, q)
		delete(d.queues, id)
	}
	d.mu.Unlock()
	if len(victims) == 0 {
		return
	}

	d.sendMu.Lock()
	for _, q := range victims {
		close(q.ch)
	}
	d.sendMu.Unlock()
}

// Close stops accepting events, drains every queue, and waits for workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	victims := make([]*sessionQueue, 0, len(d.queues))
	for id, q := range d.queues {
		victims = append(victims, q)
		delete(d.queues, id)
	}
	d.mu.Unlock()

	d.sendMu.Lock()
	for _, q := range victims {
		close(q.ch)
	}
	d.sendMu.Unlock()
	d.wg.Wait()
}

// ActiveSessions reports the number of live session queues.
func (d *Dispatcher) ActiveSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
