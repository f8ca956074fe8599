// Package router implements the Router Queue (spec §4.6): a debounced,
// single-flight work queue that accumulates commit text and triggers
// one inference cycle at a time, coalescing bursts rather than
// preempting an in-flight cycle.
//
// Single-flight is implemented with a notifier (buffered channel) plus
// a boolean, not a mutex held across a blocking call — spec §9's
// Design Notes call this out explicitly, and it mirrors the teacher's
// own style of signalling a worker goroutine through a channel rather
// than holding a lock across blocking work (ManagedStream's sttChan /
// events channel).
package router

import (
	"context"
	"sync"
	"time"

	"github.com/lokutor-ai/gibberish/pkg/logging"
	"github.com/lokutor-ai/gibberish/pkg/status"
)

// Cycle runs one inference cycle over the accumulated text. It must
// honor ctx cancellation (enabled -> false aborts a running cycle
// before the next decode step and before tool execution, never mid
// OS side-effect, per spec §5).
type Cycle func(ctx context.Context, text string)

// Queue is the Router Queue.
type Queue struct {
	debounce time.Duration
	cycle    Cycle
	st       *status.Pipeline
	logger   logging.Logger

	mu          sync.Mutex
	pendingText string
	enabled     bool
	inflight    bool
	cancel      context.CancelFunc

	notify chan struct{}

	doneOnce sync.Once
	stopCh   chan struct{}
}

// New builds a Queue. The worker goroutine is started by Run.
func New(debounce time.Duration, cycle Cycle, st *status.Pipeline, logger logging.Logger) *Queue {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Queue{
		debounce: debounce,
		cycle:    cycle,
		st:       st,
		logger:   logger,
		enabled:  true,
		notify:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// SetEnabled toggles whether the worker will run cycles. Disabling
// cancels any in-flight cycle's cancellation token, per spec §5.
func (q *Queue) SetEnabled(enabled bool) {
	q.mu.Lock()
	q.enabled = enabled
	var cancel context.CancelFunc
	if !enabled && q.cancel != nil {
		cancel = q.cancel
		q.cancel = nil
	}
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// EnqueueCommit appends text (with a separating space) to the pending
// buffer and signals the worker. Never blocks.
func (q *Queue) EnqueueCommit(text string) {
	q.mu.Lock()
	if q.pendingText == "" {
		q.pendingText = text
	} else {
		q.pendingText += " " + text
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Inflight reports whether a cycle is currently running.
func (q *Queue) Inflight() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}

// Run drives the worker loop until ctx is cancelled or Stop is called.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-q.notify:
		}

		select {
		case <-time.After(q.debounce):
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		}

		q.runOneCycleIfPending(ctx)
	}
}

func (q *Queue) runOneCycleIfPending(parent context.Context) {
	q.mu.Lock()
	if q.pendingText == "" || !q.enabled {
		q.mu.Unlock()
		return
	}
	text := q.pendingText
	q.pendingText = ""
	q.inflight = true
	cycleCtx, cancel := context.WithCancel(parent)
	q.cancel = cancel
	q.mu.Unlock()

	if q.st != nil {
		q.st.SetRouterInflight(true)
	}

	// The blocking call happens with no lock held, per spec §5/§9.
	q.cycle(cycleCtx, text)

	q.mu.Lock()
	q.inflight = false
	q.cancel = nil
	q.mu.Unlock()

	if q.st != nil {
		q.st.SetRouterInflight(false)
	}
}

// Stop halts the worker loop.
func (q *Queue) Stop() {
	q.doneOnce.Do(func() { close(q.stopCh) })
}
