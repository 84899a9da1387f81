package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

const (
	DefaultQueueSize = 256
	DefaultWorkers   = 2
	// DefaultDeliveryTimeout bounds one delivery, retries included.
	DefaultDeliveryTimeout = 30 * time.Second
)

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("dispatcher closed")

// Async is a ports.Dispatcher that queues submissions and delivers them
// from background workers. Dispatch never blocks: when the queue is full
// the submission is dropped and counted.
type Async struct {
	next    ports.Deliverer
	queue   chan domain.Submission
	workers int
	timeout time.Duration
	logger  *slog.Logger
	onDrop  func(domain.Submission)
	onError func(domain.Submission, error)

	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	failed  atomic.Int64
}

// AsyncOption configures Async.
type AsyncOption func(*Async)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.queue = make(chan domain.Submission, n)
		}
	}
}

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithDeliveryTimeout bounds each delivery.
func WithDeliveryTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger used for drops and failures.
func WithLogger(l *slog.Logger) AsyncOption {
	return func(a *Async) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDropHandler is called for every submission dropped on a full queue.
func WithDropHandler(fn func(domain.Submission)) AsyncOption {
	return func(a *Async) {
		a.onDrop = fn
	}
}

// WithErrorHandler is called for every failed delivery.
func WithErrorHandler(fn func(domain.Submission, error)) AsyncOption {
	return func(a *Async) {
		a.onError = fn
	}
}

// NewAsync starts the workers. Call Close to drain the queue and stop them.
func NewAsync(next ports.Deliverer, opts ...AsyncOption) *Async {
	a := &Async{
		next:    next,
		queue:   make(chan domain.Submission, DefaultQueueSize),
		workers: DefaultWorkers,
		timeout: DefaultDeliveryTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	for range a.workers {
		a.wg.Add(1)
		go a.work()
	}
	return a
}

// Dispatch enqueues sub without waiting. The caller's context is not
// carried over: the run is already finished and delivery outlives it.
func (a *Async) Dispatch(_ context.Context, sub domain.Submission) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.drop(sub, "closed")
		return
	}
	select {
	case a.queue <- sub:
	default:
		a.drop(sub, "queue full")
	}
}

func (a *Async) drop(sub domain.Submission, reason string) {
	a.dropped.Add(1)
	a.logger.Warn("submission dropped", "run", sub.RunID, "quiz", sub.QuizID, "reason", reason)
	if a.onDrop != nil {
		a.onDrop(sub)
	}
}

func (a *Async) work() {
	defer a.wg.Done()
	for sub := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.next.Deliver(ctx, sub)
		cancel()
		if err != nil {
			a.failed.Add(1)
			a.logger.Error("submission delivery failed", "run", sub.RunID, "quiz", sub.QuizID, "err", err)
			if a.onError != nil {
				a.onError(sub, err)
			}
			continue
		}
		a.logger.Debug("submission delivered", "run", sub.RunID, "quiz", sub.QuizID)
	}
}

// Dropped is the number of submissions discarded so far.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Failed is the number of deliveries that returned an error.
func (a *Async) Failed() int64 { return a.failed.Load() }

// Close stops accepting submissions and waits for queued ones to be
// delivered, or for ctx to be done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
