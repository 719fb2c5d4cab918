// Package queue serializes outbound meeting-provider calls through a
// single in-process FIFO worker with fixed spacing between calls and
// exponential backoff on rate-limit errors.
package queue

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"eduplatform/errors"
	"eduplatform/logger"
)

// Options tune the queue. Zero values fall back to defaults.
type Options struct {
	// BaseDelay is the minimum spacing between consecutive calls.
	BaseDelay time.Duration
	// MaxJitter is added (randomly, up to this value) to BaseDelay.
	MaxJitter time.Duration
	// RetryBase is the first backoff delay after a rate-limit error;
	// it doubles per attempt up to RetryCap.
	RetryBase  time.Duration
	RetryCap   time.Duration
	MaxRetries int
}

const (
	defaultBaseDelay  = 400 * time.Millisecond
	defaultMaxJitter  = 120 * time.Millisecond
	defaultRetryBase  = time.Second
	defaultRetryCap   = 30 * time.Second
	defaultMaxRetries = 5
)

func (o Options) withDefaults() Options {
	if o.BaseDelay <= 0 {
		o.BaseDelay = defaultBaseDelay
	}
	if o.MaxJitter <= 0 {
		o.MaxJitter = defaultMaxJitter
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RetryCap <= 0 {
		o.RetryCap = defaultRetryCap
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	return o
}

type task struct {
	ctx      context.Context
	call     func(context.Context) error
	attempts int
	done     chan error
}

// Queue is a FIFO of deferred calls drained by at most one worker. The
// worker starts lazily on the first enqueue and stops once the queue
// drains.
type Queue struct {
	opts Options

	mu      sync.Mutex
	tasks   []*task
	running bool
}

// New creates a queue with the given options.
func New(opts Options) *Queue {
	return &Queue{opts: opts.withDefaults()}
}

// Do enqueues call and blocks until it completes, is retried to
// success, exhausts its retries, or ctx is cancelled while waiting.
// Rate-limit errors (errors.RateLimited) are retried internally with
// exponential backoff; any other error propagates immediately.
func (q *Queue) Do(ctx context.Context, call func(context.Context) error) error {
	t := &task{ctx: ctx, call: call, done: make(chan error, 1)}
	q.enqueue(t)

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) enqueue(t *task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	if !q.running {
		q.running = true
		go q.drain()
	}
	q.mu.Unlock()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		t := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.process(t)

		// Fixed spacing plus jitter before the next call.
		time.Sleep(q.opts.BaseDelay + q.jitter())
	}
}

func (q *Queue) process(t *task) {
	if err := t.ctx.Err(); err != nil {
		t.done <- err
		return
	}

	err := t.call(t.ctx)
	if err == nil {
		t.done <- nil
		return
	}

	if !errors.IsKind(err, errors.RateLimited) {
		t.done <- err
		return
	}

	t.attempts++
	if t.attempts >= q.opts.MaxRetries {
		logger.Warn("Call dropped after %d rate-limited attempts", t.attempts)
		t.done <- err
		return
	}

	// Doubling backoff, capped, plus jitter. The task re-enters the
	// queue so the worker restarts if it has drained by then.
	backoff := time.Duration(math.Pow(2, float64(t.attempts-1))) * q.opts.RetryBase
	if backoff > q.opts.RetryCap {
		backoff = q.opts.RetryCap
	}
	backoff += q.jitter()
	logger.Info("Rate limited, retrying call in %s (attempt %d/%d)", backoff, t.attempts, q.opts.MaxRetries)
	time.AfterFunc(backoff, func() {
		q.enqueue(t)
	})
}

func (q *Queue) jitter() time.Duration {
	return time.Duration(rand.Int63n(int64(q.opts.MaxJitter)))
}

// Len returns the number of queued (not in-flight) calls.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
