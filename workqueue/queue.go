package workqueue

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
)

// Func processes one item. ctx is the context passed to Submit.
type Func[T any] func(ctx context.Context, item T) error

// Stats is a snapshot of the queue counters.
type Stats struct {
	Pending   int
	Running   int
	Completed int
	Failed    int
	// Dropped counts queued items discarded after a fatal error.
	Dropped int
	// Rejected counts Submit calls refused after a fatal error or Close.
	Rejected int
}

type entry[T any] struct {
	ctx  context.Context
	item T
	seq  int // 1-based submission number
}

// Queue is a bounded worker pool. It is safe for concurrent use; Close must
// be called to release the dispatcher goroutine.
type Queue[T any] struct {
	fn      Func[T]
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
	workers *pool.Pool

	mu      sync.Mutex
	queue   []entry[T]
	handoff int // popped by the dispatcher, not yet started
	running int
	seq     int
	stats   Stats
	err     error
	closed  bool
	changed chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// New validates cfg and starts the dispatcher.
func New[T any](fn Func[T], cfg Config, opts ...Option) (*Queue[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("workqueue")
	}

	q := &Queue[T]{
		fn:      fn,
		cfg:     cfg,
		log:     o.log,
		metrics: o.metrics,
		workers: pool.New().WithMaxGoroutines(cfg.Capacity),
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.dispatch()
	return q, nil
}

// Submit queues item for processing and reports whether it was accepted.
// Items are refused once the queue has a fatal error or is closed.
func (q *Queue[T]) Submit(ctx context.Context, item T) bool {
	q.mu.Lock()
	if q.err != nil || q.closed {
		q.stats.Rejected++
		q.mu.Unlock()
		return false
	}
	q.seq++
	q.queue = append(q.queue, entry[T]{ctx: ctx, item: item, seq: q.seq})
	q.notifyLocked()
	q.mu.Unlock()

	q.metrics.ItemSubmitted(ctx)
	return true
}

// AwaitAdmission blocks until pending plus running items are at or below the
// admission limit. It returns the fatal error if one is recorded, or ctx's
// error if ctx ends first.
func (q *Queue[T]) AwaitAdmission(ctx context.Context) error {
	return q.await(ctx, func() bool {
		return q.depthLocked() <= q.cfg.AdmissionLimit
	}, true)
}

// AwaitDrain blocks until nothing is pending or running and returns the
// fatal error, if any.
func (q *Queue[T]) AwaitDrain(ctx context.Context) error {
	if err := q.await(ctx, func() bool { return q.depthLocked() == 0 }, false); err != nil {
		return err
	}
	return q.Err()
}

func (q *Queue[T]) await(ctx context.Context, ready func() bool, stopOnErr bool) error {
	for {
		q.mu.Lock()
		if stopOnErr && q.err != nil {
			err := q.err
			q.mu.Unlock()
			return err
		}
		if ready() {
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Err returns the fatal error, or nil.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Fail records err as the fatal error unless one is already set, and
// reports whether it was recorded. Queued items are discarded.
func (q *Queue[T]) Fail(err error) bool {
	if err == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failLocked(err)
}

// Stats returns a snapshot of the counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := q.stats
	s.Pending = len(q.queue) + q.handoff
	s.Running = q.running
	return s
}

// Close stops accepting items, lets queued items start, and waits for every
// started work function to return. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.notifyLocked()
		q.mu.Unlock()

		<-q.done
		q.workers.Wait()
	})
}

func (q *Queue[T]) depthLocked() int {
	return len(q.queue) + q.handoff + q.running
}

// notifyLocked wakes every waiter by closing the current change channel.
func (q *Queue[T]) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *Queue[T]) failLocked(err error) bool {
	if q.err != nil {
		return false
	}
	q.err = err
	dropped := len(q.queue)
	for _, e := range q.queue {
		q.metrics.ItemsDropped(e.ctx, 1)
	}
	q.queue = nil
	q.stats.Dropped += dropped
	q.notifyLocked()

	q.log.Warn("work queue failed", logger.Fields(
		logger.FieldError, err.Error(),
		"dropped", dropped,
		"running", q.running,
	))
	return true
}

// dispatch hands queued items to the pool in order. pool.Go blocks while
// Capacity workers are busy.
func (q *Queue[T]) dispatch() {
	defer close(q.done)
	for {
		e, ok := q.next()
		if !ok {
			return
		}
		q.workers.Go(func() { q.run(e) })
	}
}

func (q *Queue[T]) next() (entry[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.queue) == 0 {
		if q.closed {
			return entry[T]{}, false
		}
		changed := q.changed
		q.mu.Unlock()
		<-changed
		q.mu.Lock()
	}
	e := q.queue[0]
	q.queue[0] = entry[T]{}
	q.queue = q.queue[1:]
	q.handoff++
	return e, true
}

func (q *Queue[T]) run(e entry[T]) {
	q.mu.Lock()
	q.handoff--
	if q.err != nil {
		q.stats.Dropped++
		q.notifyLocked()
		q.mu.Unlock()
		q.metrics.ItemsDropped(e.ctx, 1)
		return
	}
	q.running++
	q.notifyLocked()
	q.mu.Unlock()

	var err error
	if r := panics.Try(func() { err = q.fn(e.ctx, e.item) }); r != nil {
		err = r.AsError()
		q.log.Error("work function panicked", logger.Fields(logger.FieldError, err.Error(), "item", e.seq))
	}
	if err != nil {
		err = errors.WorkError(e.seq, err)
	}

	q.mu.Lock()
	q.running--
	if err != nil {
		q.stats.Failed++
		q.failLocked(err)
	} else {
		q.stats.Completed++
	}
	q.notifyLocked()
	q.mu.Unlock()

	q.metrics.ItemFinished(e.ctx, err)
}
