package iterator

import (
	"context"
	stderrors "errors"
	"iter"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
	"github.com/kbukum/pageiter/resilience"
)

// Store is the record source an iterator pages through.
type Store[T any] interface {
	// Count returns the number of records matching where.
	Count(ctx context.Context, where query.Filter) (int, error)
	// Find returns the records of q's window in a stable order.
	Find(ctx context.Context, q query.Query) ([]T, error)
}

// Status is a snapshot of the pager. ItemsTotal and PageTotal are -1 until
// the iterator is initialized.
type Status struct {
	ItemsFrom   int  `json:"items_from"`
	ItemsTo     int  `json:"items_to"`
	ItemsTotal  int  `json:"items_total"`
	PageTotal   int  `json:"page_total"`
	CurrentItem int  `json:"current_item"`
	Initialized bool `json:"initialized"`
}

// Iterator lazily pages through the records of a query. It is not safe for
// concurrent use; independent iterators over one store are.
type Iterator[T any] struct {
	store   Store[T]
	query   query.Query
	opts    options
	log     *logger.Logger
	limiter *resilience.RateLimiter

	itemsFrom   int
	itemsTo     int
	itemsTotal  int
	pageTotal   int
	currentItem int
	buffer      []T
	initialized bool
	// exhausted is set by Close or by an empty page.
	exhausted bool
}

// New returns an iterator over the records of q. q is copied; the caller may
// reuse it. Invalid options or a negative window yield INVALID_INPUT.
func New[T any](store Store[T], q query.Query, opts ...Option) (*Iterator[T], error) {
	if store == nil {
		return nil, errors.InvalidInput("store", "store is required")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	return &Iterator[T]{
		store:      store,
		query:      q.Page(q.Skip, q.Limit),
		opts:       o,
		log:        o.log,
		limiter:    resilience.NewRateLimiter(o.RateLimit),
		itemsFrom:  q.Skip,
		itemsTo:    q.Skip,
		itemsTotal: -1,
		pageTotal:  -1,
	}, nil
}

// Initialize counts the matching records once. Later calls return nil
// without I/O. On failure the iterator stays uninitialized and the next call
// counts again.
func (it *Iterator[T]) Initialize(ctx context.Context) (err error) {
	if it.initialized {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanIteratorCount)
	defer func() { observability.EndSpan(span, err) }()

	count, err := callStore(ctx, it, "count", func(ctx context.Context) (int, error) {
		return it.store.Count(ctx, it.query.Where)
	})
	if err != nil {
		return err
	}

	total := count
	if it.query.Limit > 0 {
		total = min(count, it.query.Limit)
	}
	it.itemsTotal = total
	it.pageTotal = (total + it.opts.BatchSize - 1) / it.opts.BatchSize
	it.initialized = true
	span.SetAttributes(attribute.Int(observability.AttrItemsTotal, total))

	it.log.WithContext(ctx).Debug("iterator initialized", logger.Fields(
		logger.FieldItemsTotal, it.itemsTotal,
		logger.FieldPageTotal, it.pageTotal,
	))
	return nil
}

// Next returns the next record. At the end of the sequence it returns
// ok == false and a nil error, on every later call too. Next initializes the
// iterator if needed. A failed fetch leaves the pager unchanged, so Next may
// be called again.
func (it *Iterator[T]) Next(ctx context.Context) (item T, ok bool, err error) {
	if it.exhausted {
		return item, false, nil
	}
	if err := it.Initialize(ctx); err != nil {
		return item, false, err
	}
	if it.currentItem >= it.itemsTotal {
		return item, false, nil
	}

	if len(it.buffer) == 0 {
		if err := it.fetch(ctx); err != nil {
			return item, false, err
		}
		if len(it.buffer) == 0 {
			// The store shrank after Count.
			it.exhausted = true
			return item, false, nil
		}
	}

	item = it.buffer[0]
	var zero T
	it.buffer[0] = zero
	it.buffer = it.buffer[1:]
	it.currentItem++
	it.opts.metrics.ItemYielded(ctx)
	return item, true, nil
}

func (it *Iterator[T]) fetch(ctx context.Context) (err error) {
	page := it.query.Page(it.itemsTo, it.opts.BatchSize)

	ctx, span := observability.StartSpan(ctx, observability.SpanIteratorFetch)
	span.SetAttributes(
		attribute.Int(observability.AttrSkip, page.Skip),
		attribute.Int(observability.AttrLimit, page.Limit),
	)
	defer func() { observability.EndSpan(span, err) }()

	if it.log.Enabled(zerolog.DebugLevel) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		it.log.WithContext(ctx).Debug("fetching next batch", logger.Fields(
			logger.FieldCurrentItem, it.currentItem,
			logger.FieldItemsFrom, page.Skip,
			"heap_mb", float64(mem.HeapAlloc)/1024/1024,
		))
	}

	start := time.Now()
	records, err := callStore(ctx, it, "find", func(ctx context.Context) ([]T, error) {
		return it.store.Find(ctx, page)
	})
	if err != nil {
		return err
	}
	it.opts.metrics.PageFetched(ctx, time.Since(start))
	span.SetAttributes(attribute.Int(observability.AttrItems, len(records)))

	it.itemsFrom = page.Skip
	it.itemsTo = page.Skip + len(records)
	it.buffer = records
	return nil
}

// callStore runs one store operation behind the rate limiter and retry
// policy and maps its error: context errors become CANCELED, everything else
// STORE_ERROR.
func callStore[T, R any](ctx context.Context, it *Iterator[T], op string, fn func(context.Context) (R, error)) (R, error) {
	attempt := func(ctx context.Context) (R, error) {
		if err := it.limiter.Wait(ctx); err != nil {
			var zero R
			return zero, classify(op, err)
		}
		r, err := fn(ctx)
		if err != nil {
			return r, classify(op, err)
		}
		return r, nil
	}

	var (
		r   R
		err error
	)
	if it.opts.Retry.Enabled() {
		cfg := it.opts.Retry
		cfg.OnRetry = func(n int, err error, backoff time.Duration) {
			it.log.WithContext(ctx).Warn("retrying store call", logger.Fields(
				logger.FieldOperation, op,
				logger.FieldError, err.Error(),
				"attempt", n,
				"backoff_ms", backoff.Milliseconds(),
			))
		}
		r, err = resilience.Retry(ctx, cfg, attempt)
	} else {
		r, err = attempt(ctx)
	}

	if err != nil {
		// Retry returns a bare context error when ctx ends between attempts.
		err = classify(op, err)
		if !errors.HasCode(err, errors.ErrCodeCanceled) {
			it.opts.metrics.StoreError(ctx, op)
		}
		it.log.WithContext(ctx).Error("store call failed", logger.ErrorFields(op, err))
	}
	return r, err
}

func classify(op string, err error) error {
	if errors.HasCode(err, errors.ErrCodeStore) || errors.HasCode(err, errors.ErrCodeCanceled) {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Canceled(err).WithDetail("operation", op)
	}
	return errors.StoreError(op, err)
}

// Status returns a snapshot of the pager.
func (it *Iterator[T]) Status() Status {
	return Status{
		ItemsFrom:   it.itemsFrom,
		ItemsTo:     it.itemsTo,
		ItemsTotal:  it.itemsTotal,
		PageTotal:   it.pageTotal,
		CurrentItem: it.currentItem,
		Initialized: it.initialized,
	}
}

// Close drops buffered records and ends the sequence. It always returns nil.
func (it *Iterator[T]) Close() error {
	it.buffer = nil
	it.exhausted = true
	return nil
}

// All adapts Next to a range loop. A failure is yielded once as the error
// and ends the loop.
//
//	for rec, err := range it.All(ctx) {
//	    if err != nil { return err }
//	    ...
//	}
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, ok, err := it.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok || !yield(item, nil) {
				return
			}
		}
	}
}
