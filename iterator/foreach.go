package iterator

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/pageiter/errors"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
	"github.com/kbukum/pageiter/workqueue"
)

// Task is one record handed to a ForEachAsync work function, with the pager
// status at the moment it was dispatched. Status.CurrentItem is the 1-based
// dispatch sequence of the record.
type Task[T any] struct {
	Item   T
	Status Status
}

// WorkFunc processes one task. Returning an error stops the iteration.
type WorkFunc[T any] func(ctx context.Context, task Task[T]) error

// ForEachAsync feeds every remaining record to fn, running up to
// ConcurrentItems calls at once. Fetching pauses while more than
// MaxQueueLength tasks are pending or running.
//
// It returns nil once every record was processed. Otherwise it returns the
// first failure: a STORE_ERROR from paging, a WORK_ERROR wrapping fn's error
// or panic, or CANCELED when ctx ends. After a failure no more records are
// fetched, queued tasks are discarded, and ForEachAsync waits for running
// calls to return before it returns.
//
// Work functions receive ctx, tagged with a run id when ctx has none.
func (it *Iterator[T]) ForEachAsync(ctx context.Context, fn WorkFunc[T]) (err error) {
	if logger.RunIDFromContext(ctx) == "" {
		ctx = logger.ContextWithRunID(ctx, uuid.NewString())
	}
	log := it.log.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, observability.SpanForEachAsync)
	defer func() { observability.EndSpan(span, err) }()

	q, err := workqueue.New(func(ctx context.Context, t Task[T]) error {
		return fn(ctx, t)
	}, workqueue.Config{
		Capacity:       it.opts.ConcurrentItems,
		AdmissionLimit: it.opts.MaxQueueLength,
	}, workqueue.WithLogger(log), workqueue.WithMetrics(it.opts.metrics))
	if err != nil {
		return err
	}
	defer q.Close()

	start := time.Now()
	if err := it.Initialize(ctx); err != nil {
		return err
	}
	log.Info("processing items", logger.Fields(
		logger.FieldItemsTotal, it.itemsTotal,
		logger.FieldPageTotal, it.pageTotal,
	))

	it.dispatch(ctx, q)

	// Running calls finish even when ctx is done.
	_ = q.AwaitDrain(context.WithoutCancel(ctx))
	err = q.Err()

	stats := q.Stats()
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldCurrentItem, it.currentItem,
		"completed", stats.Completed,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	), time.Since(start))
	if err != nil {
		log.WithError(err).Error("processing failed", fields)
		return err
	}
	log.Info("processing finished", fields)
	return nil
}

// dispatch moves records into q until the iterator ends or q fails.
func (it *Iterator[T]) dispatch(ctx context.Context, q *workqueue.Queue[Task[T]]) {
	for {
		item, ok, err := it.Next(ctx)
		if err != nil {
			q.Fail(err)
			return
		}
		if !ok {
			return
		}
		if !q.Submit(ctx, Task[T]{Item: item, Status: it.Status()}) {
			return
		}
		if err := q.AwaitAdmission(ctx); err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				q.Fail(errors.Canceled(err))
			}
			return
		}
	}
}

// ForEachAsync iterates the records of q in store and runs fn over them. It
// is New followed by (*Iterator).ForEachAsync.
func ForEachAsync[T any](ctx context.Context, store Store[T], q query.Query, fn WorkFunc[T], opts ...Option) error {
	it, err := New(store, q, opts...)
	if err != nil {
		return err
	}
	defer it.Close()
	return it.ForEachAsync(ctx, fn)
}
