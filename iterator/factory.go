package iterator

import (
	"context"
	"slices"

	"github.com/kbukum/pageiter/query"
)

// Factory binds a store to default options. Per-call options are applied
// after the defaults.
//
//	items := iterator.NewFactory[Item](store, iterator.WithBatchSize(5))
//	it, err := items.Iterate(query.Query{Limit: 10})
type Factory[T any] struct {
	store    Store[T]
	defaults []Option
}

// NewFactory returns a Factory for store.
func NewFactory[T any](store Store[T], defaults ...Option) *Factory[T] {
	return &Factory[T]{store: store, defaults: defaults}
}

// Iterate returns a new iterator over q.
func (f *Factory[T]) Iterate(q query.Query, opts ...Option) (*Iterator[T], error) {
	return New(f.store, q, f.options(opts)...)
}

// ForEachAsync runs fn over the records of q.
func (f *Factory[T]) ForEachAsync(ctx context.Context, q query.Query, fn WorkFunc[T], opts ...Option) error {
	return ForEachAsync(ctx, f.store, q, fn, f.options(opts)...)
}

// Count returns the number of records matching where.
func (f *Factory[T]) Count(ctx context.Context, where query.Filter) (int, error) {
	it, err := f.Iterate(query.Query{Where: where})
	if err != nil {
		return 0, err
	}
	if err := it.Initialize(ctx); err != nil {
		return 0, err
	}
	return it.Status().ItemsTotal, nil
}

func (f *Factory[T]) options(opts []Option) []Option {
	return append(slices.Clip(f.defaults), opts...)
}
