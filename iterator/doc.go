// Package iterator pages lazily through the records of a Store.
//
// An Iterator counts the matching records once, then fetches BatchSize
// records at a time as Next drains its buffer. A positive query limit caps
// the total; the skip offsets only the first page.
//
//	it, err := iterator.New[Item](store, query.Query{Where: query.ParseFilter("status=eq.active")})
//	for {
//	    item, ok, err := it.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    ...
//	}
//
// ForEachAsync pushes every record through a bounded workqueue, pausing
// fetches while the queue is deeper than MaxQueueLength:
//
//	err := iterator.ForEachAsync(ctx, store, q, func(ctx context.Context, t iterator.Task[Item]) error {
//	    return index(ctx, t.Item)
//	}, iterator.WithConcurrentItems(8))
package iterator
