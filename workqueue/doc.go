// Package workqueue runs a function over submitted items with a fixed number
// of concurrent workers and an admission gate on queue depth.
//
// Capacity bounds parallelism: at most Capacity functions run at once, and
// items are handed to workers in submission order. AdmissionLimit bounds
// depth: AwaitAdmission blocks the producer while pending plus running items
// exceed it. The two limits are independent.
//
// The first failure becomes the queue's fatal error. Work function errors and
// recovered panics are wrapped as WORK_ERROR; Fail records any other error.
// After that Submit refuses items and queued items that have not started are
// discarded. Running items finish normally.
//
//	q, err := workqueue.New(process, workqueue.Config{Capacity: 8, AdmissionLimit: 32})
//	defer q.Close()
//	for _, item := range items {
//	    q.Submit(ctx, item)
//	    if err := q.AwaitAdmission(ctx); err != nil {
//	        return err
//	    }
//	}
//	return q.AwaitDrain(ctx)
package workqueue
