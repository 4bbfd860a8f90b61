// Package resilience wraps store calls with retries and rate limits.
//
//	rows, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(),
//	    func(ctx context.Context) ([]Record, error) { return store.Find(ctx, q) })
//
// DefaultRetryIf retries AppErrors marked Retryable and plain errors, never
// context cancellation.
package resilience
