// Package observability wires OpenTelemetry tracing and metrics for the
// iterator and work queue, plus store health checks.
//
//	shutdown, err := observability.Init(ctx, cfg.Observability, observability.Service{Name: "pageiter"})
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter())
//	it, err := iterator.New(store, q, iterator.WithMetrics(metrics))
//
// A nil *Metrics records nothing, so instrumented code never checks for it.
package observability
