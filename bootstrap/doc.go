// Package bootstrap runs the lifecycle of a pageiter process.
//
// NewApp applies config defaults, validates, and initializes logging.
// OnStart hooks open stores, OnStop hooks close them. RunTask drives a
// finite job such as an iteration and cancels it on SIGINT or SIGTERM;
// Run blocks a long-running server until a signal arrives.
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithTelemetry(cfg.Observability))
//	app.OnStart(openDatabase)
//	app.OnStop(closeDatabase)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return items.ForEachAsync(ctx, q, work)
//	})
package bootstrap
