package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
)

// ComponentLoggers are the names NewApp registers with logger.Get, so
// packages that default to logger.Get(name) log through the app's logger.
var ComponentLoggers = []string{"iterator", "workqueue", "database", "redis", "server", "httpapi", "config"}

// App is a pageiter process with uniform lifecycle management. The type
// parameter C is the config type.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	telemetry       *observability.Config
	shutdownTel     func(context.Context) error

	onStart []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config. It applies defaults,
// validates the config, and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	app.telemetry = o.telemetry

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	logger.RegisterDefaults(app.Logger, ComponentLoggers...)
	return app, nil
}

// Run starts the application and blocks until a shutdown signal or ctx
// cancellation, then shuts down gracefully.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask starts the application, runs task, and shuts down once it
// returns. SIGINT or SIGTERM cancels the task's context. The task error
// wins over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	start := time.Now()
	taskErr := task(taskCtx)
	fields := logger.DurationFields("task", time.Since(start))
	if taskErr != nil {
		a.Logger.WithError(taskErr).Error("Task failed", fields)
	} else {
		a.Logger.Info("Task finished", fields)
	}

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App[C]) startup(ctx context.Context) error {
	a.Logger.Info("Starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
	))

	if a.telemetry != nil {
		shutdown, err := observability.Init(ctx, *a.telemetry, observability.Service{
			Name:        a.Name,
			Version:     a.Version,
			Environment: a.Cfg.GetServiceConfig().Environment,
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		a.shutdownTel = shutdown
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		// Release whatever the earlier hooks opened.
		_ = a.stop()
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	return nil
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// stop runs every OnStop hook, newest first, within the graceful timeout
// and flushes telemetry. A failing hook does not skip the rest.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.WithError(err).Error("OnStop hook error")
			errs = append(errs, err)
		}
	}
	if a.shutdownTel != nil {
		if err := a.shutdownTel(ctx); err != nil {
			a.Logger.WithError(err).Error("Telemetry shutdown error")
			errs = append(errs, err)
		}
		a.shutdownTel = nil
	}

	a.Logger.Info("Application shutdown complete")
	return stderrors.Join(errs...)
}
