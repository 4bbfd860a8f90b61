package bootstrap

import (
	"time"

	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	telemetry       *observability.Config
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. Without it the global logger is
// initialized from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds the time OnStop hooks get during shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithTelemetry installs OTLP trace and metric export on startup and
// flushes it on shutdown.
func WithTelemetry(cfg observability.Config) Option {
	return func(o *appOptions) {
		o.telemetry = &cfg
	}
}
