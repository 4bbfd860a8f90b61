package workqueue

import (
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/validation"
)

// Config sizes a Queue.
type Config struct {
	// Capacity is the maximum number of work functions running at once.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gt=0"`
	// AdmissionLimit is the pending plus running depth above which
	// AwaitAdmission blocks.
	AdmissionLimit int `yaml:"admission_limit" mapstructure:"admission_limit" validate:"gt=0"`
}

// Validate checks both limits are positive.
func (c Config) Validate() error {
	return validation.Validate(c)
}

// Option customizes a Queue.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *observability.Metrics
}

// WithLogger sets the logger. The default is the "workqueue" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records submissions, completions and drops on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}
