package iterator

import (
	"time"

	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/resilience"
	"github.com/kbukum/pageiter/validation"
)

// Defaults.
const (
	DefaultBatchSize         = 100
	DefaultMaxQueueLength    = 50
	DefaultQueueWaitInterval = 100 * time.Millisecond
	DefaultConcurrentItems   = 50
)

// Config holds the tunables of an iteration. Services load it from the
// "iterator" section of their config file.
type Config struct {
	// BatchSize is the number of records fetched per page.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
	// MaxQueueLength is the queue depth at which ForEachAsync stops
	// fetching until workers catch up.
	MaxQueueLength int `yaml:"max_queue_length" mapstructure:"max_queue_length" validate:"gt=0"`
	// QueueWaitInterval is accepted for compatibility. Queue waits wake on
	// state changes and never poll.
	QueueWaitInterval time.Duration `yaml:"queue_wait_interval" mapstructure:"queue_wait_interval" validate:"gte=0"`
	// ConcurrentItems is the number of work functions run at once.
	ConcurrentItems int `yaml:"concurrent_items" mapstructure:"concurrent_items" validate:"gt=0"`

	Retry     resilience.RetryConfig     `yaml:"retry" mapstructure:"retry"`
	RateLimit resilience.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:         DefaultBatchSize,
		MaxQueueLength:    DefaultMaxQueueLength,
		QueueWaitInterval: DefaultQueueWaitInterval,
		ConcurrentItems:   DefaultConcurrentItems,
	}
}

// ApplyDefaults fills zero sizes with the defaults.
func (c *Config) ApplyDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxQueueLength == 0 {
		c.MaxQueueLength = DefaultMaxQueueLength
	}
	if c.QueueWaitInterval == 0 {
		c.QueueWaitInterval = DefaultQueueWaitInterval
	}
	if c.ConcurrentItems == 0 {
		c.ConcurrentItems = DefaultConcurrentItems
	}
}

// Validate rejects non-positive sizes and a negative wait interval.
func (c Config) Validate() error {
	return validation.Validate(c)
}

// Option customizes an iterator.
type Option func(*options)

type options struct {
	Config
	log     *logger.Logger
	metrics *observability.Metrics
}

func newOptions(opts []Option) options {
	o := options{Config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("iterator")
	}
	return o
}

// WithBatchSize sets the page size.
func WithBatchSize(n int) Option {
	return func(o *options) { o.BatchSize = n }
}

// WithMaxQueueLength sets the ForEachAsync backpressure ceiling.
func WithMaxQueueLength(n int) Option {
	return func(o *options) { o.MaxQueueLength = n }
}

// WithQueueWaitInterval is kept for configuration compatibility; the value
// is validated but waits are event driven.
func WithQueueWaitInterval(d time.Duration) Option {
	return func(o *options) { o.QueueWaitInterval = d }
}

// WithConcurrentItems sets how many work functions ForEachAsync runs at once.
func WithConcurrentItems(n int) Option {
	return func(o *options) { o.ConcurrentItems = n }
}

// WithRetry retries failed Count and Find calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.Retry = cfg }
}

// WithRateLimit caps store calls per second.
func WithRateLimit(cfg resilience.RateLimitConfig) Option {
	return func(o *options) { o.RateLimit = cfg }
}

// WithConfig replaces every tunable with cfg. Zero sizes in cfg take the
// defaults.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		cfg.ApplyDefaults()
		o.Config = cfg
	}
}

// WithLogger sets the logger. The default is the "iterator" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records fetches, yields and queue activity on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}
