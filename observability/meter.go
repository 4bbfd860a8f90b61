package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pageiter/logger"
)

// InitMeter installs a global meter provider exporting every cfg.Interval.
func InitMeter(ctx context.Context, cfg Config, svc Service) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := svc.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns the pageiter meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metric names.
const (
	MetricPagesFetched   = "iterator.pages.fetched"
	MetricItemsYielded   = "iterator.items.yielded"
	MetricStoreErrors    = "iterator.store.errors"
	MetricFetchDuration  = "iterator.fetch.duration"
	MetricItemsSubmitted = "workqueue.items.submitted"
	MetricItemsCompleted = "workqueue.items.completed"
	MetricItemsFailed    = "workqueue.items.failed"
	MetricItemsDropped   = "workqueue.items.dropped"
	MetricWorkqueueDepth = "workqueue.depth"
)

// Metrics holds the iterator and work queue instruments. Every method is
// safe on a nil *Metrics and records nothing.
type Metrics struct {
	pagesFetched  metric.Int64Counter
	itemsYielded  metric.Int64Counter
	storeErrors   metric.Int64Counter
	fetchDuration metric.Float64Histogram

	submitted metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
	depth     metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.pagesFetched, MetricPagesFetched, "Pages fetched from the store"},
		{&m.itemsYielded, MetricItemsYielded, "Records handed to the caller"},
		{&m.storeErrors, MetricStoreErrors, "Failed store calls by operation"},
		{&m.submitted, MetricItemsSubmitted, "Items accepted by the work queue"},
		{&m.completed, MetricItemsCompleted, "Work functions that returned nil"},
		{&m.failed, MetricItemsFailed, "Work functions that returned an error or panicked"},
		{&m.dropped, MetricItemsDropped, "Items discarded after a fatal error"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	if m.fetchDuration, err = meter.Float64Histogram(MetricFetchDuration,
		metric.WithDescription("Duration of store page fetches"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricFetchDuration, err)
	}
	if m.depth, err = meter.Int64UpDownCounter(MetricWorkqueueDepth,
		metric.WithDescription("Items pending or running in the work queue"),
	); err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricWorkqueueDepth, err)
	}
	return &m, nil
}

// PageFetched records one successful page fetch that took d.
func (m *Metrics) PageFetched(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.pagesFetched.Add(ctx, 1)
	m.fetchDuration.Record(ctx, d.Seconds())
}

// ItemYielded counts one record returned by Next.
func (m *Metrics) ItemYielded(ctx context.Context) {
	if m == nil {
		return
	}
	m.itemsYielded.Add(ctx, 1)
}

// StoreError counts a failed Count or Find.
func (m *Metrics) StoreError(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.storeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// ItemSubmitted counts an accepted item and raises the depth.
func (m *Metrics) ItemSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.depth.Add(ctx, 1)
}

// ItemFinished counts a finished work function and lowers the depth.
func (m *Metrics) ItemFinished(ctx context.Context, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failed.Add(ctx, 1)
	} else {
		m.completed.Add(ctx, 1)
	}
	m.depth.Add(ctx, -1)
}

// ItemsDropped counts n discarded items and lowers the depth.
func (m *Metrics) ItemsDropped(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.Add(ctx, int64(n))
	m.depth.Add(ctx, -int64(n))
}
