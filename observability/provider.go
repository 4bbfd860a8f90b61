package observability

import (
	"context"
	stderrors "errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Service identifies the process on exported telemetry.
type Service struct {
	Name        string
	Version     string
	Environment string
}

func (s Service) resource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", s.Name),
			attribute.String("service.version", s.Version),
			attribute.String("deployment.environment", s.Environment),
		),
	)
}

// Init installs global tracer and meter providers exporting over OTLP HTTP.
// The returned function flushes and stops both. A disabled config installs
// nothing and returns a no-op shutdown.
func Init(ctx context.Context, cfg Config, svc Service) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()

	tp, err := InitTracer(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return func(ctx context.Context) error {
		return stderrors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}
