// Package telemetry wires OpenTelemetry traces, metrics and logs, Pyroscope
// profiling, and the Prometheus collectors exposed on /metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Config holds the OTLP export settings shared by all providers
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
}

// Providers owns every exporter started at boot
type Providers struct {
	Tracer *TracerProvider
	Meter  *MeterProvider
	Logs   *LoggerProvider
	logger *zap.Logger
}

// Setup starts the tracer, meter and logger providers. With telemetry disabled
// each provider is a no-op and the global OpenTelemetry defaults stay in place.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{logger: logger}
	if !cfg.Enabled {
		logger.Info("telemetry disabled")
		p.Tracer = &TracerProvider{logger: logger, config: cfg}
		p.Meter = &MeterProvider{logger: logger, config: cfg}
		p.Logs = &LoggerProvider{logger: logger, config: cfg}
		return p, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}
	if p.Tracer, err = newTracerProvider(ctx, cfg, res, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = newMeterProvider(ctx, cfg, res, logger); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	if p.Logs, err = newLoggerProvider(ctx, cfg, res, logger); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		_ = p.Meter.Shutdown(ctx)
		return nil, err
	}
	return p, nil
}

// Shutdown flushes and stops every provider, collecting their errors
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
	)
}

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}
