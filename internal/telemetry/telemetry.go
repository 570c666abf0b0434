// Package telemetry wires OpenTelemetry tracing and Pyroscope continuous
// profiling. Traces are exported over OTLP/gRPC. When tracing is disabled
// every helper degrades to no-op spans, so call sites never check IsEnabled.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/voxhall/callstream/internal/logger"
)

// instrumentationName identifies this service's tracer.
const instrumentationName = "callstream"

// shutdownTimeout bounds the final trace flush on exit.
const shutdownTimeout = 5 * time.Second

var (
	tracer  trace.Tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	enabled bool
)

// Init configures the OpenTelemetry SDK from cfg and installs the global
// tracer provider and propagators. The returned shutdown function flushes
// pending spans; with tracing disabled it is a no-op.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		enabled = false
		tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to describe service resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer = provider.Tracer(cfg.ServiceName)
	enabled = true

	return func(ctx context.Context) error {
		flushCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return provider.Shutdown(flushCtx)
	}, nil
}

// newExporter dials the OTLP gRPC collector endpoint.
func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		)
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up OTLP exporter: %w", err)
	}
	return exporter, nil
}

// samplerFor maps a sample rate to a sampler, clamping at the extremes.
func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Tracer returns the tracer used by the span helpers. Until Init enables
// telemetry it is a no-op tracer.
func Tracer() trace.Tracer {
	return tracer
}

// IsEnabled reports whether Init installed a real tracer provider.
func IsEnabled() bool {
	return enabled
}

// StartSpan starts a named span. The caller must call span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, opts...)
}

// InjectTraceContext copies the active span's trace and span IDs into the
// logging context so log lines correlate with traces.
func InjectTraceContext(ctx context.Context) context.Context {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ctx
	}

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = &logger.LogContext{}
	}
	return logger.WithContext(ctx, lc.WithTrace(sc.TraceID().String(), sc.SpanID().String()))
}

// RecordError records err on the active span and marks the span failed.
// A nil err is ignored.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attributes on the active span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
