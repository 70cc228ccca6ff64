package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps an OpenTelemetry tracer for the embedding client.
type Tracer struct {
	tracer trace.Tracer
}

// Config holds tracing configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	JaegerEndpoint string
	Environment    string
}

// NewTracer creates a new OpenTelemetry tracer with a Jaeger exporter and
// installs the global provider and propagators.
func NewTracer(config Config) (*Tracer, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		tracer: otel.Tracer(config.ServiceName),
	}, nil
}

// NewNopTracer creates a tracer that records nothing. Used when tracing is
// not configured.
func NewNopTracer() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer("embedkit")}
}

// StartSpan starts a new span
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartEmbedSpan starts a span for one resilient embed call over a batch.
func (t *Tracer) StartEmbedSpan(ctx context.Context, model string, batchSize, gas int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("embed.model", model),
		attribute.Int("embed.batch_size", batchSize),
		attribute.Int("embed.gas", gas),
	}

	return t.tracer.Start(ctx, "embed.batch", trace.WithAttributes(attrs...))
}

// StartSendSpan starts a span for a single transport exchange.
func (t *Tracer) StartSendSpan(ctx context.Context, model string, batchSize int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("embed.model", model),
		attribute.Int("embed.batch_size", batchSize),
	}

	return t.tracer.Start(ctx, "embed.send", trace.WithAttributes(attrs...))
}
