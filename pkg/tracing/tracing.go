package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider wraps OpenTelemetry tracer provider
type TracerProvider struct {
	tp *tracesdk.TracerProvider
}

// Config contains tracing configuration
type Config struct {
	Enabled     bool
	ServiceName string
	JaegerURL   string
	SampleRate  float64
}

// Init initializes tracing. When disabled, all span helpers are no-ops.
func Init(cfg Config) (*TracerProvider, error) {
	if !cfg.Enabled {
		return &TracerProvider{}, nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerURL)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
		tracesdk.WithSampler(tracesdk.TraceIDRatioBased(cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{tp: tp}, nil
}

// Shutdown shuts down the tracer provider
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.tp != nil {
		return tp.tp.Shutdown(ctx)
	}
	return nil
}

// StartSpan starts a new span
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tracer := otel.Tracer("stagecast")
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error in the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Common span attributes
var (
	StreamIDKey = attribute.Key("stream.id")
	UserIDKey   = attribute.Key("user.id")
	AmountKey   = attribute.Key("ledger.amount_cents")
	MethodKey   = attribute.Key("ledger.method")
	AgentIDKey  = attribute.Key("agent.id")
	EventKey    = attribute.Key("broadcast.event")
)

// TraceLedgerOperation traces a ledger operation (donation, withdraw)
func TraceLedgerOperation(ctx context.Context, operation string, userID string, amountCents int64) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("ledger.%s", operation),
		trace.WithAttributes(
			UserIDKey.String(userID),
			AmountKey.Int64(amountCents),
		),
	)
}

// TraceAgentTick traces one scheduler tick for a stream agent
func TraceAgentTick(ctx context.Context, agentID, streamID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "agent.tick",
		trace.WithAttributes(
			AgentIDKey.String(agentID),
			StreamIDKey.String(streamID),
		),
	)
}

// TraceModeration traces a moderation gate check
func TraceModeration(ctx context.Context, streamID, senderID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "moderation.check",
		trace.WithAttributes(
			StreamIDKey.String(streamID),
			UserIDKey.String(senderID),
		),
	)
}
