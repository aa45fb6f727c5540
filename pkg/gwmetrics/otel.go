package gwmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewOTLPTracerProvider builds a trace provider exporting spans over
// OTLP/HTTP to endpoint, matching the teacher's otlptrace/otlptracehttp
// dependency (otherwise unused anywhere else in the teacher's own
// codebase — the teacher imports it but every example leaves telemetry
// disabled by default; this is the first call site that actually wires
// it end-to-end). Callers must call Shutdown on the returned provider.
func NewOTLPTracerProvider(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	client := otlptracehttp.NewClient(otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	return provider, nil
}
