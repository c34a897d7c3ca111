package tracer

import (
	"context"
	"log"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const defaultEndpoint = "localhost:4318"

// noopShutdown stands in when tracing is off or the exporter cannot be
// built; the server runs fine without spans either way.
func noopShutdown(context.Context) error { return nil }

// InitTracer wires the global OpenTelemetry provider to an OTLP/HTTP
// collector and returns the shutdown hook for the server's exit path.
// Opt-in: spans are only exported when OTEL_ENABLED=true, so local runs
// without a collector stay quiet.
func InitTracer() func(context.Context) error {
	if os.Getenv("OTEL_ENABLED") != "true" {
		log.Println("Trace export off; set OTEL_ENABLED=true to ship spans")
		return noopShutdown
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	// Plain HTTP: the expected collector is a local Jaeger or otel-collector
	// listening on 4318.
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("OTLP exporter unavailable, running without traces: %v", err)
		return noopShutdown
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("ai-roleplay-backend"),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Printf("Trace export on, shipping spans to %s", endpoint)
	return tp.Shutdown
}
