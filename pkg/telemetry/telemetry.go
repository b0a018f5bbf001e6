// Package telemetry configures OpenTelemetry tracing for modelrepo.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName is the tracer and resource name used across modelrepo.
	ServiceName = "modelrepo"

	defaultEndpoint = "localhost:4317"
)

// Setup initializes OpenTelemetry based on environment configuration.
// OTEL_EXPORTER: "none" (default), "console", "otlp", or "both"
// OTEL_ENDPOINT: OTLP endpoint (default: "localhost:4317")
func Setup(ctx context.Context, version string) (trace.Tracer, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporters, err := newExporters(ctx, os.Getenv("OTEL_EXPORTER"), os.Getenv("OTEL_ENDPOINT"))
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	for _, exporter := range exporters {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}

	otel.SetTracerProvider(tp)

	return tp.Tracer(ServiceName), tp.Shutdown, nil
}

// newExporters builds the span exporters for the exporter type. Without
// exporters spans are still created but go nowhere.
func newExporters(ctx context.Context, exporterType, endpoint string) ([]sdktrace.SpanExporter, error) {
	var exporters []sdktrace.SpanExporter

	console := func() error {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		exporters = append(exporters, exp)
		return nil
	}
	otlp := func() error {
		if endpoint == "" {
			endpoint = defaultEndpoint
		}
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporters = append(exporters, exp)
		return nil
	}

	var steps []func() error
	switch exporterType {
	case "", "none":
	case "console":
		steps = append(steps, console)
	case "otlp":
		steps = append(steps, otlp)
	case "both":
		steps = append(steps, console, otlp)
	default:
		return nil, fmt.Errorf("unknown OTEL_EXPORTER %q, must be one of: none, console, otlp, both", exporterType)
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return exporters, nil
}
