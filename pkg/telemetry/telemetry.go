// Package telemetry provides support for opentelemetry tracing.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace/noop"
)

// Hosts with a special meaning.
const (
	HostNone   = ""
	HostStdout = "stdout"
)

// Config defines the information needed to init tracing.
type Config struct {
	ServiceName string
	// Host of the otlp grpc collector, HostNone disables tracing and HostStdout
	// prints spans.
	Host  string
	Build string
	// ExcludedRoutes are never sampled, like health checks.
	ExcludedRoutes map[string]struct{}
	Probability    float64
	// Writer used by HostStdout, defaults to os.Stdout.
	Writer io.Writer
}

// SetupOTelSDK installs the global tracer provider and propagator, the returned
// func flushes pending spans.
func SetupOTelSDK(cfg Config) (func(context.Context), error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var exporter sdktrace.SpanExporter
	switch cfg.Host {
	case HostNone:
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) {}, nil

	case HostStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}

		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		exporter = exp

	default:
		exp, err := otlptrace.New(
			context.Background(),
			otlptracegrpc.NewClient(
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithEndpoint(cfg.Host),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		exporter = exp
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(newEndpointExcluder(cfg.ExcludedRoutes, cfg.Probability))),
		sdktrace.WithBatcher(
			exporter,
			sdktrace.WithMaxExportBatchSize(sdktrace.DefaultMaxExportBatchSize),
			sdktrace.WithBatchTimeout(sdktrace.DefaultScheduleDelay*time.Millisecond),
		),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Build),
		)),
	)

	otel.SetTracerProvider(tp)

	return func(ctx context.Context) {
		_ = tp.Shutdown(ctx)
	}, nil
}

//==============================================================================

type endpointExcluder struct {
	endpoints   map[string]struct{}
	probability float64
}

func newEndpointExcluder(endpoints map[string]struct{}, probability float64) endpointExcluder {
	return endpointExcluder{
		endpoints:   endpoints,
		probability: probability,
	}
}

// ShouldSample implements the sampler interface, excluded endpoints are dropped.
func (ee endpointExcluder) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if ep := endpoint(p); ep != "" {
		if _, ok := ee.endpoints[ep]; ok {
			return sdktrace.SamplingResult{Decision: sdktrace.Drop}
		}
	}

	return sdktrace.TraceIDRatioBased(ee.probability).ShouldSample(p)
}

// Description implements the sampler interface.
func (endpointExcluder) Description() string {
	return "endpointExcluder"
}

func endpoint(p sdktrace.SamplingParameters) string {
	for _, attr := range p.Attributes {
		switch attr.Key {
		case "url.path", "http.route", "http.target":
			return attr.Value.AsString()
		}
	}

	return ""
}
