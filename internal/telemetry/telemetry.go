// Package telemetry records pipeline spans and counters with OpenTelemetry.
// When enabled, traces and metrics are written as JSON lines to files in the
// output directory; when disabled every call is a no-op.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "route-forge"

	TracesFile  = "traces.jsonl"
	MetricsFile = "metrics.jsonl"
)

// Telemetry holds the tracer and counters used by the pipeline
type Telemetry struct {
	tracer    trace.Tracer
	calls     metric.Int64Counter
	failures  metric.Int64Counter
	artifacts metric.Int64Counter

	shutdown []func(context.Context) error
	files    []*os.File
}

// Noop returns a Telemetry that records nothing
func Noop() *Telemetry {
	t, _ := build(noop.NewTracerProvider(), metricnoop.NewMeterProvider())
	return t
}

// New creates file-backed telemetry in outputDir, or a no-op one when disabled
func New(enabled bool, outputDir string) (*Telemetry, error) {
	if !enabled {
		return Noop(), nil
	}

	traceFile, err := os.Create(filepath.Join(outputDir, TracesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	metricFile, err := os.Create(filepath.Join(outputDir, MetricsFile))
	if err != nil {
		traceFile.Close()
		return nil, fmt.Errorf("failed to create metrics file: %w", err)
	}

	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(traceFile))
	if err != nil {
		traceFile.Close()
		metricFile.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(metricFile))
	if err != nil {
		traceFile.Close()
		metricFile.Close()
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", instrumentationName),
	))
	if err != nil {
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	t, err := build(tp, mp)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
		traceFile.Close()
		metricFile.Close()
		return nil, err
	}
	// tracer first so spans flush before metrics
	t.shutdown = []func(context.Context) error{tp.Shutdown, mp.Shutdown}
	t.files = []*os.File{traceFile, metricFile}
	return t, nil
}

func build(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentationName)
	t := &Telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	if t.calls, err = meter.Int64Counter("route_forge.generation.calls",
		metric.WithDescription("Backend generation attempts")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.failures, err = meter.Int64Counter("route_forge.generation.failures",
		metric.WithDescription("Failed backend generation attempts")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if t.artifacts, err = meter.Int64Counter("route_forge.artifacts.written",
		metric.WithDescription("Artifacts persisted to the output directory")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return t, nil
}

// StartEntry opens the span covering one specification entry
func (t *Telemetry) StartEntry(ctx context.Context, index int, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.entry", trace.WithAttributes(
		attribute.Int("entry.index", index),
		attribute.String("route.method", method),
		attribute.String("route.path", path),
	))
}

// StartStage opens the span covering one stage of an entry
func (t *Telemetry) StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
		attribute.String("stage", stage),
	))
}

// End closes span, marking it failed when err is non-nil
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CallFinished counts one backend attempt
func (t *Telemetry) CallFinished(ctx context.Context, stage, profile string, err error) {
	attrs := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("profile", profile),
	)
	t.calls.Add(ctx, 1, attrs)
	if err != nil {
		t.failures.Add(ctx, 1, attrs)
	}
}

// ArtifactWritten counts one persisted artifact
func (t *Telemetry) ArtifactWritten(ctx context.Context, kind string) {
	t.artifacts.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Shutdown flushes exporters and closes the output files
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, f := range t.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdown, t.files = nil, nil
	return errors.Join(errs...)
}
