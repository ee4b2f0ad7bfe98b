package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// OtelExporter records every telemetry record as an OpenTelemetry metric
// observation: a counter split by outcome and error kind, and a
// histogram of elapsed milliseconds. It is backed by an in-process
// sdkmetric.ManualReader rather than any OTLP/Prometheus/stdout
// transport — wiring a transport is explicitly outside this package's
// scope (spec.md §1); OtelExporter only exercises the metric *recording*
// API that a real transport would later read from.
type OtelExporter struct {
	name    string
	enabled bool

	reader    *sdkmetric.ManualReader
	provider  *sdkmetric.MeterProvider
	completed metric.Int64Counter
	elapsed   metric.Float64Histogram
}

// NewOtelExporter creates an OtelExporter named name, registering its own
// private MeterProvider so it never mutates process-global OTel state.
func NewOtelExporter(name string) (*OtelExporter, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("taskexec")

	completed, err := meter.Int64Counter(
		"taskexec.tasks.completed",
		metric.WithDescription("count of finalized tasks by outcome and error kind"),
	)
	if err != nil {
		return nil, err
	}
	elapsed, err := meter.Float64Histogram(
		"taskexec.tasks.elapsed_ms",
		metric.WithDescription("elapsed execution time per finalized task, in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &OtelExporter{
		name:      name,
		enabled:   true,
		reader:    reader,
		provider:  provider,
		completed: completed,
		elapsed:   elapsed,
	}, nil
}

// Name returns the exporter's configured name.
func (o *OtelExporter) Name() string { return o.name }

// Enabled reports whether the exporter should receive export calls.
func (o *OtelExporter) Enabled() bool { return o.enabled }

// SetEnabled toggles whether subsequent Export calls record anything.
func (o *OtelExporter) SetEnabled(enabled bool) { o.enabled = enabled }

// Export records one OTel observation per telemetry record.
func (o *OtelExporter) Export(ctx context.Context, records []Record) error {
	if !o.enabled {
		return nil
	}
	for _, r := range records {
		attrs := []attribute.KeyValue{
			attribute.String("name", r.Name),
			attribute.Bool("successful", r.Successful),
		}
		if !r.Successful {
			attrs = append(attrs, attribute.String("error_kind", r.ErrorKind))
		}
		set := metric.WithAttributes(attrs...)
		o.completed.Add(ctx, 1, set)
		o.elapsed.Record(ctx, r.ElapsedMs, set)
	}
	return nil
}

// Collect returns the current aggregation snapshot from the exporter's
// private ManualReader, for tests that want to assert on recorded
// metrics without standing up a transport.
func (o *OtelExporter) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := o.reader.Collect(ctx, &rm)
	return rm, err
}

// Shutdown releases the exporter's private MeterProvider.
func (o *OtelExporter) Shutdown(ctx context.Context) error {
	return o.provider.Shutdown(ctx)
}
