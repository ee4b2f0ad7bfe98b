package telemetry

import (
	"context"
	"testing"
)

func TestOtelExporter_ExportRecordsMetrics(t *testing.T) {
	exp, err := NewOtelExporter("otel-test")
	if err != nil {
		t.Fatalf("NewOtelExporter() error = %v", err)
	}
	if !exp.Enabled() {
		t.Fatalf("Enabled() = false, want true")
	}
	if exp.Name() != "otel-test" {
		t.Errorf("Name() = %q, want %q", exp.Name(), "otel-test")
	}

	records := []Record{
		{Name: "a", Successful: true, ElapsedMs: 12.5},
		{Name: "b", Successful: false, ElapsedMs: 40, ErrorKind: "Network"},
	}
	ctx := context.Background()
	if err := exp.Export(ctx, records); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rm, err := exp.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatalf("Collect() returned no scope metrics")
	}

	var sawCounter, sawHistogram bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "taskexec.tasks.completed":
				sawCounter = true
			case "taskexec.tasks.elapsed_ms":
				sawHistogram = true
			}
		}
	}
	if !sawCounter {
		t.Errorf("did not observe the taskexec.tasks.completed counter")
	}
	if !sawHistogram {
		t.Errorf("did not observe the taskexec.tasks.elapsed_ms histogram")
	}
}

func TestOtelExporter_DisabledSkipsExport(t *testing.T) {
	exp, err := NewOtelExporter("otel-test")
	if err != nil {
		t.Fatalf("NewOtelExporter() error = %v", err)
	}
	exp.SetEnabled(false)
	if exp.Enabled() {
		t.Fatalf("Enabled() = true, want false after SetEnabled(false)")
	}

	ctx := context.Background()
	if err := exp.Export(ctx, []Record{{Name: "a", Successful: true}}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rm, err := exp.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "taskexec.tasks.completed" {
				t.Errorf("metric %q was recorded despite the exporter being disabled", m.Name)
			}
		}
	}
}

func TestOtelExporter_Shutdown(t *testing.T) {
	exp, err := NewOtelExporter("otel-test")
	if err != nil {
		t.Fatalf("NewOtelExporter() error = %v", err)
	}
	if err := exp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
