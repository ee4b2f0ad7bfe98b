package telemetry

import (
	"context"
	"sync"
)

// MemoryExporter accumulates every exported batch in memory, for tests
// (spec.md §4.5 "A memory exporter accumulates batches for tests").
type MemoryExporter struct {
	name string

	mu      sync.Mutex
	batches [][]Record
}

// NewMemoryExporter returns an enabled MemoryExporter named name.
func NewMemoryExporter(name string) *MemoryExporter {
	return &MemoryExporter{name: name}
}

// Name returns the exporter's configured name.
func (m *MemoryExporter) Name() string { return m.name }

// Enabled always reports true; tests construct a MemoryExporter only when
// they want it active.
func (m *MemoryExporter) Enabled() bool { return true }

// Export appends a copy of records as one batch.
func (m *MemoryExporter) Export(ctx context.Context, records []Record) error {
	cp := make([]Record, len(records))
	copy(cp, records)

	m.mu.Lock()
	m.batches = append(m.batches, cp)
	m.mu.Unlock()
	return nil
}

// Batches returns every batch exported so far, in export order.
func (m *MemoryExporter) Batches() [][]Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]Record, len(m.batches))
	copy(cp, m.batches)
	return cp
}

// Flatten returns every exported record across every batch, in export
// order.
func (m *MemoryExporter) Flatten() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}
