package telemetry

import (
	"context"
	"sync"
)

// Exporter is the contract for pushing telemetry records to an external
// sink (spec.md §4.5). Export must tolerate being called concurrently if
// the same Exporter is registered under multiple processors.
type Exporter interface {
	Name() string
	Enabled() bool
	Export(ctx context.Context, records []Record) error
}

// FailureLogger receives an exporter's name and error when Export fails
// inside a CompositeExporter; failures are logged and swallowed, never
// propagated to the caller (spec.md §4.5, §7).
type FailureLogger func(exporterName string, err error)

// CompositeExporter fans a single Export call out to every enabled child
// concurrently. A child's failure is reported to FailureLog (if set) and
// does not cancel its siblings or fail the composite call.
type CompositeExporter struct {
	name      string
	children  []Exporter
	FailureLog FailureLogger
}

// NewCompositeExporter returns a CompositeExporter fanning out to
// children.
func NewCompositeExporter(name string, children ...Exporter) *CompositeExporter {
	return &CompositeExporter{name: name, children: children}
}

// Name returns the composite's own name.
func (c *CompositeExporter) Name() string { return c.name }

// Enabled reports true iff at least one child is enabled.
func (c *CompositeExporter) Enabled() bool {
	for _, child := range c.children {
		if child.Enabled() {
			return true
		}
	}
	return false
}

// Export fans out to every enabled child concurrently. It always returns
// nil: per-child failures are reported via FailureLog, not returned,
// matching spec.md §4.5's "an exception from any child is logged, does
// not cancel siblings, and does not propagate."
func (c *CompositeExporter) Export(ctx context.Context, records []Record) error {
	var wg sync.WaitGroup
	for _, child := range c.children {
		if !child.Enabled() {
			continue
		}
		wg.Add(1)
		go func(e Exporter) {
			defer wg.Done()
			if err := e.Export(ctx, records); err != nil && c.FailureLog != nil {
				c.FailureLog(e.Name(), err)
			}
		}(child)
	}
	wg.Wait()
	return nil
}
