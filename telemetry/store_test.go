package telemetry

import (
	"testing"
	"time"
)

func TestStore_AppendAndSnapshot(t *testing.T) {
	s := NewStore(false)
	s.Append(Record{Name: "a", Successful: true, ElapsedMs: 10})
	s.Append(Record{Name: "b", Successful: false, ElapsedMs: 20, ErrorKind: "Network"})

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStore_SnapshotIsIndependentOfFutureAppends(t *testing.T) {
	s := NewStore(false)
	s.Append(Record{Name: "a"})
	snap := s.Snapshot()
	s.Append(Record{Name: "b"})

	if len(snap) != 1 {
		t.Errorf("earlier snapshot len = %d, want 1 (must not observe the later append)", len(snap))
	}
}

func TestStore_SnapshotCacheInvalidatesOnAppend(t *testing.T) {
	s := NewStore(false)
	s.Append(Record{Name: "a"})
	first := s.Snapshot()
	s.Append(Record{Name: "b"})
	second := s.Snapshot()

	if len(first) != 1 || len(second) != 2 {
		t.Errorf("first=%d second=%d, want 1 then 2", len(first), len(second))
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil, false)
	if sum.Total != 0 || sum.SuccessRate != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero value", sum)
	}
}

func TestSummarize_Basic(t *testing.T) {
	records := []Record{
		{Successful: true, ElapsedMs: 10},
		{Successful: true, ElapsedMs: 20},
		{Successful: false, ElapsedMs: 30},
	}
	sum := Summarize(records, false)

	if sum.Total != 3 {
		t.Errorf("Total = %d, want 3", sum.Total)
	}
	if sum.Successes != 2 || sum.Failures != 1 {
		t.Errorf("Successes=%d Failures=%d, want 2 and 1", sum.Successes, sum.Failures)
	}
	wantRate := 2.0 / 3.0 * 100
	if sum.SuccessRate != wantRate {
		t.Errorf("SuccessRate = %v, want %v", sum.SuccessRate, wantRate)
	}
	if sum.MinElapsedMs != 10 || sum.MaxElapsedMs != 30 {
		t.Errorf("Min=%v Max=%v, want 10 and 30", sum.MinElapsedMs, sum.MaxElapsedMs)
	}
	if sum.AvgElapsedMs != 20 {
		t.Errorf("AvgElapsedMs = %v, want 20", sum.AvgElapsedMs)
	}
	if sum.Detailed {
		t.Errorf("Detailed = true, want false")
	}
}

func TestSummarize_DetailedPercentiles(t *testing.T) {
	records := make([]Record, 0, 100)
	for i := 1; i <= 100; i++ {
		records = append(records, Record{Successful: true, ElapsedMs: float64(i)})
	}
	sum := Summarize(records, true)

	if !sum.Detailed {
		t.Fatalf("Detailed = false, want true")
	}
	if sum.P50ElapsedMs < 49 || sum.P50ElapsedMs > 51 {
		t.Errorf("P50ElapsedMs = %v, want ~50", sum.P50ElapsedMs)
	}
	if sum.P99ElapsedMs < 98 || sum.P99ElapsedMs > 100 {
		t.Errorf("P99ElapsedMs = %v, want ~99-100", sum.P99ElapsedMs)
	}
}

func TestPercentile_SingleElement(t *testing.T) {
	if got := percentile([]float64{42}, 0.95); got != 42 {
		t.Errorf("percentile(single) = %v, want 42", got)
	}
}

func TestStore_Summary_MatchesSummarizeOfSnapshot(t *testing.T) {
	s := NewStore(true)
	s.Append(Record{Successful: true, ElapsedMs: 5, Timestamp: time.Now()})
	s.Append(Record{Successful: false, ElapsedMs: 15, Timestamp: time.Now()})

	want := Summarize(s.Snapshot(), true)
	got := s.Summary()
	if got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
}
