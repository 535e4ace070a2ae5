package analytics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecordAndSummarize(t *testing.T) {
	r := NewRecorder(t.TempDir(), 0)

	r.Record("llama-3.1-8b-instant", 1000, 0.05, 900, true)
	r.Record("llama-3.1-8b-instant", 500, 0.025, 700, true)
	r.Record("claude-sonnet-4-5", 2000, 0.6, 3000, false)

	s := r.Summarize()
	if s.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", s.TotalRequests)
	}
	if s.TotalTokens != 3500 {
		t.Errorf("TotalTokens = %d, want 3500", s.TotalTokens)
	}
	if got, want := s.SuccessRate, 2.0/3.0; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("SuccessRate = %v, want %v", got, want)
	}
	if len(s.ByModel) != 2 {
		t.Fatalf("ByModel entries = %d, want 2", len(s.ByModel))
	}
	// Sorted by request count, most used model first.
	if s.ByModel[0].Model != "llama-3.1-8b-instant" || s.ByModel[0].Requests != 2 {
		t.Errorf("top model = %+v", s.ByModel[0])
	}
	if s.ByModel[0].AvgLatencyMs != 800 {
		t.Errorf("AvgLatencyMs = %d, want 800", s.ByModel[0].AvgLatencyMs)
	}
}

func TestFlushAndReload(t *testing.T) {
	dir := t.TempDir()

	r := NewRecorder(dir, 0)
	r.Record("m1", 100, 0.01, 500, true)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "usage.json")); err != nil {
		t.Fatalf("usage file missing: %v", err)
	}

	// Flushing again without changes is a no-op.
	if err := r.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}

	r2 := NewRecorder(dir, 0)
	if got := r2.Summarize().TotalRequests; got != 1 {
		t.Errorf("reloaded TotalRequests = %d, want 1", got)
	}
}

func TestCorruptUsageFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "usage.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(dir, 0)
	if got := r.Summarize().TotalRequests; got != 0 {
		t.Errorf("TotalRequests = %d, want 0", got)
	}
}

func TestCostFor(t *testing.T) {
	// Exact rate from the pricing table.
	cost := CostFor("llama-3.1-8b-instant", 1_000_000)
	if cost <= 0 {
		t.Errorf("CostFor known model = %v, want > 0", cost)
	}

	// Unknown models fall back to the default rate.
	def := CostFor("totally-unknown-model", 1_000_000)
	if def != 0.5 {
		t.Errorf("default cost per 1M tokens = %v, want 0.5", def)
	}
}
