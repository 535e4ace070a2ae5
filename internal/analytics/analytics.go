package analytics

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// UsageRecord is one recorded model invocation.
type UsageRecord struct {
	Model      string    `json:"model"`
	Tokens     int       `json:"tokens"`
	CostUSD    float64   `json:"costUsd"`
	DurationMs int64     `json:"durationMs"`
	Success    bool      `json:"success"`
	At         time.Time `json:"at"`
}

// ModelSummary aggregates usage for a single model.
type ModelSummary struct {
	Model        string  `json:"model"`
	Requests     int     `json:"requests"`
	Tokens       int     `json:"tokens"`
	CostUSD      float64 `json:"costUsd"`
	AvgLatencyMs int64   `json:"avgLatencyMs"`
	SuccessRate  float64 `json:"successRate"`
}

// Summary is the aggregate view served by /api/analytics/summary.
type Summary struct {
	TotalRequests int            `json:"totalRequests"`
	TotalTokens   int            `json:"totalTokens"`
	TotalCostUSD  float64        `json:"totalCostUsd"`
	SuccessRate   float64        `json:"successRate"`
	ByModel       []ModelSummary `json:"byModel"`
}

// Recorder collects usage records in memory and periodically flushes them
// to a JSON file. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []UsageRecord
	dirty   bool
	path    string

	retention time.Duration
	cron      *cron.Cron
}

// NewRecorder creates a recorder persisting to usage.json under dataDir.
// retentionDays <= 0 defaults to 90 days.
func NewRecorder(dataDir string, retentionDays int) *Recorder {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	r := &Recorder{
		path:      filepath.Join(dataDir, "usage.json"),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
	r.load()
	return r
}

func (r *Recorder) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return // first run
	}
	if err := json.Unmarshal(data, &r.records); err != nil {
		log.Printf("[analytics] corrupt usage file, starting fresh: %v", err)
		r.records = nil
	}
}

// Record appends one usage record.
func (r *Recorder) Record(model string, tokens int, costUSD float64, durationMs int64, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, UsageRecord{
		Model:      model,
		Tokens:     tokens,
		CostUSD:    costUSD,
		DurationMs: durationMs,
		Success:    success,
		At:         time.Now(),
	})
	r.dirty = true
}

// Summarize returns the aggregate usage view.
func (r *Recorder) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{}
	type acc struct {
		requests, tokens, successes int
		cost                        float64
		latency                     int64
	}
	byModel := make(map[string]*acc)

	successes := 0
	for _, rec := range r.records {
		s.TotalRequests++
		s.TotalTokens += rec.Tokens
		s.TotalCostUSD += rec.CostUSD
		if rec.Success {
			successes++
		}
		a := byModel[rec.Model]
		if a == nil {
			a = &acc{}
			byModel[rec.Model] = a
		}
		a.requests++
		a.tokens += rec.Tokens
		a.cost += rec.CostUSD
		a.latency += rec.DurationMs
		if rec.Success {
			a.successes++
		}
	}
	if s.TotalRequests > 0 {
		s.SuccessRate = float64(successes) / float64(s.TotalRequests)
	}

	for model, a := range byModel {
		ms := ModelSummary{
			Model:    model,
			Requests: a.requests,
			Tokens:   a.tokens,
			CostUSD:  a.cost,
		}
		ms.AvgLatencyMs = a.latency / int64(a.requests)
		ms.SuccessRate = float64(a.successes) / float64(a.requests)
		s.ByModel = append(s.ByModel, ms)
	}
	sort.Slice(s.ByModel, func(i, j int) bool { return s.ByModel[i].Requests > s.ByModel[j].Requests })
	return s
}

// Flush writes the in-memory records to disk if anything changed since the
// last flush.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}
	data, err := json.MarshalIndent(r.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal usage records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write usage file: %w", err)
	}
	r.dirty = false
	return nil
}

// Prune drops records older than the retention window.
func (r *Recorder) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-r.retention)
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.At.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	if len(kept) != len(r.records) {
		r.dirty = true
	}
	r.records = kept
}

// StartScheduler begins periodic flushing and retention pruning. The flush
// schedule uses cron syntax; an empty spec defaults to every 5 minutes.
func (r *Recorder) StartScheduler(flushSpec string) error {
	if flushSpec == "" {
		flushSpec = "@every 5m"
	}
	c := cron.New()
	if _, err := c.AddFunc(flushSpec, func() {
		if err := r.Flush(); err != nil {
			log.Printf("[analytics] flush failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid flush schedule %q: %w", flushSpec, err)
	}
	if _, err := c.AddFunc("@daily", r.Prune); err != nil {
		return err
	}
	c.Start()
	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	log.Printf("[analytics] scheduler started (flush %s)", flushSpec)
	return nil
}

// Stop halts the scheduler and performs a final flush.
func (r *Recorder) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		ctx := c.Stop()
		<-ctx.Done()
	}
	if err := r.Flush(); err != nil {
		log.Printf("[analytics] final flush failed: %v", err)
	}
}
