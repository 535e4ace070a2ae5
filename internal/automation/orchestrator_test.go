package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"studio/internal/history"
	"studio/internal/llm"
)

// mockClient records every invocation and answers via a pluggable
// function.
type mockClient struct {
	mu     sync.Mutex
	calls  []mockCall
	invoke func(modelID string, msgs []llm.Message) (any, error)
}

type mockCall struct {
	modelID  string
	messages []llm.Message
}

func (m *mockClient) Invoke(ctx context.Context, modelID string, msgs []llm.Message, params llm.GenerationParams) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, mockCall{modelID: modelID, messages: append([]llm.Message(nil), msgs...)})
	m.mu.Unlock()
	if m.invoke != nil {
		return m.invoke(modelID, msgs)
	}
	return "ok", nil
}

func (m *mockClient) Name() string { return "mock" }

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockResolver struct {
	client llm.Client
}

func (r mockResolver) Resolve(provider string) (llm.Client, error) {
	return r.client, nil
}

type mockMetrics struct {
	compute func(prediction, reference string, names []string) (map[string]float64, error)
}

func (m mockMetrics) Compute(ctx context.Context, prediction, reference string, names []string) (map[string]float64, error) {
	if m.compute != nil {
		return m.compute(prediction, reference, names)
	}
	return map[string]float64{}, nil
}

type mockHistory struct {
	mu          sync.Mutex
	evals       []history.SavedEvaluation
	chats       []history.SavedChat
	automations []history.SavedAutomation
	failSaves   bool
}

func (h *mockHistory) SaveEvaluation(rec history.SavedEvaluation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failSaves {
		return errors.New("disk full")
	}
	h.evals = append(h.evals, rec)
	return nil
}

func (h *mockHistory) SaveChat(rec history.SavedChat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failSaves {
		return errors.New("disk full")
	}
	h.chats = append(h.chats, rec)
	return nil
}

func (h *mockHistory) SaveAutomation(rec history.SavedAutomation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failSaves {
		return errors.New("disk full")
	}
	h.automations = append(h.automations, rec)
	return nil
}

func chatConfig(name string, runs ...Run) Config {
	return Config{Name: name, Type: TypeChat, Runs: runs}
}

func chatRun(id string, prompts ...string) Run {
	r := Run{ID: id, Name: id}
	for _, p := range prompts {
		r.Prompts = append(r.Prompts, Prompt{Content: p})
	}
	return r
}

func newTestOrchestrator(client *mockClient, m MetricsComputer, h HistorySaver) (*Orchestrator, *Store) {
	store := NewStore()
	return New(store, mockResolver{client: client}, m, h, nil), store
}

func TestSequentialExecution(t *testing.T) {
	client := &mockClient{}
	o, _ := newTestOrchestrator(client, nil, nil)

	cfg := chatConfig("seq",
		chatRun("r1", "one"),
		chatRun("r2", "two"),
		chatRun("r3", "three"),
	)
	o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if client.callCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", client.callCount())
	}
	// Calls arrive in run order: each run's prompt text is the last
	// message of its request.
	want := []string{"one", "two", "three"}
	for i, call := range client.calls {
		last := call.messages[len(call.messages)-1]
		if last.Content != want[i] {
			t.Errorf("call %d: expected prompt %q, got %q", i, want[i], last.Content)
		}
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	client := &mockClient{
		invoke: func(modelID string, msgs []llm.Message) (any, error) {
			if msgs[len(msgs)-1].Content == "two" {
				return nil, errors.New("backend exploded")
			}
			return "fine", nil
		},
	}
	o, store := newTestOrchestrator(client, nil, nil)

	cfg := chatConfig("partial",
		chatRun("r1", "one"),
		chatRun("r2", "two"),
		chatRun("r3", "three"),
	)
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results["r1"].Error != "" || results["r3"].Error != "" {
		t.Errorf("sibling runs affected by r2 failure: %+v", results)
	}
	if results["r2"].Error != "backend exploded" {
		t.Errorf("expected r2 error, got %q", results["r2"].Error)
	}

	p := store.List()[0]
	if p.Status != StatusError {
		t.Errorf("expected error status, got %s", p.Status)
	}
	if p.Error != "1 runs failed" {
		t.Errorf("expected aggregate '1 runs failed', got %q", p.Error)
	}
}

func TestNoModelShortCircuit(t *testing.T) {
	client := &mockClient{}
	o, _ := newTestOrchestrator(client, nil, nil)

	cfg := chatConfig("nomodel", chatRun("r1", "hello"))
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{})

	if results["r1"].Error != ErrNoModel {
		t.Errorf("expected %q, got %q", ErrNoModel, results["r1"].Error)
	}
	if client.callCount() != 0 {
		t.Errorf("client invoked despite missing model: %d calls", client.callCount())
	}
}

func TestRunModelOverridesAmbient(t *testing.T) {
	client := &mockClient{}
	o, _ := newTestOrchestrator(client, nil, nil)

	override := chatRun("r1", "a")
	override.ModelID = "special"
	cfg := chatConfig("override", override, chatRun("r2", "b"))
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "ambient"})

	if results["r1"].ModelID != "special" {
		t.Errorf("expected override model, got %q", results["r1"].ModelID)
	}
	if results["r2"].ModelID != "ambient" {
		t.Errorf("expected ambient model, got %q", results["r2"].ModelID)
	}
}

func TestMonotonicProgress(t *testing.T) {
	client := &mockClient{}
	o, store := newTestOrchestrator(client, nil, nil)

	var observed []int
	store.Subscribe(func() {
		list := store.List()
		if len(list) > 0 {
			observed = append(observed, list[0].CurrentRunIndex)
		}
	})

	cfg := chatConfig("mono",
		chatRun("r1", "a"),
		chatRun("r2", "b"),
		chatRun("r3", "c"),
	)
	o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	for i := 1; i < len(observed); i++ {
		if observed[i] < observed[i-1] {
			t.Fatalf("currentRunIndex decreased: %v", observed)
		}
	}
	if len(observed) == 0 || observed[len(observed)-1] != 2 {
		t.Errorf("expected final index 2, observed %v", observed)
	}
}

func TestChatTranscriptThreading(t *testing.T) {
	client := &mockClient{
		invoke: func(modelID string, msgs []llm.Message) (any, error) {
			return fmt.Sprintf("reply-%d", len(msgs)), nil
		},
	}
	o, _ := newTestOrchestrator(client, nil, nil)

	run := chatRun("r1", "first", "second")
	run.Prompts[0].System = "be brief"
	cfg := chatConfig("thread", run)
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if client.callCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", client.callCount())
	}
	// First request: system + user. Second: prior user/assistant pair +
	// new user (no system on the second prompt).
	first := client.calls[0].messages
	if len(first) != 2 || first[0].Role != "system" {
		t.Errorf("unexpected first request shape: %+v", first)
	}
	second := client.calls[1].messages
	if len(second) != 3 {
		t.Fatalf("expected 3 messages in second request, got %d", len(second))
	}
	if second[0].Role != "user" || second[1].Role != "assistant" || second[2].Content != "second" {
		t.Errorf("transcript not threaded: %+v", second)
	}

	tr := results["r1"].Transcript
	if len(tr) != 4 {
		t.Errorf("expected 4 transcript messages, got %d", len(tr))
	}
}

func TestScenarioTwoChatRuns(t *testing.T) {
	client := &mockClient{
		invoke: func(string, []llm.Message) (any, error) { return "pong", nil },
	}
	o, store := newTestOrchestrator(client, nil, nil)

	cfg := chatConfig("scenario-a", chatRun("r1", "ping"), chatRun("r2", "ping"))
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for id, res := range results {
		if res.Error != "" {
			t.Errorf("run %s unexpectedly failed: %s", id, res.Error)
		}
		if res.Output != "pong" {
			t.Errorf("run %s: expected output 'pong', got %q", id, res.Output)
		}
	}

	p := store.List()[0]
	if p.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", p.Status)
	}
	if p.CurrentRunIndex != 1 {
		t.Errorf("expected currentRunIndex 1, got %d", p.CurrentRunIndex)
	}
}

func TestScenarioOCRMetrics(t *testing.T) {
	client := &mockClient{
		invoke: func(string, []llm.Message) (any, error) { return "the cat sat", nil },
	}
	m := mockMetrics{
		compute: func(prediction, reference string, names []string) (map[string]float64, error) {
			if prediction != "the cat sat" || reference != "the cat sat" {
				return nil, fmt.Errorf("unexpected inputs %q / %q", prediction, reference)
			}
			return map[string]float64{"rouge": 1.0}, nil
		},
	}
	hist := &mockHistory{}
	o, _ := newTestOrchestrator(client, m, hist)

	cfg := Config{
		Name: "scenario-b",
		Type: TypeOCR,
		Runs: []Run{{
			ID:             "r1",
			Name:           "ocr run",
			PromptTemplate: "transcribe: {{ocr_text}}",
			SourceText:     "scanned page",
			ReferenceText:  "the cat sat",
			Metrics:        []string{"rouge"},
		}},
	}
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if results["r1"].Error != "" {
		t.Fatalf("run failed: %s", results["r1"].Error)
	}
	if results["r1"].Scores["rouge"] != 1.0 {
		t.Errorf("expected rouge 1.0, got %v", results["r1"].Scores)
	}
	// Template was rendered against the source text.
	sent := client.calls[0].messages[0].Content
	if sent != "transcribe: scanned page" {
		t.Errorf("template not rendered: %q", sent)
	}
	if len(hist.evals) != 1 {
		t.Errorf("expected 1 persisted evaluation, got %d", len(hist.evals))
	}
}

func TestScenarioAllRunsFailed(t *testing.T) {
	client := &mockClient{
		invoke: func(string, []llm.Message) (any, error) { return nil, errors.New("rate limited") },
	}
	o, store := newTestOrchestrator(client, nil, nil)

	cfg := chatConfig("scenario-c", chatRun("r1", "hello"))
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if results["r1"].Error != "rate limited" {
		t.Errorf("expected 'rate limited', got %q", results["r1"].Error)
	}
	p := store.List()[0]
	if p.Error != "All runs failed" {
		t.Errorf("expected 'All runs failed', got %q", p.Error)
	}
}

func TestPersistenceFailureIsBestEffort(t *testing.T) {
	client := &mockClient{
		invoke: func(string, []llm.Message) (any, error) { return "pong", nil },
	}
	hist := &mockHistory{failSaves: true}
	o, store := newTestOrchestrator(client, nil, hist)

	cfg := chatConfig("besteffort", chatRun("r1", "hello"))
	results := o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	// A run that produced a correct result but failed to persist is still
	// reported as successful.
	if results["r1"].Error != "" {
		t.Errorf("persistence failure surfaced as run error: %q", results["r1"].Error)
	}
	if store.List()[0].Status != StatusCompleted {
		t.Errorf("persistence failure changed aggregate status")
	}
}

func TestAggregateRecordPersisted(t *testing.T) {
	client := &mockClient{
		invoke: func(modelID string, msgs []llm.Message) (any, error) {
			if msgs[len(msgs)-1].Content == "bad" {
				return nil, errors.New("boom")
			}
			return "ok", nil
		},
	}
	hist := &mockHistory{}
	o, _ := newTestOrchestrator(client, nil, hist)

	cfg := chatConfig("agg", chatRun("r1", "good"), chatRun("r2", "bad"))
	o.Execute(context.Background(), cfg, llm.ModelInfo{ID: "m"})

	if len(hist.automations) != 1 {
		t.Fatalf("expected 1 aggregate record, got %d", len(hist.automations))
	}
	agg := hist.automations[0]
	if agg.Status != string(StatusError) || agg.Error != "1 runs failed" {
		t.Errorf("unexpected aggregate: status=%s error=%q", agg.Status, agg.Error)
	}
	if len(agg.Runs) != 2 {
		t.Fatalf("expected 2 run summaries, got %d", len(agg.Runs))
	}
	if agg.Runs[0].RunID != "r1" || agg.Runs[1].RunID != "r2" {
		t.Errorf("run summaries out of order: %+v", agg.Runs)
	}
	if agg.Runs[1].Error != "boom" {
		t.Errorf("expected r2 summary error, got %q", agg.Runs[1].Error)
	}
}

func TestCancelledContextFailsRemainingRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &mockClient{
		invoke: func(string, []llm.Message) (any, error) {
			cancel() // cancel while the first run is in flight
			return "ok", nil
		},
	}
	o, store := newTestOrchestrator(client, nil, nil)

	cfg := chatConfig("cancel", chatRun("r1", "a"), chatRun("r2", "b"))
	results := o.Execute(ctx, cfg, llm.ModelInfo{ID: "m"})

	// The in-flight run finishes; the next run is never started.
	if results["r1"].Error != "" {
		t.Errorf("first run should have completed: %q", results["r1"].Error)
	}
	if results["r2"].Error == "" {
		t.Error("expected second run to be marked failed after cancellation")
	}
	if client.callCount() != 1 {
		t.Errorf("expected 1 call, got %d", client.callCount())
	}
	if store.List()[0].Status != StatusError {
		t.Errorf("expected error status after cancellation")
	}
}
