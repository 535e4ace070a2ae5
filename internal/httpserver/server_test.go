package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"studio/internal/analytics"
	"studio/internal/automation"
	"studio/internal/config"
	"studio/internal/history"
	"studio/internal/llm"
	"studio/internal/metrics"
	"studio/internal/presets"
)

const testToken = "test-token-12345"

type stubClient struct {
	reply any
	err   error
}

func (s *stubClient) Invoke(ctx context.Context, modelID string, messages []llm.Message, params llm.GenerationParams) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.reply != nil {
		return s.reply, nil
	}
	return "stub reply", nil
}

func (s *stubClient) Name() string { return "stub" }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	registry := llm.NewRegistry()
	registry.Register(&stubClient{})

	hist := history.NewStore(dir)
	store := automation.NewStore()
	orch := automation.New(store, registry, metrics.Computer{}, hist, nil)

	cfg := &config.Config{
		Bind:    ":0",
		DataDir: dir,
		DefaultModel: config.ModelSelection{
			ID:       "stub-model",
			Provider: "stub",
		},
	}
	config.Path = dir + "/config.yaml"

	deps := Deps{
		Orchestrator: orch,
		Progress:     store,
		History:      hist,
		Presets:      presets.NewStore(dir),
		Analytics:    analytics.NewRecorder(dir, 0),
		Registry:     registry,
		Config:       cfg,
	}
	return New(deps, []string{testToken}, "test")
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthNoAuth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/automations", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing auth status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/automations", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestContentTypeEnforced(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/eval/metrics", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestComputeMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/eval/metrics", MetricsRequest{
		Prediction: "hello world",
		Reference:  "hello world",
		Metrics:    []string{"em", "rouge"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp MetricsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Scores["em"] != 1.0 {
		t.Errorf("em = %v, want 1.0", resp.Scores["em"])
	}
	if resp.Scores["rouge1"] != 1.0 {
		t.Errorf("rouge1 = %v, want 1.0", resp.Scores["rouge1"])
	}
}

func TestChatEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/llm/chat", ChatRequest{
		Model:    llm.ModelInfo{ID: "m1", Provider: "stub"},
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Output != "stub reply" {
		t.Errorf("output = %q", resp.Output)
	}
}

func TestChatRequiresModel(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/llm/chat", ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != automation.ErrNoModel {
		t.Errorf("error = %q, want %q", resp.Error, automation.ErrNoModel)
	}
}

func TestStartAndListAutomations(t *testing.T) {
	s := newTestServer(t)

	cfg := automation.Config{
		Name: "batch",
		Type: automation.TypeChat,
		Runs: []automation.Run{
			{ID: "r1", Name: "ping", Prompts: []automation.Prompt{{Content: "ping"}}},
		},
	}
	rec := doRequest(t, s, http.MethodPost, "/api/automations", cfg)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var started StartAutomationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if started.ID == "" {
		t.Fatal("expected automation id")
	}

	// Wait for the background execution to finish.
	deadline := time.Now().Add(2 * time.Second)
	for {
		p, ok := s.deps.Progress.Get(started.ID)
		if ok && p.Terminal() {
			if p.Status != automation.StatusCompleted {
				t.Errorf("status = %q, want completed (error %q)", p.Status, p.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("automation did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/automations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list AutomationListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Automations) != 1 {
		t.Fatalf("got %d automations, want 1", len(list.Automations))
	}
}

func TestStartAutomationValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []automation.Config{
		{Type: automation.TypeChat, Runs: []automation.Run{{ID: "r1"}}}, // no name
		{Name: "x", Type: "bogus", Runs: []automation.Run{{ID: "r1"}}},  // bad type
		{Name: "x", Type: automation.TypeChat},                          // no runs
	}
	for i, cfg := range cases {
		rec := doRequest(t, s, http.MethodPost, "/api/automations", cfg)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, rec.Code)
		}
	}
}

func TestClearAutomations(t *testing.T) {
	s := newTestServer(t)

	id := s.deps.Progress.Start(automation.TypeChat, automation.Config{Name: "done"})
	s.deps.Progress.Complete(id, "")
	running := s.deps.Progress.Start(automation.TypeChat, automation.Config{Name: "busy"})

	rec := doRequest(t, s, http.MethodPost, "/api/automations/clear", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list AutomationListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Automations) != 1 || list.Automations[0].ID != running {
		t.Errorf("expected only the running automation to survive, got %+v", list.Automations)
	}
}

func TestDeleteAutomation(t *testing.T) {
	s := newTestServer(t)

	id := s.deps.Progress.Start(automation.TypeChat, automation.Config{Name: "x"})
	s.deps.Progress.Complete(id, "")

	rec := doRequest(t, s, http.MethodDelete, "/api/automations/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := s.deps.Progress.Get(id); ok {
		t.Error("automation still present after delete")
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/automations/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestPresetsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/presets/chat", PresetRequest{Name: "greet", Content: "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/presets/chat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []presets.Preset
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Name != "greet" {
		t.Errorf("unexpected presets: %+v", list)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/presets/chat/greet", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/presets/bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type status = %d, want 400", rec.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/history/evaluations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluations status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/history/chats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chats status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/history/evaluations/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing evaluation status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/history/evaluations/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing evaluation status = %d, want 404", rec.Code)
	}
}

func TestSettingsUpdateConcurrentWithAutomationStart(t *testing.T) {
	s := newTestServer(t)

	send := func(method, path string, body any) {
		data, _ := json.Marshal(body)
		req := httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Authorization", "Bearer "+testToken)
		req.Header.Set("Content-Type", "application/json")
		s.Handler().ServeHTTP(httptest.NewRecorder(), req)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			model := llm.ModelInfo{ID: fmt.Sprintf("model-%d", n), Provider: "stub"}
			send(http.MethodPut, "/api/settings", SettingsUpdateRequest{DefaultModel: &model})
		}(i)
		go func(n int) {
			defer wg.Done()
			cfg := automation.Config{
				Name: fmt.Sprintf("concurrent-%d", n),
				Type: automation.TypeChat,
				Runs: []automation.Run{{ID: "r1", Prompts: []automation.Prompt{{Content: "hi"}}}},
			}
			send(http.MethodPost, "/api/automations", cfg)
		}(i)
	}
	wg.Wait()
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got SettingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DefaultModel.ID != "stub-model" {
		t.Errorf("default model = %q", got.DefaultModel.ID)
	}

	url := "https://hooks.example.com/x"
	rec = doRequest(t, s, http.MethodPut, "/api/settings", SettingsUpdateRequest{WebhookURL: &url})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.WebhookURL != url {
		t.Errorf("webhook url = %q, want %q", got.WebhookURL, url)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	s := newTestServer(t)
	s.deps.Analytics.Record("stub-model", 100, 0.05, 1200, true)

	rec := doRequest(t, s, http.MethodGet, "/api/analytics/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sum analytics.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.TotalRequests != 1 {
		t.Errorf("total requests = %d, want 1", sum.TotalRequests)
	}
}
