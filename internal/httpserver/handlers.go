package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"studio/internal/automation"
	"studio/internal/history"
	"studio/internal/llm"
	"studio/internal/metrics"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
	})
}

// handleListModels handles GET /api/llm/models
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp := ModelsResponse{Models: []llm.ModelListing{}}
	for _, name := range s.deps.Registry.Providers() {
		client, err := s.deps.Registry.Resolve(name)
		if err != nil {
			continue
		}
		lister, ok := client.(interface {
			ListModels(context.Context) ([]llm.ModelListing, string, error)
		})
		if !ok {
			continue
		}
		models, warning, err := lister.ListModels(ctx)
		if err != nil {
			// Soft failure: report what we could not fetch, keep going.
			resp.Warning = fmt.Sprintf("%s: %v", name, err)
			continue
		}
		if warning != "" {
			resp.Warning = warning
		}
		resp.Models = append(resp.Models, models...)
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleChat handles POST /api/llm/chat: a single ad-hoc model invocation
// with normalized output.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if req.Model.ID == "" {
		respondError(w, http.StatusBadRequest, automation.ErrNoModel)
		return
	}
	if len(req.Messages) == 0 {
		respondError(w, http.StatusBadRequest, "field 'messages' is required")
		return
	}

	client, err := s.deps.Registry.Resolve(req.Model.Provider)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	callStart := time.Now()
	raw, err := client.Invoke(ctx, req.Model.ID, req.Messages, req.Params)
	if err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("model call failed: %v", err))
		return
	}

	n := automation.Normalize(raw, callStart)
	resp := ChatResponse{Output: n.Text, Usage: n.Usage}

	if req.Save {
		chatID := req.ChatID
		if chatID == "" {
			chatID = uuid.NewString()
		}
		transcript := append(append([]llm.Message{}, req.Messages...), llm.Message{Role: "assistant", Content: n.Text})
		rec := history.SavedChat{
			ID:             chatID,
			Title:          chatTitle(req.Messages),
			Model:          req.Model,
			Parameters:     req.Params,
			Messages:       transcript,
			LastActivityAt: time.Now(),
		}
		if err := s.deps.History.SaveChat(rec); err != nil {
			// Persistence is best effort; the reply is still returned.
			respondJSON(w, http.StatusOK, resp)
			return
		}
		resp.ChatID = chatID
	}

	respondJSON(w, http.StatusOK, resp)
}

func chatTitle(messages []llm.Message) string {
	for _, m := range messages {
		if m.Role == "user" {
			if len(m.Content) > 60 {
				return m.Content[:60]
			}
			return m.Content
		}
	}
	return "chat"
}

// handleComputeMetrics handles POST /api/eval/metrics
func (s *Server) handleComputeMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if len(req.Metrics) == 0 {
		respondError(w, http.StatusBadRequest, "field 'metrics' is required")
		return
	}

	scores := metrics.Compute(req.Prediction, req.Reference, req.Metrics, req.Options)
	respondJSON(w, http.StatusOK, MetricsResponse{Scores: scores})
}
