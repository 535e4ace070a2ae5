package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"studio/internal/automation"
)

// handleAutomations handles GET and POST /api/automations.
// GET returns the progress snapshot, newest first. POST accepts an
// automation config and starts executing it in the background.
func (s *Server) handleAutomations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, AutomationListResponse{Automations: s.deps.Progress.List()})

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
		var cfg automation.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}

		if cfg.Name == "" {
			respondError(w, http.StatusBadRequest, "field 'name' is required")
			return
		}
		if cfg.Type != automation.TypeChat && cfg.Type != automation.TypeOCR {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown automation type %q", cfg.Type))
			return
		}
		if len(cfg.Runs) == 0 {
			respondError(w, http.StatusBadRequest, "field 'runs' must not be empty")
			return
		}

		ambient := s.defaultModel()

		// Detached from the request: the automation outlives the HTTP
		// round trip and is observed through the progress store.
		id := s.deps.Orchestrator.StartAsync(context.Background(), cfg, ambient)

		respondJSON(w, http.StatusAccepted, StartAutomationResponse{ID: id, Status: string(automation.StatusRunning)})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleClearAutomations handles POST /api/automations/clear
func (s *Server) handleClearAutomations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.deps.Progress.ClearCompleted()
	respondJSON(w, http.StatusOK, AutomationListResponse{Automations: s.deps.Progress.List()})
}

// handleAutomationByID handles GET and DELETE /api/automations/{id}
func (s *Server) handleAutomationByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/automations/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusBadRequest, "invalid path format (expected /api/automations/{id})")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, ok := s.deps.Progress.Get(id)
		if !ok {
			respondError(w, http.StatusNotFound, fmt.Sprintf("automation %s not found", id))
			return
		}
		respondJSON(w, http.StatusOK, p)

	case http.MethodDelete:
		if _, ok := s.deps.Progress.Get(id); !ok {
			respondError(w, http.StatusNotFound, fmt.Sprintf("automation %s not found", id))
			return
		}
		s.deps.Progress.Remove(id)
		respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "removed"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
