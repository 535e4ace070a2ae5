package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"studio/internal/config"
	"studio/internal/llm"
)

// handleAnalyticsSummary handles GET /api/analytics/summary
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Analytics.Summarize())
}

// handleSettings handles GET and PUT /api/settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, s.settingsResponse())

	case http.MethodPut:
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req SettingsUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}

		s.cfgMu.Lock()
		cfg := s.deps.Config
		if req.DefaultModel != nil {
			cfg.DefaultModel = config.ModelSelection{
				ID:       req.DefaultModel.ID,
				Provider: req.DefaultModel.Provider,
			}
		}
		if req.WebhookURL != nil {
			cfg.Webhook.URL = *req.WebhookURL
		}
		if req.WebhookFormat != nil {
			cfg.Webhook.Format = *req.WebhookFormat
		}
		err := config.Save(cfg)
		s.cfgMu.Unlock()

		if err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save settings: %v", err))
			return
		}
		respondJSON(w, http.StatusOK, s.settingsResponse())

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// defaultModel reads the ambient model selection under the config lock.
func (s *Server) defaultModel() llm.ModelInfo {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return llm.ModelInfo{
		ID:       s.deps.Config.DefaultModel.ID,
		Provider: s.deps.Config.DefaultModel.Provider,
	}
}

func (s *Server) settingsResponse() SettingsResponse {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	cfg := s.deps.Config
	return SettingsResponse{
		Bind: cfg.BindAddr(),
		DefaultModel: llm.ModelInfo{
			ID:       cfg.DefaultModel.ID,
			Provider: cfg.DefaultModel.Provider,
		},
		GroqKeySet:      cfg.GroqAPIKey() != "",
		AnthropicKeySet: cfg.AnthropicAPIKey() != "",
		WebhookURL:      cfg.Webhook.URL,
		WebhookFormat:   cfg.Webhook.Format,
		RetentionDays:   cfg.Analytics.RetentionDays,
	}
}
