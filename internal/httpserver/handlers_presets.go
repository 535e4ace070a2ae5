package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// handlePresets routes /api/presets/{type} and /api/presets/{type}/{name}.
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/presets/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		respondError(w, http.StatusBadRequest, "invalid path format (expected /api/presets/{type})")
		return
	}
	presetType := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		list, err := s.deps.Presets.List(presetType)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, list)

	case len(parts) == 1 && r.Method == http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req PresetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "field 'name' is required")
			return
		}
		if err := s.deps.Presets.Create(presetType, req.Name, req.Content); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusCreated, map[string]string{"name": req.Name, "status": "created"})

	case len(parts) == 2 && r.Method == http.MethodDelete:
		name := parts[1]
		if err := s.deps.Presets.Delete(presetType, name); err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deleted"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
