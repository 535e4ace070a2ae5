package httpserver

import (
	"fmt"
	"net/http"
	"strings"
)

// handleListEvaluations handles GET /api/history/evaluations
func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	recs, err := s.deps.History.ListEvaluations()
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list evaluations: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// handleEvaluationByID handles GET and DELETE /api/history/evaluations/{id}
func (s *Server) handleEvaluationByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/history/evaluations/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusBadRequest, "invalid path format (expected /api/history/evaluations/{id})")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.deps.History.GetEvaluation(id)
		if err != nil {
			respondError(w, http.StatusNotFound, fmt.Sprintf("evaluation not found: %v", err))
			return
		}
		respondJSON(w, http.StatusOK, rec)

	case http.MethodDelete:
		if err := s.deps.History.DeleteEvaluation(id); err != nil {
			respondError(w, http.StatusNotFound, fmt.Sprintf("delete failed: %v", err))
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleListChats handles GET /api/history/chats
func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	recs, err := s.deps.History.ListChats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list chats: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// handleChatByID handles GET and DELETE /api/history/chats/{id}
func (s *Server) handleChatByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/history/chats/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusBadRequest, "invalid path format (expected /api/history/chats/{id})")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.deps.History.GetChat(id)
		if err != nil {
			respondError(w, http.StatusNotFound, fmt.Sprintf("chat not found: %v", err))
			return
		}
		respondJSON(w, http.StatusOK, rec)

	case http.MethodDelete:
		if err := s.deps.History.DeleteChat(id); err != nil {
			respondError(w, http.StatusNotFound, fmt.Sprintf("delete failed: %v", err))
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleListSavedAutomations handles GET /api/history/automations
func (s *Server) handleListSavedAutomations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	recs, err := s.deps.History.ListAutomations()
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list automations: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, recs)
}
