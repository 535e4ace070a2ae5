package httpserver

import (
	"context"
	"log"
	"net/http"
	"sync"

	"studio/internal/analytics"
	"studio/internal/automation"
	"studio/internal/config"
	"studio/internal/history"
	"studio/internal/llm"
	"studio/internal/presets"
)

// Deps are the collaborators the API server exposes.
type Deps struct {
	Orchestrator *automation.Orchestrator
	Progress     *automation.Store
	History      *history.Store
	Presets      *presets.Store
	Analytics    *analytics.Recorder
	Registry     *llm.Registry
	Config       *config.Config
}

// Server is the HTTP API server for the studio.
type Server struct {
	mux     *http.ServeMux
	srv     *http.Server
	deps    Deps
	tokens  []string
	version string

	// cfgMu guards Deps.Config, which the settings handler mutates
	// while other handlers read from concurrent requests.
	cfgMu sync.RWMutex
}

// New creates the API server and registers its routes.
func New(deps Deps, tokens []string, version string) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		deps:    deps,
		tokens:  tokens,
		version: version,
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes with middleware
func (s *Server) registerRoutes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))

	// Authenticated endpoints
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(h)))
	}

	s.mux.HandleFunc("/api/llm/models", auth(s.handleListModels))
	s.mux.HandleFunc("/api/llm/chat", auth(s.handleChat))
	s.mux.HandleFunc("/api/eval/metrics", auth(s.handleComputeMetrics))

	s.mux.HandleFunc("/api/history/evaluations", auth(s.handleListEvaluations))
	s.mux.HandleFunc("/api/history/evaluations/", auth(s.handleEvaluationByID))
	s.mux.HandleFunc("/api/history/chats", auth(s.handleListChats))
	s.mux.HandleFunc("/api/history/chats/", auth(s.handleChatByID))
	s.mux.HandleFunc("/api/history/automations", auth(s.handleListSavedAutomations))

	s.mux.HandleFunc("/api/presets/", auth(s.handlePresets))

	s.mux.HandleFunc("/api/analytics/summary", auth(s.handleAnalyticsSummary))
	s.mux.HandleFunc("/api/settings", auth(s.handleSettings))

	s.mux.HandleFunc("/api/automations", auth(s.handleAutomations))
	s.mux.HandleFunc("/api/automations/clear", auth(s.handleClearAutomations))
	// WebSocket upgrade bypasses the JSON content-type check.
	s.mux.HandleFunc("/api/automations/ws", loggingMiddleware(s.authMiddleware(s.handleAutomationFeed)))
	s.mux.HandleFunc("/api/automations/", auth(s.handleAutomationByID))
}

// Handler returns the root handler, for tests and for mounting.
func (s *Server) Handler() http.Handler { return s.mux }

// Handle mounts an additional handler under the given pattern, behind
// bearer auth. Used to expose the MCP SSE transport on the same port.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.HandleFunc(pattern, loggingMiddleware(s.authMiddleware(h.ServeHTTP)))
}

// ListenAndServe starts the HTTP server on the given address
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[http] starting server on %s", addr)
	log.Printf("[http] registered %d valid tokens", len(s.tokens))
	s.srv = &http.Server{Addr: addr, Handler: s.mux}
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
