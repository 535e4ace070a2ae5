package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Client invokes a model with a chat-style message list. The raw return
// value is provider-shaped (string or object); callers normalize it with
// automation.Normalize before use.
type Client interface {
	// Invoke sends messages to the given model and returns the provider's
	// raw response. It returns an error on any backend failure (HTTP error,
	// timeout, invalid model).
	Invoke(ctx context.Context, modelID string, messages []Message, params GenerationParams) (any, error)

	// Name returns the provider name ("groq", "anthropic", ...).
	Name() string
}

// UsageRecorder receives per-call usage for analytics. Implemented by
// analytics.Recorder; a nil recorder disables recording.
type UsageRecorder interface {
	Record(model string, tokens int, costUSD float64, durationMs int64, success bool)
}

// Registry maps provider names to clients.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
	def     string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client under its provider name. The first registered
// client becomes the default.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.clients) == 0 {
		r.def = c.Name()
	}
	r.clients[c.Name()] = c
}

// Resolve returns the client for the given provider name. An empty name
// resolves to the default provider.
func (r *Registry) Resolve(provider string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if provider == "" {
		provider = r.def
	}
	c, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	return c, nil
}

// Providers returns the registered provider names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
