package httpserver

import (
	"studio/internal/automation"
	"studio/internal/llm"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ModelsResponse lists the models available per provider.
type ModelsResponse struct {
	Models  []llm.ModelListing `json:"models"`
	Warning string             `json:"warning,omitempty"`
}

// ChatRequest is a single ad-hoc model invocation.
type ChatRequest struct {
	Model    llm.ModelInfo        `json:"model"`
	Messages []llm.Message        `json:"messages"`
	Params   llm.GenerationParams `json:"params,omitempty"`
	Save     bool                 `json:"save,omitempty"` // persist the exchange to chat history
	ChatID   string               `json:"chatId,omitempty"`
}

// ChatResponse carries the normalized reply of a chat invocation.
type ChatResponse struct {
	Output string    `json:"output"`
	Usage  llm.Usage `json:"usage"`
	ChatID string    `json:"chatId,omitempty"`
}

// MetricsRequest scores a prediction against a reference.
type MetricsRequest struct {
	Prediction string         `json:"prediction"`
	Reference  string         `json:"reference"`
	Metrics    []string       `json:"metrics"`
	Options    map[string]any `json:"options,omitempty"`
}

// MetricsResponse holds the computed scores by metric name.
type MetricsResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// StartAutomationResponse acknowledges an accepted automation.
type StartAutomationResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AutomationListResponse is the progress store snapshot, newest first.
type AutomationListResponse struct {
	Automations []automation.Progress `json:"automations"`
}

// PresetRequest creates a named preset.
type PresetRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// SettingsResponse mirrors the mutable parts of the configuration.
// API keys are reported as presence flags, never echoed back.
type SettingsResponse struct {
	Bind            string        `json:"bind"`
	DefaultModel    llm.ModelInfo `json:"defaultModel"`
	GroqKeySet      bool          `json:"groqKeySet"`
	AnthropicKeySet bool          `json:"anthropicKeySet"`
	WebhookURL      string        `json:"webhookUrl,omitempty"`
	WebhookFormat   string        `json:"webhookFormat,omitempty"`
	RetentionDays   int           `json:"retentionDays,omitempty"`
}

// SettingsUpdateRequest carries settable fields; empty fields are left alone.
type SettingsUpdateRequest struct {
	DefaultModel  *llm.ModelInfo `json:"defaultModel,omitempty"`
	WebhookURL    *string        `json:"webhookUrl,omitempty"`
	WebhookFormat *string        `json:"webhookFormat,omitempty"`
}
