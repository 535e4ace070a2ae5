package llm

// Message is one turn of a chat conversation sent to a model.
type Message struct {
	Role    string `json:"role" yaml:"role"` // "system", "user" or "assistant"
	Content string `json:"content" yaml:"content"`
}

// GenerationParams are the sampling parameters for one model call.
// Temperature and TopP are pointers so an explicit 0 (greedy sampling)
// is distinguishable from "use the provider default" (Groq: temperature
// 0.2, top_p 1.0). MaxTokens 0 falls back to the provider default of 512.
type GenerationParams struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// Usage is the canonical usage record produced by response normalization.
type Usage struct {
	PromptTokens     int    `json:"promptTokens,omitempty"`
	CompletionTokens int    `json:"completionTokens,omitempty"`
	TotalTokens      int    `json:"totalTokens,omitempty"`
	FirstTokenMs     int64  `json:"firstTokenMs,omitempty"`
	ElapsedMs        int64  `json:"elapsedMs,omitempty"`
	StopReason       string `json:"stopReason,omitempty"`
}

// ModelInfo identifies a model and the provider that serves it.
type ModelInfo struct {
	ID       string `json:"id" yaml:"id"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// ModelListing is one entry returned by a provider's model catalog.
type ModelListing struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
	Active  bool   `json:"active,omitempty"`
}
