package automation

import (
	"encoding/json"
	"fmt"
	"time"

	"studio/internal/llm"
)

// Normalized is the canonical form of a provider response.
type Normalized struct {
	Text  string
	Usage llm.Usage
}

// Candidate key lists per canonical usage field, in lookup order. Providers
// disagree on casing, so every field carries both spellings.
var (
	textKeys            = []string{"output", "text", "response"}
	promptTokenKeys     = []string{"promptTokens", "prompt_tokens"}
	completionTokenKeys = []string{"completionTokens", "completion_tokens"}
	totalTokenKeys      = []string{"totalTokens", "total_tokens"}
	firstTokenKeys      = []string{"firstTokenMs", "first_token_ms"}
	elapsedKeys         = []string{"elapsedMs", "elapsed_ms"}
	stopReasonKeys      = []string{"stopReason", "stop_reason"}
	usageContainerKeys  = []string{"usage", "metrics", "meta"}
)

// Normalize converts a raw provider response into canonical text + usage.
// A plain string maps to text with empty usage. Objects are scanned for the
// first matching text key, and usage fields are resolved through the alias
// lists above against the top-level object and any nested usage container.
// When elapsed time is absent it is derived from callStart, clamped at 0.
// Every call site (chat send, OCR build, automation runs) goes through this
// one function.
func Normalize(raw any, callStart time.Time) Normalized {
	switch v := raw.(type) {
	case string:
		return Normalized{Text: v}
	case map[string]any:
		return normalizeObject(v, callStart)
	case json.RawMessage:
		var obj map[string]any
		if err := json.Unmarshal(v, &obj); err == nil {
			return normalizeObject(obj, callStart)
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return Normalized{Text: s}
		}
		return Normalized{Text: string(v)}
	case nil:
		return Normalized{}
	default:
		return Normalized{Text: fmt.Sprint(v)}
	}
}

func normalizeObject(obj map[string]any, callStart time.Time) Normalized {
	n := Normalized{}

	for _, key := range textKeys {
		if s, ok := obj[key].(string); ok {
			n.Text = s
			break
		}
	}

	// Search the top-level object first, then each nested container.
	containers := []map[string]any{obj}
	for _, key := range usageContainerKeys {
		if sub, ok := obj[key].(map[string]any); ok {
			containers = append(containers, sub)
		}
	}

	promptTokens, _ := lookupInt(containers, promptTokenKeys)
	completionTokens, _ := lookupInt(containers, completionTokenKeys)
	totalTokens, _ := lookupInt(containers, totalTokenKeys)
	firstTokenMs, _ := lookupInt(containers, firstTokenKeys)
	elapsedMs, hasElapsed := lookupInt(containers, elapsedKeys)

	n.Usage.PromptTokens = int(promptTokens)
	n.Usage.CompletionTokens = int(completionTokens)
	n.Usage.TotalTokens = int(totalTokens)
	n.Usage.FirstTokenMs = firstTokenMs
	n.Usage.ElapsedMs = elapsedMs
	n.Usage.StopReason = lookupString(containers, stopReasonKeys)

	// An explicit elapsed value wins, even when it is 0. The wall-clock
	// fallback applies only when the response carries none.
	if !hasElapsed && !callStart.IsZero() {
		elapsed := time.Since(callStart).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
		n.Usage.ElapsedMs = elapsed
	}
	return n
}

func lookupInt(containers []map[string]any, keys []string) (int64, bool) {
	for _, c := range containers {
		for _, key := range keys {
			switch v := c[key].(type) {
			case float64:
				return int64(v), true
			case int:
				return int64(v), true
			case int64:
				return v, true
			case json.Number:
				if i, err := v.Int64(); err == nil {
					return i, true
				}
			}
		}
	}
	return 0, false
}

func lookupString(containers []map[string]any, keys []string) string {
	for _, c := range containers {
		for _, key := range keys {
			if s, ok := c[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
