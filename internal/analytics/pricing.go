package analytics

import "strings"

// costPerToken holds approximate per-token USD rates for hosted models.
var costPerToken = map[string]float64{
	"llama-3.1-8b-instant":     0.0000002,  // $0.20 per 1M tokens
	"llama-3.1-70b-versatile":  0.0000007,  // $0.70 per 1M tokens
	"llama-3.1-405b-versatile": 0.0000027,  // $2.70 per 1M tokens
	"llama-3.1-90b-versatile":  0.0000009,  // $0.90 per 1M tokens
	"mixtral-8x7b-32768":       0.00000027, // $0.27 per 1M tokens
	"gemma-7b-it":              0.0000002,
	"gemma2-9b-it":             0.0000002,
	"llama-3.1-8b-instruct":    0.0000002,
	"llama-3.1-70b-instruct":   0.0000007,
}

const defaultCostPerToken = 0.0000005 // $0.50 per 1M tokens

// CostFor estimates the USD cost of a call. Exact model-id matches win;
// otherwise the first pricing entry contained in the id applies, falling
// back to a flat default rate.
func CostFor(modelID string, tokens int) float64 {
	key := strings.ToLower(modelID)
	if rate, ok := costPerToken[key]; ok {
		return float64(tokens) * rate
	}
	for pattern, rate := range costPerToken {
		if strings.Contains(key, pattern) {
			return float64(tokens) * rate
		}
	}
	return float64(tokens) * defaultCostPerToken
}
