package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studio/internal/analytics"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// Default sampling parameters applied when a caller leaves them unset.
const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.2
	defaultTopP        = 1.0
)

// GroqClient calls Groq's OpenAI-compatible Chat Completions API.
type GroqClient struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	recorder UsageRecorder
}

// NewGroqClient creates a Groq client. recorder may be nil to disable
// usage recording.
func NewGroqClient(apiKey, baseURL string, recorder UsageRecorder) *GroqClient {
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	return &GroqClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 60 * time.Second},
		recorder: recorder,
	}
}

// Name returns the provider name.
func (g *GroqClient) Name() string { return "groq" }

// groqRequest is the Chat Completions request body. Groq does not support
// top_k, so it is never sent.
type groqRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

// Invoke sends a chat completion request. The returned value is an object
// with "output" text plus a snake_case usage block, matching the studio
// API's historical response shape.
func (g *GroqClient) Invoke(ctx context.Context, modelID string, messages []Message, params GenerationParams) (any, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	body := groqRequest{
		Model:       modelID,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = defaultMaxTokens
	}
	if params.Temperature != nil {
		body.Temperature = *params.Temperature
	}
	if params.TopP != nil {
		body.TopP = *params.TopP
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		g.record(modelID, 0, start, false)
		return nil, fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.record(modelID, 0, start, false)
		return nil, fmt.Errorf("groq read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		g.record(modelID, 0, start, false)
		return nil, fmt.Errorf("groq API error: %d - %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var parsed groqResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		g.record(modelID, 0, start, false)
		return nil, fmt.Errorf("groq decode response: %w", err)
	}

	text := ""
	stopReason := ""
	if len(parsed.Choices) > 0 {
		text = parsed.Choices[0].Message.Content
		stopReason = parsed.Choices[0].FinishReason
	}

	totalTokens := 0
	if v, ok := parsed.Usage["total_tokens"].(float64); ok {
		totalTokens = int(v)
	}
	g.record(modelID, totalTokens, start, true)

	usage := map[string]any{}
	for k, v := range parsed.Usage {
		usage[k] = v
	}
	if stopReason != "" {
		usage["stop_reason"] = stopReason
	}
	usage["elapsed_ms"] = time.Since(start).Milliseconds()

	return map[string]any{
		"output": text,
		"usage":  usage,
	}, nil
}

func (g *GroqClient) record(modelID string, tokens int, start time.Time, success bool) {
	if g.recorder == nil {
		return
	}
	cost := analytics.CostFor(modelID, tokens)
	g.recorder.Record(modelID, tokens, cost, time.Since(start).Milliseconds(), success)
}

// ListModels fetches the provider's model catalog. A non-fatal problem
// (missing key, unreachable API) is returned as a warning with an empty
// list, so the models page can render without hard-failing.
func (g *GroqClient) ListModels(ctx context.Context) ([]ModelListing, string, error) {
	if g.apiKey == "" {
		return nil, "GROQ_API_KEY not set; no models available", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models", nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Sprintf("model list unavailable: %v", err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Sprintf("model list unavailable: %d - %s", resp.StatusCode, bytes.TrimSpace(body)), nil
	}

	var parsed struct {
		Data []ModelListing `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("decode model list: %w", err)
	}
	return parsed.Data, "", nil
}
