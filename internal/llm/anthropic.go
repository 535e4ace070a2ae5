package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient serves Anthropic models through the official SDK.
type AnthropicClient struct {
	client   anthropic.Client
	recorder UsageRecorder
}

// NewAnthropicClient creates an Anthropic client. recorder may be nil.
func NewAnthropicClient(apiKey string, recorder UsageRecorder) *AnthropicClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicClient{
		client:   anthropic.NewClient(opts...),
		recorder: recorder,
	}
}

// Name returns the provider name.
func (a *AnthropicClient) Name() string { return "anthropic" }

// Invoke sends the conversation to the Messages API. System messages are
// lifted into the request's system field; the Anthropic API rejects them
// inside the message list.
func (a *AnthropicClient) Invoke(ctx context.Context, modelID string, messages []Message, params GenerationParams) (any, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: int64(maxTokens),
		Messages:  turns,
		System:    system,
	}
	if params.Temperature != nil {
		req.Temperature = anthropic.Float(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = anthropic.Float(*params.TopP)
	}
	if params.TopK != 0 {
		req.TopK = anthropic.Int(int64(params.TopK))
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, req)
	if err != nil {
		if a.recorder != nil {
			a.recorder.Record(modelID, 0, 0, time.Since(start).Milliseconds(), false)
		}
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	total := int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	if a.recorder != nil {
		a.recorder.Record(modelID, total, 0, time.Since(start).Milliseconds(), true)
	}

	return map[string]any{
		"output": b.String(),
		"usage": map[string]any{
			"prompt_tokens":     msg.Usage.InputTokens,
			"completion_tokens": msg.Usage.OutputTokens,
			"total_tokens":      total,
			"stop_reason":       string(msg.StopReason),
			"elapsed_ms":        time.Since(start).Milliseconds(),
		},
	}, nil
}
