package history

import (
	"time"

	"studio/internal/llm"
)

// UsedText captures the texts that fed an evaluation or chat.
type UsedText struct {
	OCRText       string        `json:"ocrText,omitempty"`
	ReferenceText string        `json:"referenceText,omitempty"`
	PromptText    string        `json:"promptText,omitempty"`
	Context       string        `json:"context,omitempty"`
	ChatHistory   []llm.Message `json:"chatHistory,omitempty"`
}

// FileInfo records which uploaded files fed an evaluation.
type FileInfo struct {
	SourceFileName    string `json:"sourceFileName,omitempty"`
	ReferenceFileName string `json:"referenceFileName,omitempty"`
	PromptFileName    string `json:"promptFileName,omitempty"`
}

// EvalResults holds the produced output and its scores.
type EvalResults struct {
	Output string             `json:"output,omitempty"`
	Scores map[string]float64 `json:"scores,omitempty"`
	Usage  llm.Usage          `json:"usage,omitempty"`
}

// SavedEvaluation is one persisted OCR/prompt evaluation.
type SavedEvaluation struct {
	ID         string               `json:"id"`
	Type       string               `json:"type"` // "ocr" or "prompt"
	Title      string               `json:"title"`
	Model      llm.ModelInfo        `json:"model"`
	Parameters llm.GenerationParams `json:"parameters"`
	Metrics    []string             `json:"metrics,omitempty"`
	UsedText   UsedText             `json:"usedText"`
	Files      FileInfo             `json:"files"`
	Results    *EvalResults         `json:"results,omitempty"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
}

// SavedChat is one persisted chat transcript.
type SavedChat struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Model           llm.ModelInfo        `json:"model"`
	Parameters      llm.GenerationParams `json:"parameters"`
	Context         string               `json:"context,omitempty"`
	MessagesSummary string               `json:"messagesSummary,omitempty"`
	Messages        []llm.Message        `json:"messages,omitempty"`
	LastActivityAt  time.Time            `json:"lastActivityAt"`
}

// RunSummary is one run's outcome inside an automation aggregate.
type RunSummary struct {
	RunID   string             `json:"runId"`
	RunName string             `json:"runName"`
	ModelID string             `json:"modelId,omitempty"`
	Output  string             `json:"output,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// SavedAutomation is the aggregate record of one finished automation.
type SavedAutomation struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	Runs       []RunSummary `json:"runs"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
}
