package automation

import (
	"time"

	"studio/internal/llm"
)

// Type discriminates what kind of work an automation's runs perform.
type Type string

const (
	TypeChat Type = "chat"
	TypeOCR  Type = "ocr"
)

// Status is the lifecycle state of an automation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Prompt is one chat turn within a chat-type run.
type Prompt struct {
	Content string               `json:"content" yaml:"content"`
	System  string               `json:"system,omitempty" yaml:"system,omitempty"`
	Params  llm.GenerationParams `json:"params,omitempty" yaml:"params,omitempty"`
}

// Run is one unit of work within an automation. ModelID/ModelProvider
// override the ambient model for this run only.
type Run struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	ModelID       string `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	ModelProvider string `json:"modelProvider,omitempty" yaml:"modelProvider,omitempty"`

	// Chat runs: ordered prompts, each carrying its own parameters.
	Prompts []Prompt `json:"prompts,omitempty" yaml:"prompts,omitempty"`

	// OCR runs: a template rendered against the source text, a reference to
	// score against, and the metrics to compute.
	PromptTemplate string               `json:"promptTemplate,omitempty" yaml:"promptTemplate,omitempty"`
	SourceText     string               `json:"sourceText,omitempty" yaml:"sourceText,omitempty"`
	SourceFile     string               `json:"sourceFile,omitempty" yaml:"sourceFile,omitempty"`
	ReferenceText  string               `json:"referenceText,omitempty" yaml:"referenceText,omitempty"`
	ReferenceFile  string               `json:"referenceFile,omitempty" yaml:"referenceFile,omitempty"`
	Params         llm.GenerationParams `json:"params,omitempty" yaml:"params,omitempty"`
	Metrics        []string             `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Config is a named, ordered batch of runs submitted as one unit.
// Run order is significant: execution is strictly sequential.
type Config struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
	Runs []Run  `json:"runs" yaml:"runs"`
}

// RunResult is the recorded outcome of one run. Exactly one of Error or
// the output fields is meaningful.
type RunResult struct {
	RunName    string             `json:"runName"`
	ModelID    string             `json:"modelId,omitempty"`
	Output     string             `json:"output,omitempty"`
	Transcript []llm.Message      `json:"transcript,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Usage      llm.Usage          `json:"usage,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Progress is one entry in the progress store: the observable execution
// state of an in-flight or finished automation.
type Progress struct {
	ID                 string     `json:"id"`
	Type               Type       `json:"type"`
	Config             Config     `json:"config"`
	CurrentRunIndex    int        `json:"currentRunIndex"`
	CurrentPromptIndex int        `json:"currentPromptIndex"`
	Status             Status     `json:"status"`
	StartTime          time.Time  `json:"startTime"`
	EndTime            *time.Time `json:"endTime,omitempty"`
	Error              string     `json:"error,omitempty"`
}

// Terminal reports whether the progress entry has reached a final state.
func (p Progress) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusError
}
