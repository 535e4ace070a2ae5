package automation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio/internal/history"
	"studio/internal/llm"
)

// ErrNoModel is the run-level error recorded when neither the run nor the
// ambient selection names a model. It is detected before any client call.
const ErrNoModel = "No model specified for this run"

// ocrPlaceholder marks where the source text is substituted into an OCR
// run's prompt template.
const ocrPlaceholder = "{{ocr_text}}"

// ClientResolver maps a provider name to an invocation client.
// *llm.Registry satisfies this.
type ClientResolver interface {
	Resolve(provider string) (llm.Client, error)
}

// MetricsComputer scores a prediction against a reference.
type MetricsComputer interface {
	Compute(ctx context.Context, prediction, reference string, metrics []string) (map[string]float64, error)
}

// HistorySaver durably stores evaluation/chat/automation records. All
// saves are best-effort from the orchestrator's perspective: failures are
// logged, never propagated.
type HistorySaver interface {
	SaveEvaluation(rec history.SavedEvaluation) error
	SaveChat(rec history.SavedChat) error
	SaveAutomation(rec history.SavedAutomation) error
}

// ReferenceLoader resolves a reference-file name to its text content.
type ReferenceLoader func(name string) (string, error)

// Orchestrator executes an automation's runs sequentially, updating the
// progress store after each step and collecting per-run results. A single
// run's failure never aborts the automation.
type Orchestrator struct {
	store   *Store
	clients ClientResolver
	metrics MetricsComputer
	history HistorySaver
	loadRef ReferenceLoader
}

// New creates an orchestrator. metrics, history and loadRef may be nil
// when the corresponding capability is not wired (OCR runs then fail with
// an explicit error rather than panicking).
func New(store *Store, clients ClientResolver, metrics MetricsComputer, hist HistorySaver, loadRef ReferenceLoader) *Orchestrator {
	return &Orchestrator{
		store:   store,
		clients: clients,
		metrics: metrics,
		history: hist,
		loadRef: loadRef,
	}
}

// Store exposes the progress store the orchestrator writes to.
func (o *Orchestrator) Store() *Store { return o.store }

// Execute runs every run of cfg in list order, never concurrently, and
// returns the per-run result map keyed by run id. Errors are contained at
// the run boundary and returned as data; Execute itself does not fail.
// Cancellation is cooperative and only observed between runs, so a
// half-finished transcript is never persisted for an interrupted run.
func (o *Orchestrator) Execute(ctx context.Context, cfg Config, ambient llm.ModelInfo) map[string]RunResult {
	startedAt := time.Now()
	autoID := o.store.Start(cfg.Type, cfg)
	log.Printf("[automation] %s %q started (%d runs)", autoID, cfg.Name, len(cfg.Runs))
	return o.execute(ctx, autoID, startedAt, cfg, ambient)
}

// StartAsync registers the automation in the progress store and executes
// it in the background. The returned id is observable through the store
// immediately, before the first run begins.
func (o *Orchestrator) StartAsync(ctx context.Context, cfg Config, ambient llm.ModelInfo) string {
	startedAt := time.Now()
	autoID := o.store.Start(cfg.Type, cfg)
	log.Printf("[automation] %s %q started (%d runs)", autoID, cfg.Name, len(cfg.Runs))
	go o.execute(ctx, autoID, startedAt, cfg, ambient)
	return autoID
}

func (o *Orchestrator) execute(ctx context.Context, autoID string, startedAt time.Time, cfg Config, ambient llm.ModelInfo) map[string]RunResult {
	results := make(map[string]RunResult, len(cfg.Runs))
	summaries := make([]history.RunSummary, 0, len(cfg.Runs))
	errorCount := 0

	for i, run := range cfg.Runs {
		o.store.Update(autoID, i, 0)

		var res RunResult
		if err := ctx.Err(); err != nil {
			res = RunResult{RunName: run.Name, Error: err.Error()}
		} else {
			res = o.executeRun(ctx, autoID, i, cfg.Type, run, ambient)
		}
		if res.Error != "" {
			errorCount++
			log.Printf("[automation] %s run %q failed: %s", autoID, run.Name, res.Error)
		}
		results[run.ID] = res
		summaries = append(summaries, history.RunSummary{
			RunID:   run.ID,
			RunName: res.RunName,
			ModelID: res.ModelID,
			Output:  res.Output,
			Scores:  res.Scores,
			Error:   res.Error,
		})
	}

	errMsg := ""
	if errorCount > 0 {
		if errorCount == len(cfg.Runs) {
			errMsg = "All runs failed"
		} else {
			errMsg = fmt.Sprintf("%d runs failed", errorCount)
		}
	}
	o.store.Complete(autoID, errMsg)

	status := StatusCompleted
	if errMsg != "" {
		status = StatusError
	}
	if o.history != nil {
		agg := history.SavedAutomation{
			ID:         autoID,
			Name:       cfg.Name,
			Type:       string(cfg.Type),
			Status:     string(status),
			Error:      errMsg,
			Runs:       summaries,
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		}
		if err := o.history.SaveAutomation(agg); err != nil {
			log.Printf("[automation] %s aggregate save failed: %v", autoID, err)
		}
	}

	log.Printf("[automation] %s finished: %s", autoID, status)
	return results
}

// executeRun is the per-run guard: every failure inside it, including a
// panic, becomes a run-level error so the remaining runs still execute.
func (o *Orchestrator) executeRun(ctx context.Context, autoID string, runIdx int, typ Type, run Run, ambient llm.ModelInfo) (res RunResult) {
	res = RunResult{RunName: run.Name}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("run panicked: %v", r)
		}
	}()

	modelID, provider := run.ModelID, run.ModelProvider
	if modelID == "" {
		modelID, provider = ambient.ID, ambient.Provider
	}
	if modelID == "" {
		res.Error = ErrNoModel
		return res
	}
	res.ModelID = modelID

	client, err := o.clients.Resolve(provider)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	switch typ {
	case TypeOCR:
		o.runOCR(ctx, run, client, modelID, &res)
	default:
		o.runChat(ctx, autoID, runIdx, run, client, modelID, &res)
	}
	return res
}

// runChat executes the run's prompts strictly in order. Each request
// carries the full transcript produced so far, so out-of-order execution
// would corrupt conversation context. The growing transcript is persisted
// after every prompt, best-effort.
func (o *Orchestrator) runChat(ctx context.Context, autoID string, runIdx int, run Run, client llm.Client, modelID string, res *RunResult) {
	chatID := uuid.NewString()
	var transcript []llm.Message
	var lastParams llm.GenerationParams
	var lastSystem string

	for pi, prompt := range run.Prompts {
		o.store.Update(autoID, runIdx, pi)

		msgs := make([]llm.Message, 0, len(transcript)+2)
		if prompt.System != "" {
			msgs = append(msgs, llm.Message{Role: "system", Content: prompt.System})
		}
		msgs = append(msgs, transcript...)
		msgs = append(msgs, llm.Message{Role: "user", Content: prompt.Content})

		start := time.Now()
		raw, err := client.Invoke(ctx, modelID, msgs, prompt.Params)
		if err != nil {
			res.Error = err.Error()
			return
		}
		n := Normalize(raw, start)

		transcript = append(transcript,
			llm.Message{Role: "user", Content: prompt.Content},
			llm.Message{Role: "assistant", Content: n.Text},
		)
		res.Output = n.Text
		res.Usage = n.Usage
		lastParams = prompt.Params
		lastSystem = prompt.System

		if o.history != nil {
			rec := history.SavedChat{
				ID:             chatID,
				Title:          run.Name,
				Model:          llm.ModelInfo{ID: modelID, Provider: client.Name()},
				Parameters:     lastParams,
				Context:        lastSystem,
				Messages:       append([]llm.Message(nil), transcript...),
				LastActivityAt: time.Now(),
			}
			if err := o.history.SaveChat(rec); err != nil {
				log.Printf("[automation] %s chat save failed: %v", autoID, err)
			}
		}
	}
	res.Transcript = transcript
}

// runOCR renders the prompt template against the source text, invokes the
// model once and scores the output against the reference.
func (o *Orchestrator) runOCR(ctx context.Context, run Run, client llm.Client, modelID string, res *RunResult) {
	source := run.SourceText
	if source == "" && run.SourceFile != "" {
		text, err := o.loadText(run.SourceFile)
		if err != nil {
			res.Error = err.Error()
			return
		}
		source = text
	}
	reference := run.ReferenceText
	if reference == "" && run.ReferenceFile != "" {
		text, err := o.loadText(run.ReferenceFile)
		if err != nil {
			res.Error = err.Error()
			return
		}
		reference = text
	}

	prompt := RenderTemplate(run.PromptTemplate, source)
	start := time.Now()
	raw, err := client.Invoke(ctx, modelID, []llm.Message{{Role: "user", Content: prompt}}, run.Params)
	if err != nil {
		res.Error = err.Error()
		return
	}
	n := Normalize(raw, start)
	res.Output = n.Text
	res.Usage = n.Usage

	if len(run.Metrics) > 0 {
		if o.metrics == nil {
			res.Error = "metrics computation not configured"
			return
		}
		scores, err := o.metrics.Compute(ctx, n.Text, reference, run.Metrics)
		if err != nil {
			res.Error = err.Error()
			return
		}
		res.Scores = scores
	}

	if o.history != nil {
		now := time.Now()
		rec := history.SavedEvaluation{
			ID:         uuid.NewString(),
			Type:       "ocr",
			Title:      run.Name,
			Model:      llm.ModelInfo{ID: modelID, Provider: client.Name()},
			Parameters: run.Params,
			Metrics:    run.Metrics,
			UsedText: history.UsedText{
				OCRText:       source,
				ReferenceText: reference,
				PromptText:    run.PromptTemplate,
			},
			Files: history.FileInfo{
				SourceFileName:    run.SourceFile,
				ReferenceFileName: run.ReferenceFile,
			},
			Results: &history.EvalResults{
				Output: n.Text,
				Scores: res.Scores,
				Usage:  n.Usage,
			},
			StartedAt:  start,
			FinishedAt: &now,
		}
		if err := o.history.SaveEvaluation(rec); err != nil {
			log.Printf("[automation] evaluation save failed: %v", err)
		}
	}
}

func (o *Orchestrator) loadText(name string) (string, error) {
	if o.loadRef == nil {
		return "", fmt.Errorf("reference loading not configured")
	}
	return o.loadRef(name)
}

// RenderTemplate substitutes the source text into a prompt template. A
// template without the placeholder gets the source appended after a blank
// line, so a bare instruction still sees the text it should transcribe.
func RenderTemplate(template, source string) string {
	if strings.Contains(template, ocrPlaceholder) {
		return strings.ReplaceAll(template, ocrPlaceholder, source)
	}
	if source == "" {
		return template
	}
	if template == "" {
		return source
	}
	return template + "\n\n" + source
}
