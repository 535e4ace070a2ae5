package commands

import (
	"studio/internal/analytics"
	"studio/internal/automation"
	"studio/internal/config"
	"studio/internal/history"
	"studio/internal/llm"
	"studio/internal/metrics"
	"studio/internal/notify"
	"studio/internal/presets"
	"studio/internal/reference"
)

// runtime bundles the collaborators assembled from a loaded config. Both
// `studio serve` and the in-process `studio run` build one of these.
type runtime struct {
	cfg       *config.Config
	registry  *llm.Registry
	analytics *analytics.Recorder
	history   *history.Store
	presets   *presets.Store
	progress  *automation.Store
	orch      *automation.Orchestrator
	notifier  notify.Notifier
}

// buildRuntime wires providers, stores and the orchestrator from config.
func buildRuntime(cfg *config.Config) *runtime {
	rec := analytics.NewRecorder(cfg.DataDir, cfg.Analytics.RetentionDays)

	registry := llm.NewRegistry()
	if key := cfg.GroqAPIKey(); key != "" {
		registry.Register(llm.NewGroqClient(key, cfg.Groq.BaseURL, rec))
	}
	if key := cfg.AnthropicAPIKey(); key != "" {
		registry.Register(llm.NewAnthropicClient(key, rec))
	}

	hist := history.NewStore(cfg.DataDir)
	progress := automation.DefaultStore
	loader := reference.NewLoader(cfg.DataDir)

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.Webhook.URL != "" {
		notifier = notify.NewMultiNotifier(
			notify.LogNotifier{},
			notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Format, nil),
		)
	}

	return &runtime{
		cfg:       cfg,
		registry:  registry,
		analytics: rec,
		history:   hist,
		presets:   presets.NewStore(cfg.DataDir),
		progress:  progress,
		orch:      automation.New(progress, registry, metrics.Computer{}, hist, loader.Load),
		notifier:  notifier,
	}
}

// defaultModel returns the ambient model selection from config.
func (rt *runtime) defaultModel() llm.ModelInfo {
	return llm.ModelInfo{
		ID:       rt.cfg.DefaultModel.ID,
		Provider: rt.cfg.DefaultModel.Provider,
	}
}
