package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"studio/internal/config"
	"studio/internal/llm"
	"studio/internal/output"
	"studio/internal/ui"
)

// RunModels lists the models available from configured providers.
func RunModels() {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	rt := buildRuntime(cfg)
	providers := rt.registry.Providers()
	if len(providers) == 0 {
		output.PrintError(fmt.Errorf("no provider API keys configured (run 'studio login')"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	byProvider := make(map[string][]llm.ModelListing)
	for _, name := range providers {
		client, err := rt.registry.Resolve(name)
		if err != nil {
			continue
		}
		lister, ok := client.(interface {
			ListModels(context.Context) ([]llm.ModelListing, string, error)
		})
		if !ok {
			continue
		}
		models, warning, err := lister.ListModels(ctx)
		if err != nil {
			output.PrintWarning(fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if warning != "" {
			output.PrintWarning(warning)
		}
		byProvider[name] = models
	}

	output.Print(byProvider, func() {
		for _, name := range providers {
			models := byProvider[name]
			if len(models) == 0 {
				continue
			}
			ui.ShowHeader(name)
			for _, m := range models {
				fmt.Printf("  %s\n", m.ID)
			}
		}
	})
}

// RunLogin stores a provider API key in the config, prompting on the
// terminal without echoing.
func RunLogin(provider string) {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}

	if provider != "groq" && provider != "anthropic" {
		output.PrintError(fmt.Errorf("unknown provider %q (want groq or anthropic)", provider))
		return
	}

	fmt.Printf("API key for %s: ", provider)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		output.PrintError(fmt.Errorf("read key: %w", err))
		return
	}
	if len(key) == 0 {
		output.PrintError(fmt.Errorf("empty key"))
		return
	}

	switch provider {
	case "groq":
		cfg.Groq.APIKey = string(key)
	case "anthropic":
		cfg.Anthropic.APIKey = string(key)
	}
	if err := config.Save(cfg); err != nil {
		output.PrintError(fmt.Errorf("save config: %w", err))
		return
	}
	ui.ShowSuccess("Saved %s API key to %s", provider, config.Path)
}
