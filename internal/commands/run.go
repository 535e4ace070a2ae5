package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"gopkg.in/yaml.v3"

	"studio/internal/automation"
	"studio/internal/config"
	"studio/internal/notify"
	"studio/internal/output"
	"studio/internal/ui"
)

// RunAutomationFile executes an automation config from a YAML file
// in-process, printing progress as it goes.
func RunAutomationFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		output.PrintError(fmt.Errorf("read automation file: %w", err))
		return
	}
	var autoCfg automation.Config
	if err := yaml.Unmarshal(data, &autoCfg); err != nil {
		output.PrintError(fmt.Errorf("parse automation file: %w", err))
		return
	}
	if autoCfg.Name == "" {
		output.PrintError(fmt.Errorf("automation file is missing 'name'"))
		return
	}
	if autoCfg.Type != automation.TypeChat && autoCfg.Type != automation.TypeOCR {
		output.PrintError(fmt.Errorf("unknown automation type %q", autoCfg.Type))
		return
	}
	for i := range autoCfg.Runs {
		if autoCfg.Runs[i].ID == "" {
			autoCfg.Runs[i].ID = fmt.Sprintf("run-%d", i+1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		output.PrintError(fmt.Errorf("load config: %w", err))
		return
	}
	rt := buildRuntime(cfg)
	defer func() {
		if err := rt.analytics.Flush(); err != nil {
			ui.ShowWarning("usage flush failed: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Live progress, driven by store notifications.
	var lastLine string
	unsubscribe := rt.progress.Subscribe(func() {
		for _, p := range rt.progress.List() {
			if p.Config.Name != autoCfg.Name || p.Terminal() {
				continue
			}
			line := fmt.Sprintf("run %d/%d", p.CurrentRunIndex+1, len(p.Config.Runs))
			if p.Type == automation.TypeChat {
				line = fmt.Sprintf("%s, prompt %d", line, p.CurrentPromptIndex+1)
			}
			if line != lastLine && !output.JSONMode {
				fmt.Printf("  %s\n", line)
				lastLine = line
			}
		}
	})
	defer unsubscribe()

	if !output.JSONMode {
		ui.ShowHeader(fmt.Sprintf("Automation: %s (%s)", autoCfg.Name, autoCfg.Type))
	}

	results := rt.orch.Execute(ctx, autoCfg, rt.defaultModel())

	failures := 0
	for _, res := range results {
		if res.Error != "" {
			failures++
		}
	}

	status := string(automation.StatusCompleted)
	msg := "all runs completed"
	if failures == len(autoCfg.Runs) && failures > 0 {
		status, msg = string(automation.StatusError), "All runs failed"
	} else if failures > 0 {
		status, msg = string(automation.StatusError), fmt.Sprintf("%d runs failed", failures)
	}
	if err := rt.notifier.Send(notify.Notification{
		Title:   autoCfg.Name,
		Message: msg,
		Status:  status,
	}); err != nil {
		ui.ShowWarning("notification failed: %v", err)
	}

	output.Print(results, func() {
		printResultsText(autoCfg, results)
	})
	if failures > 0 {
		os.Exit(1)
	}
}

func printResultsText(cfg automation.Config, results map[string]automation.RunResult) {
	fmt.Println()
	for _, run := range cfg.Runs {
		res, ok := results[run.ID]
		if !ok {
			continue
		}
		if res.Error != "" {
			ui.ShowError(fmt.Sprintf("%s (%s)", res.RunName, res.ModelID), fmt.Errorf("%s", res.Error))
			continue
		}
		ui.ShowSuccess("%s (%s)", res.RunName, res.ModelID)
		if len(res.Scores) > 0 {
			names := make([]string, 0, len(res.Scores))
			for name := range res.Scores {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("      %-12s %.4f\n", name, res.Scores[name])
			}
		}
		if res.Usage.TotalTokens > 0 {
			fmt.Printf("      %-12s %d\n", "tokens", res.Usage.TotalTokens)
		}
	}
}
