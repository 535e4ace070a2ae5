package commands

import (
	"fmt"
	"time"

	"studio/internal/automation"
	"studio/internal/config"
	"studio/internal/output"
	"studio/internal/ui"
)

// RunAutomationsList shows the progress store of a running server.
func RunAutomationsList() {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	list, err := NewAPIClient(cfg).ListAutomations()
	if err != nil {
		output.PrintError(err)
		return
	}

	output.Print(list, func() {
		if len(list) == 0 {
			ui.ShowInfo("No automations")
			return
		}
		for _, p := range list {
			printProgressLine(p)
		}
	})
}

// RunAutomationsClear removes finished automations from a running server.
func RunAutomationsClear() {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	remaining, err := NewAPIClient(cfg).ClearAutomations()
	if err != nil {
		output.PrintError(err)
		return
	}

	output.Print(remaining, func() {
		ui.ShowSuccess("Cleared finished automations (%d remaining)", len(remaining))
	})
}

// RunAutomationsRemove deletes one automation by id.
func RunAutomationsRemove(id string) {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	if err := NewAPIClient(cfg).RemoveAutomation(id); err != nil {
		output.PrintError(err)
		return
	}
	output.Print(map[string]string{"id": id}, func() {
		ui.ShowSuccess("Removed %s", id)
	})
}

func printProgressLine(p automation.Progress) {
	marker := "●"
	switch p.Status {
	case automation.StatusCompleted:
		marker = "✓"
	case automation.StatusError:
		marker = "✗"
	}
	line := fmt.Sprintf("%s %-24s %-5s run %d/%d  %s",
		marker, p.Config.Name, p.Type,
		p.CurrentRunIndex+1, len(p.Config.Runs),
		p.StartTime.Format(time.TimeOnly))
	if p.Error != "" {
		line += "  " + p.Error
	}
	fmt.Printf("  %s\n", line)
}
