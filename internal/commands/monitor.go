package commands

import (
	"os"

	"studio/internal/config"
	"studio/internal/tui"
	"studio/internal/ui"
)

// RunMonitor opens the full-screen automation monitor against a running
// server.
func RunMonitor() {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		os.Exit(1)
	}
	if err := tui.Run(NewAPIClient(cfg), Version); err != nil {
		ui.ShowError("Monitor exited", err)
		os.Exit(1)
	}
}
