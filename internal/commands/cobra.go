package commands

import (
	"github.com/spf13/cobra"
)

// ServeCmd represents the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the studio server",
	Long:  "Start the HTTP API server with the MCP SSE endpoint, plus stdio MCP when spawned over a pipe",
	Run: func(cmd *cobra.Command, args []string) {
		RunServe()
	},
}

// RunCmd executes an automation config file in-process.
var RunCmd = &cobra.Command{
	Use:   "run <config.yaml>",
	Short: "Run an automation from a YAML file",
	Long:  "Execute a chat or OCR automation defined in a YAML file, printing per-run results and scores",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunAutomationFile(args[0])
	},
}

// AutomationsCmd is the parent command for server-side automation state.
var AutomationsCmd = &cobra.Command{
	Use:     "automations",
	Aliases: []string{"a"},
	Short:   "Inspect automations on a running server",
	Long:    "List, clear, or remove automation progress entries on a running studio server",
}

// AutomationsListCmd lists automations.
var AutomationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List automations",
	Long:  "List all automations known to the server's progress store, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		RunAutomationsList()
	},
}

// AutomationsClearCmd clears finished automations.
var AutomationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear finished automations",
	Long:  "Remove completed and failed automations from the server's progress store",
	Run: func(cmd *cobra.Command, args []string) {
		RunAutomationsClear()
	},
}

// AutomationsRemoveCmd removes one automation by id.
var AutomationsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an automation",
	Long:  "Remove a single automation progress entry by id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunAutomationsRemove(args[0])
	},
}

// EvalCmd scores a prediction against a reference.
var EvalCmd = &cobra.Command{
	Use:   "eval <prediction-file> <reference-file>",
	Short: "Score a prediction against a reference",
	Long:  "Compute text metrics (em, bleu, rouge, char/word metrics) between two files",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		metricList, _ := cmd.Flags().GetString("metrics")
		RunEval(args[0], args[1], metricList)
	},
}

// ModelsCmd lists available models.
var ModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long:  "List the models offered by each configured provider",
	Run: func(cmd *cobra.Command, args []string) {
		RunModels()
	},
}

// LoginCmd stores a provider API key.
var LoginCmd = &cobra.Command{
	Use:       "login <provider>",
	Short:     "Store a provider API key",
	Long:      "Prompt for a provider API key (groq or anthropic) and save it to the config",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"groq", "anthropic"},
	Run: func(cmd *cobra.Command, args []string) {
		RunLogin(args[0])
	},
}

// MonitorCmd opens the full-screen automation monitor.
var MonitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"m"},
	Short:   "Watch automations in a full-screen view",
	Long:    "Open a terminal UI that polls a running studio server and shows automation progress live",
	Run: func(cmd *cobra.Command, args []string) {
		RunMonitor()
	},
}

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show studio version",
	Long:  "Show the version of the studio CLI",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}

func init() {
	EvalCmd.Flags().StringP("metrics", "m", "em,bleu,rouge", "Comma-separated metric names")

	AutomationsCmd.AddCommand(AutomationsListCmd)
	AutomationsCmd.AddCommand(AutomationsClearCmd)
	AutomationsCmd.AddCommand(AutomationsRemoveCmd)
}
