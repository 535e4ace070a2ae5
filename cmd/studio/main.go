package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"studio/internal/commands"
	"studio/internal/output"
)

var jsonFlag bool

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "An evaluation studio for LLM outputs",
	Long:  "Run chat and OCR automations against LLM providers, score outputs with text metrics, and serve the results over HTTP and MCP",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.AutomationsCmd)
	rootCmd.AddCommand(commands.EvalCmd)
	rootCmd.AddCommand(commands.ModelsCmd)
	rootCmd.AddCommand(commands.LoginCmd)
	rootCmd.AddCommand(commands.MonitorCmd)
	rootCmd.AddCommand(commands.VersionCmd)

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag

		// With a terminal attached, default to the live monitor.
		if term.IsTerminal(int(os.Stdin.Fd())) && !jsonFlag {
			commands.RunMonitor()
			return
		}
		commands.RunAutomationsList()
	}
}

func main() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
