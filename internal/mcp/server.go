package mcpserver

import (
	"context"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"studio/internal/automation"
	"studio/internal/history"
	"studio/internal/llm"
	"studio/internal/presets"
)

// Deps are the collaborators exposed through MCP tools.
type Deps struct {
	Orchestrator *automation.Orchestrator
	Progress     *automation.Store
	History      *history.Store
	Presets      *presets.Store
	DefaultModel llm.ModelInfo
}

// newServer builds an MCP server with all studio tools registered.
func newServer(deps Deps, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "studio",
			Version: version,
		},
		nil,
	)

	ts := &toolset{deps: deps}

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "automation_run",
		Description: "Run an automation (a named batch of chat or OCR runs) and return the per-run results",
	}, ts.automationRunHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "automation_list",
		Description: "List all automations known to the progress store, newest first",
	}, ts.automationListHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "automation_clear",
		Description: "Remove all finished automations from the progress store",
	}, ts.automationClearHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "metrics_compute",
		Description: "Score a prediction against a reference text using the named metrics (em, bleu, rouge, char/word metrics)",
	}, ts.metricsComputeHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "history_list",
		Description: "List saved history records: evaluations, chats or automations",
	}, ts.historyListHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "preset_list",
		Description: "List saved presets of a given type (ocr, prompt or chat)",
	}, ts.presetListHandler)

	return server
}

// RunServer starts the MCP server over stdio transport.
func RunServer(deps Deps, version string) error {
	return newServer(deps, version).Run(context.Background(), &mcpsdk.StdioTransport{})
}

// NewSSEHandler returns an HTTP handler serving the MCP SSE transport.
func NewSSEHandler(deps Deps, version string) http.Handler {
	return mcpsdk.NewSSEHandler(func(r *http.Request) *mcpsdk.Server {
		return newServer(deps, version)
	}, nil)
}
