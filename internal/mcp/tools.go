package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"studio/internal/automation"
	"studio/internal/history"
	"studio/internal/metrics"
	"studio/internal/presets"
)

type toolset struct {
	deps Deps
}

// -- automation_run --

type automationRunInput struct {
	Name string           `json:"name" jsonschema:"Automation name"`
	Type string           `json:"type" jsonschema:"Automation type: chat or ocr"`
	Runs []automation.Run `json:"runs" jsonschema:"Runs to execute in order"`
}

type automationRunOutput struct {
	ID      string                          `json:"id"`
	Status  string                          `json:"status"`
	Error   string                          `json:"error,omitempty"`
	Results map[string]automation.RunResult `json:"results"`
}

func (ts *toolset) automationRunHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input automationRunInput) (*mcpsdk.CallToolResult, automationRunOutput, error) {
	if input.Name == "" {
		return nil, automationRunOutput{}, fmt.Errorf("name is required")
	}
	typ := automation.Type(input.Type)
	if typ != automation.TypeChat && typ != automation.TypeOCR {
		return nil, automationRunOutput{}, fmt.Errorf("unknown automation type %q", input.Type)
	}
	if len(input.Runs) == 0 {
		return nil, automationRunOutput{}, fmt.Errorf("runs must not be empty")
	}

	cfg := automation.Config{Name: input.Name, Type: typ, Runs: input.Runs}
	results := ts.deps.Orchestrator.Execute(ctx, cfg, ts.deps.DefaultModel)

	// The entry just completed is the newest one for this config.
	out := automationRunOutput{Results: results}
	for _, p := range ts.deps.Progress.List() {
		if p.Config.Name == input.Name && p.Terminal() {
			out.ID = p.ID
			out.Status = string(p.Status)
			out.Error = p.Error
			break
		}
	}
	return nil, out, nil
}

// -- automation_list --

type automationListInput struct{}

type automationListOutput struct {
	Automations []automation.Progress `json:"automations"`
}

func (ts *toolset) automationListHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input automationListInput) (*mcpsdk.CallToolResult, automationListOutput, error) {
	list := ts.deps.Progress.List()
	if list == nil {
		list = []automation.Progress{}
	}
	return nil, automationListOutput{Automations: list}, nil
}

// -- automation_clear --

type automationClearInput struct{}

type automationClearOutput struct {
	Remaining int `json:"remaining"`
}

func (ts *toolset) automationClearHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input automationClearInput) (*mcpsdk.CallToolResult, automationClearOutput, error) {
	ts.deps.Progress.ClearCompleted()
	return nil, automationClearOutput{Remaining: len(ts.deps.Progress.List())}, nil
}

// -- metrics_compute --

type metricsComputeInput struct {
	Prediction string   `json:"prediction" jsonschema:"Model output to score"`
	Reference  string   `json:"reference" jsonschema:"Ground-truth text"`
	Metrics    []string `json:"metrics" jsonschema:"Metric names to compute"`
}

type metricsComputeOutput struct {
	Scores map[string]float64 `json:"scores"`
}

func (ts *toolset) metricsComputeHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input metricsComputeInput) (*mcpsdk.CallToolResult, metricsComputeOutput, error) {
	if len(input.Metrics) == 0 {
		return nil, metricsComputeOutput{}, fmt.Errorf("metrics is required")
	}
	scores := metrics.Compute(input.Prediction, input.Reference, input.Metrics, nil)
	return nil, metricsComputeOutput{Scores: scores}, nil
}

// -- history_list --

type historyListInput struct {
	Kind string `json:"kind" jsonschema:"Record kind: evaluations, chats or automations"`
}

type historyListOutput struct {
	Evaluations []history.SavedEvaluation `json:"evaluations,omitempty"`
	Chats       []history.SavedChat       `json:"chats,omitempty"`
	Automations []history.SavedAutomation `json:"automations,omitempty"`
}

func (ts *toolset) historyListHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input historyListInput) (*mcpsdk.CallToolResult, historyListOutput, error) {
	var out historyListOutput
	var err error
	switch input.Kind {
	case "evaluations":
		out.Evaluations, err = ts.deps.History.ListEvaluations()
	case "chats":
		out.Chats, err = ts.deps.History.ListChats()
	case "automations":
		out.Automations, err = ts.deps.History.ListAutomations()
	default:
		return nil, out, fmt.Errorf("unknown kind %q (want evaluations, chats or automations)", input.Kind)
	}
	if err != nil {
		return nil, historyListOutput{}, err
	}
	return nil, out, nil
}

// -- preset_list --

type presetListInput struct {
	Type string `json:"type" jsonschema:"Preset type: ocr, prompt or chat"`
}

type presetListOutput struct {
	Presets []presets.Preset `json:"presets"`
}

func (ts *toolset) presetListHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input presetListInput) (*mcpsdk.CallToolResult, presetListOutput, error) {
	list, err := ts.deps.Presets.List(input.Type)
	if err != nil {
		return nil, presetListOutput{}, err
	}
	if list == nil {
		list = []presets.Preset{}
	}
	return nil, presetListOutput{Presets: list}, nil
}
