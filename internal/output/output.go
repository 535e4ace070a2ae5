package output

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONMode switches command output to a machine-readable envelope. It is
// set from the root --json flag before any command runs.
var JSONMode bool

// Result is the envelope every JSON-mode command prints.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Print emits data in the active mode: the JSON envelope, or the
// command's own text rendering.
func Print(data any, textFn func()) {
	if !JSONMode {
		textFn()
		return
	}
	emit(Result{Success: true, Data: data})
}

// PrintWarning reports a soft failure, like one provider's model list
// being unavailable. In JSON mode warnings ride inside the Result, so
// nothing is printed here.
func PrintWarning(msg string) {
	if JSONMode {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
}

// PrintError reports a fatal error and exits non-zero.
func PrintError(err error) {
	if JSONMode {
		emit(Result{Success: false, Error: err.Error()})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func emit(r Result) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
