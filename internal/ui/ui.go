package ui

// Terminal status lines for the CLI commands. Machine-readable output
// goes through internal/output instead.

import (
	"fmt"
	"strings"
)

func ShowHeader(title string) {
	rule := strings.Repeat("─", len(title)+2)
	fmt.Printf(" %s\n %s\n %s\n", rule, title, rule)
}

func show(mark, format string, args ...any) {
	fmt.Printf(" %s %s\n", mark, fmt.Sprintf(format, args...))
}

func ShowSuccess(format string, args ...any) { show("✓", format, args...) }

func ShowWarning(format string, args ...any) { show("!", format, args...) }

func ShowInfo(format string, args ...any) { show("ℹ", format, args...) }

func ShowError(msg string, err error) {
	if err != nil {
		show("✗", "%s: %v", msg, err)
		return
	}
	show("✗", "%s", msg)
}
