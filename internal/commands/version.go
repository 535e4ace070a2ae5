package commands

import "fmt"

// Version information, set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func RunVersion() {
	fmt.Printf("studio version %s (commit %s, built %s)\n", Version, Commit, Date)
}
