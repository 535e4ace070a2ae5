package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio/internal/config"
	"studio/internal/httpserver"
	mcpserver "studio/internal/mcp"
	"studio/internal/notify"
	"studio/internal/ui"
)

// RunServe is the single entry point for `studio serve`.
//
// Always starts (single port :8642):
//   - HTTP REST server + analytics scheduler
//   - SSE MCP handler mounted at /mcp/
//   - stdio MCP when stdin is a pipe (e.g. spawned by an MCP client)
func RunServe() {
	stdioMCP := isStdinPipe()

	// When stdio MCP is active, redirect all log/print output to stderr so we
	// don't corrupt the JSON-RPC stream on stdout.
	var out io.Writer = os.Stdout
	if stdioMCP {
		out = os.Stderr
		log.SetOutput(os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		os.Exit(1)
	}
	if len(cfg.HTTPTokens) == 0 {
		token, err := generateToken()
		if err != nil {
			ui.ShowError("Failed to generate token", err)
			os.Exit(1)
		}
		cfg.HTTPTokens = []string{token}
		if saveErr := config.Save(cfg); saveErr != nil {
			fmt.Fprintf(os.Stderr, "[warn] could not save generated token: %v\n", saveErr)
		}
		fmt.Fprintf(out, "Generated token: %s\n", token)
		fmt.Fprintf(out, "(saved to ~/.studio/config.yaml — use this token in API clients)\n")
	}

	rt := buildRuntime(cfg)
	if len(rt.registry.Providers()) == 0 {
		ui.ShowWarning("No provider API keys configured; model calls will fail until one is set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Analytics flush/prune scheduler.
	if err := rt.analytics.StartScheduler(cfg.Analytics.FlushSchedule); err != nil {
		fmt.Fprintf(os.Stderr, "[analytics] scheduler error: %v\n", err)
	} else {
		defer rt.analytics.Stop()
	}

	// Completion notifications ride on progress store changes.
	stopNotify := startCompletionNotifier(rt)
	defer stopNotify()

	mcpDeps := mcpserver.Deps{
		Orchestrator: rt.orch,
		Progress:     rt.progress,
		History:      rt.history,
		Presets:      rt.presets,
		DefaultModel: rt.defaultModel(),
	}

	httpAddr := cfg.BindAddr()
	fmt.Fprintf(out, "HTTP + MCP SSE server listening on %s\n", httpAddr)
	srv := httpserver.New(httpserver.Deps{
		Orchestrator: rt.orch,
		Progress:     rt.progress,
		History:      rt.history,
		Presets:      rt.presets,
		Analytics:    rt.analytics,
		Registry:     rt.registry,
		Config:       cfg,
	}, cfg.HTTPTokens, Version)
	srv.Handle("/mcp/", mcpserver.NewSSEHandler(mcpDeps, Version))
	go func() {
		if err := srv.ListenAndServe(httpAddr); err != nil && err.Error() != "http: Server closed" {
			fmt.Fprintf(os.Stderr, "[http] error: %v\n", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		_ = srv.Shutdown(shutCtx)
	}()

	if stdioMCP {
		// Stdout is now exclusively for the MCP JSON-RPC protocol.
		if err := mcpserver.RunServer(mcpDeps, Version); err != nil && err.Error() != "server is closing: EOF" {
			fmt.Fprintf(os.Stderr, "[mcp-stdio] error: %v\n", err)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
		fmt.Fprintf(out, "\nShutting down...\n")
	}
}

// isStdinPipe returns true when stdin is a pipe or file (not a terminal),
// i.e. studio was spawned by another process feeding it data.
func isStdinPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// generateToken returns a random 32-char hex token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// startCompletionNotifier watches the progress store and sends one
// notification per automation when it reaches a terminal state.
func startCompletionNotifier(rt *runtime) (stop func()) {
	seen := make(map[string]bool)
	unsubscribe := rt.progress.Subscribe(func() {
		for _, p := range rt.progress.List() {
			if !p.Terminal() || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			msg := "all runs completed"
			if p.Error != "" {
				msg = p.Error
			}
			n := notify.Notification{
				Title:   p.Config.Name,
				Message: msg,
				Status:  string(p.Status),
			}
			// Webhook delivery must not block the store's notify loop.
			go func() {
				if err := rt.notifier.Send(n); err != nil {
					log.Printf("[notify] send failed: %v", err)
				}
			}()
		}
	})
	return unsubscribe
}
