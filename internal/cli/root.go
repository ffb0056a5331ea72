// Package cli implements the dbagent command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Rrens/db-assistant/internal/app"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd builds the dbagent command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbagent",
		Short:         "Read-only PostgreSQL tools for assistants",
		Long:          `dbagent exposes schema inspection, guarded querying, statistics and charting tools over a PostgreSQL database, as one-shot commands or as an MCP stdio server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newToolsCmd(),
		newCallCmd(),
		newMCPCmd(),
		newTokenCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApp initialises configuration and logging. Logs go to stderr so that
// stdout carries only tool output.
func loadApp() (*app.App, error) {
	cfg, err := app.Init(os.Stderr)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
