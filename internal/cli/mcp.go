package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Rrens/db-assistant/internal/api/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve every tool over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			log.Info().Int("tools", len(a.Registry.Specs(""))).Msg("serving MCP over stdio")
			return mcpserver.ServeStdio(a.Registry, Version)
		},
	}
}
