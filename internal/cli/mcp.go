package cli

import (
	"github.com/spf13/cobra"

	"github.com/para-dev/para/internal/mcp"
)

// newMCPCmd launches the MCP façade over stdio, so an editor or agent
// runtime can drive session lifecycle operations as MCP tool calls instead
// of shelling out to `para`.
func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp",
		Short:  "Run para as an MCP server over stdio",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, cfg, err := newManager()
			if err != nil {
				return err
			}
			server := mcp.NewServer(mgr, cfg, Version)
			return server.Run(cmd.Context())
		},
	}
}
