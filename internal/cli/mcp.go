package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hrtlog/internal/mcptools"
	"github.com/MrSnakeDoc/hrtlog/internal/version"
)

func newMCPCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the timeline as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := mcptools.NewHandler(rt.store, rt.log)
			return mcptools.ServeStdio(mcptools.NewServer(h, version.Version))
		},
	}
}
