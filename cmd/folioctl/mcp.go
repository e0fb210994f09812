package main

import (
	"context"

	"github.com/spf13/cobra"

	"folio/internal/codec"
	"folio/internal/mcp"
	"folio/internal/mention"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the article tools over MCP stdio",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		rt := openRuntime(ctx, cfg)
		defer rt.Close()

		h := mcp.NewHandlers(rt.Search, rt.Posts, codec.New(mention.MustSchema()))
		if err := mcp.Run(h, version); err != nil {
			fatal("MCP server failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
