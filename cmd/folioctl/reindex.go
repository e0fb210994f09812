package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every published article to Meilisearch",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		rt := openRuntime(ctx, cfg)
		defer rt.Close()

		if rt.Meili == nil {
			fatal("Cannot reindex", errors.New("MEILI_URL is not set"))
		}
		if !rt.Meili.Healthy() {
			fatal("Cannot reindex", errors.New("meilisearch is unreachable"))
		}
		n := rt.Search.ReindexAll(ctx)
		fmt.Printf("Indexed %d published articles.\n", n)
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
