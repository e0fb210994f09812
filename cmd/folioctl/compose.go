package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"folio/internal/codec"
	"folio/internal/compose"
	"folio/internal/content"
	"folio/internal/mention"
	"folio/internal/suggest"
)

var (
	composeOut string
	composeIn  string
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Write a post in the terminal with @ article mentions",
	Long: `Opens a terminal editor. Typing the mention trigger searches published
articles; Enter inserts the highlighted one. ctrl+s saves the content in the
stored JSON shape, ctrl+c discards it.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		rt := openRuntime(ctx, cfg)
		defer rt.Close()

		c := codec.New(mention.MustSchema())
		doc := content.Doc(content.Paragraph())
		if composeIn != "" {
			var shape codec.Shape
			doc, shape = c.Deserialize(readInput(composeIn))
			slog.Debug("loaded draft", "shape", shape.String())
		}

		model, err := compose.New(rt.Search, doc, suggest.WithTrigger(cfg.MentionTrigger))
		if err != nil {
			fatal("Failed to start composer", err)
		}
		final, err := compose.Run(model)
		if err != nil {
			fatal("Composer failed", err)
		}
		if !final.Saved() {
			fmt.Fprintln(os.Stderr, "Discarded.")
			return
		}

		raw, err := c.Encode(final.Doc())
		if err != nil {
			fatal("Failed to encode post", err)
		}
		if composeOut == "" {
			fmt.Println(string(raw))
			return
		}
		if err := os.WriteFile(composeOut, raw, 0o644); err != nil {
			fatal("Failed to write "+composeOut, err)
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", composeOut)
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
	composeCmd.Flags().StringVarP(&composeOut, "out", "o", "", "Write the content to this file instead of stdout")
	composeCmd.Flags().StringVarP(&composeIn, "in", "i", "", "Start from stored content in this file")
}
