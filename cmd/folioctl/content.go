package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"folio/internal/codec"
	"folio/internal/mention"
	"folio/internal/render"
)

var (
	renderFormat string
	renderTitle  string
)

var excerptCmd = &cobra.Command{
	Use:   "excerpt <file>",
	Short: "Print the listing excerpt of stored post content",
	Long:  `Reads persisted post content in any stored shape ("-" for stdin) and prints its excerpt.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		excerpt, ok := codec.DeriveExcerpt(readInput(args[0]))
		if !ok {
			fmt.Println("(no excerpt)")
			return
		}
		fmt.Println(excerpt)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Convert stored post content to HTML, Markdown or a reader page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := codec.New(mention.MustSchema())
		doc, shape := c.Deserialize(readInput(args[0]))
		slog.Debug("content decoded", "shape", shape.String())

		switch renderFormat {
		case "html":
			fmt.Print(codec.RenderHTML(doc))
		case "markdown", "md":
			md, err := codec.Markdown(doc)
			if err != nil {
				fatal("Failed to convert to markdown", err)
			}
			fmt.Println(md)
		case "reader":
			page, err := render.Page(render.PostView{
				SiteName:  loadConfig().SiteName,
				Title:     renderTitle,
				Category:  "general",
				CreatedAt: time.Now(),
				Doc:       doc,
			})
			if err != nil {
				fatal("Failed to render page", err)
			}
			fmt.Print(page)
		default:
			fatal("Unknown format", fmt.Errorf("%q (want html, markdown or reader)", renderFormat))
		}
	},
}

func init() {
	rootCmd.AddCommand(excerptCmd)
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "html", "Output format: html, markdown or reader")
	renderCmd.Flags().StringVar(&renderTitle, "title", "Preview", "Page title for the reader format")
}
