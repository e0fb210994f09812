package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"folio/internal/app"
	"folio/internal/config"
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "folioctl",
	Short: "Operate a Folio blog from the terminal",
	Long: `folioctl manages the post database and search index, converts stored post
content, composes posts with article mentions and serves the MCP tools.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load config", err)
	}
	slog.Debug("config loaded", "driver", cfg.DatabaseDriver, "meili", cfg.MeiliURL != "", "redis", cfg.RedisURL != "")
	return cfg
}

func openRuntime(ctx context.Context, cfg config.Config) *app.Runtime {
	rt, err := app.OpenRuntime(ctx, cfg)
	if err != nil {
		fatal("Failed to open backends", err)
	}
	return rt
}

func readInput(path string) []byte {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		fatal("Failed to read "+path, err)
	}
	return raw
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
