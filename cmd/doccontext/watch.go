package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/doccontext-mcp/internal/watcher"
)

var watchForce bool

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index a knowledge base, then re-index whenever its Markdown files change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := rootArg(args)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx, stop := signalContext()
		defer stop()

		logger := slog.Default()
		out := cmd.OutOrStdout()

		stats, err := a.Index(ctx, root, watchForce)
		if err != nil {
			return fmt.Errorf("initial index failed: %w", err)
		}
		printStats(out, stats)

		cfg := a.Config()
		w, err := watcher.New(root, func(ctx context.Context) error {
			stats, err := a.Index(ctx, root, false)
			if err != nil {
				return err
			}
			logger.Info("re-indexed",
				"indexed", stats.DocumentsIndexed,
				"deleted", stats.DocumentsDeleted,
				"chunks", stats.ChunksCreated,
				"duration", stats.Duration,
			)
			return nil
		}, watcher.Config{
			Debounce: cfg.Watch.Debounce(),
			Exclude:  cfg.Processing.Exclude,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVarP(&watchForce, "force", "f", false, "Force a full re-index on startup")
}
