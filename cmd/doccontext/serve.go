package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/doccontext-mcp/internal/mcp"
	"github.com/dshills/doccontext-mcp/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		logger := slog.Default()
		logger.Info("doccontext MCP server starting",
			"version", version,
			"build_mode", storage.BuildMode,
			"driver", storage.DriverName,
			"embedding_provider", a.EmbeddingProvider(),
		)

		ctx, stop := signalContext()
		defer stop()

		if err := mcp.NewServer(a, logger).Serve(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
