package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/doccontext-mcp/internal/indexer"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a Markdown knowledge base (default: current directory)",
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

		stats, err := a.Index(ctx, root, indexForce)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "Re-index every document, ignoring content hashes")
}

func printStats(w io.Writer, stats *indexer.Statistics) {
	fmt.Fprintf(w, "Indexed %s documents (%s unchanged, %s removed) into %s chunks in %s\n",
		humanize.Comma(int64(stats.DocumentsIndexed)),
		humanize.Comma(int64(stats.DocumentsSkipped)),
		humanize.Comma(int64(stats.DocumentsDeleted)),
		humanize.Comma(int64(stats.ChunksCreated)),
		stats.Duration.Round(1e6),
	)
	if stats.EmbeddingsCreated > 0 {
		fmt.Fprintf(w, "Embeddings: %s\n", humanize.Comma(int64(stats.EmbeddingsCreated)))
	}
	if n := stats.FilesEmpty + stats.FilesFailed + stats.DirsSkipped; n > 0 {
		fmt.Fprintf(w, "Skipped: %d empty, %d failed, %d directories\n",
			stats.FilesEmpty, stats.FilesFailed, stats.DirsSkipped)
	}
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}
