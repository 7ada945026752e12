package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/doccontext-mcp/internal/app"
)

var statusAll bool

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show index statistics for a knowledge base",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := context.Background()
		out := cmd.OutOrStdout()
		if statusAll {
			return printCollections(ctx, out, a)
		}

		root, err := rootArg(args)
		if err != nil {
			return err
		}
		status, err := a.Status(ctx, root)
		if err != nil {
			return err
		}

		coll := status.Collection
		fmt.Fprintf(out, "Root:       %s\n", coll.RootPath)
		fmt.Fprintf(out, "Documents:  %s\n", humanize.Comma(int64(status.DocumentsCount)))
		fmt.Fprintf(out, "Chunks:     %s\n", humanize.Comma(int64(status.ChunksCount)))
		fmt.Fprintf(out, "Embeddings: %s\n", humanize.Comma(int64(status.EmbeddingsCount)))
		if coll.EmbeddingModel != "" {
			fmt.Fprintf(out, "Model:      %s/%s (%d dims)\n", coll.EmbeddingProvider, coll.EmbeddingModel, coll.EmbeddingDim)
		}
		if !status.LastIndexedAt.IsZero() {
			fmt.Fprintf(out, "Indexed:    %s\n", humanize.Time(status.LastIndexedAt))
		}
		fmt.Fprintf(out, "Database:   %s (%s)\n", a.Config().Database.Path, dbSize(a.Config().Database.Path, status.IndexSizeMB))

		docTypes := make([]string, 0, len(status.DocumentsByType))
		for t := range status.DocumentsByType {
			docTypes = append(docTypes, t)
		}
		sort.Strings(docTypes)
		for _, t := range docTypes {
			fmt.Fprintf(out, "  %-8s %d\n", t, status.DocumentsByType[t])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusAll, "all", "a", false, "List every indexed knowledge base")
}

func printCollections(ctx context.Context, w io.Writer, a *app.App) error {
	colls, err := a.Collections(ctx)
	if err != nil {
		return err
	}
	if len(colls) == 0 {
		fmt.Fprintln(w, "No knowledge bases indexed")
		return nil
	}
	for _, c := range colls {
		fmt.Fprintf(w, "%s  %s docs, %s chunks, indexed %s\n",
			c.RootPath,
			humanize.Comma(int64(c.TotalDocuments)),
			humanize.Comma(int64(c.TotalChunks)),
			humanize.Time(c.LastIndexedAt),
		)
	}
	return nil
}

// dbSize prefers the file size on disk over the page-count estimate
func dbSize(path string, estimateMB float64) string {
	if info, err := os.Stat(path); err == nil {
		return humanize.Bytes(uint64(info.Size()))
	}
	return humanize.Bytes(uint64(estimateMB * 1024 * 1024))
}
