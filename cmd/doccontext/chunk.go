package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	chunkRoot string
	chunkJSON bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Show how one document is split into chunks, without indexing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel := filepath.Base(path)
		if chunkRoot != "" {
			root, err := filepath.Abs(chunkRoot)
			if err != nil {
				return err
			}
			if rel, err = filepath.Rel(root, path); err != nil {
				return err
			}
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		doc, err := a.Chunk(filepath.ToSlash(rel), content)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if chunkJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}

		meta := doc.Metadata
		fmt.Fprintf(out, "%s (%s) %q: %d chunks\n", doc.ID, meta.Type, meta.Title, len(doc.Chunks))
		for _, c := range doc.Chunks {
			fmt.Fprintf(out, "\n--- %s [%s] %s, %d tokens\n", c.ID, c.Metadata.SectionType, c.Metadata.SectionTitle, c.Metadata.Tokens)
			fmt.Fprintln(out, c.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().StringVarP(&chunkRoot, "root", "r", "", "Knowledge base root, used to classify the document by directory")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "Output the processed document as JSON")
}
