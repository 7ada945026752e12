package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/doccontext-mcp/internal/app"
	"github.com/dshills/doccontext-mcp/internal/searcher"
	"github.com/dshills/doccontext-mcp/internal/storage"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

var (
	searchRoot   string
	searchLimit  int
	searchMode   string
	searchJSON   bool
	searchFilter filterFlags
)

// filterFlags collects one filter group from the command line
type filterFlags struct {
	docTypes      []string
	sectionTypes  []string
	statuses      []string
	tags          []string
	projects      []string
	sourcePattern string
	minRelevance  float64
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an indexed knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		filters, err := searchFilter.build()
		if err != nil {
			return err
		}
		mode := searcher.SearchMode(strings.ToLower(searchMode))

		root := searchRoot
		if root == "" {
			if root, err = rootArg(nil); err != nil {
				return err
			}
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx, stop := signalContext()
		defer stop()

		resp, err := a.Search(ctx, app.SearchParams{
			Root:    root,
			Query:   query,
			Limit:   searchLimit,
			Mode:    mode,
			Filters: filters,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Results)
		}
		printResults(out, resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	f := searchCmd.Flags()
	f.StringVarP(&searchRoot, "path", "p", "", "Knowledge base root (default: current directory)")
	f.IntVarP(&searchLimit, "limit", "n", searcher.DefaultLimit, "Maximum number of results")
	f.StringVarP(&searchMode, "mode", "m", string(searcher.SearchModeHybrid), "Search mode: hybrid, vector or keyword")
	f.BoolVar(&searchJSON, "json", false, "Output results as JSON")
	f.StringSliceVar(&searchFilter.docTypes, "type", nil, "Document types to include (adr, rfc, guide, rule, project)")
	f.StringSliceVar(&searchFilter.sectionTypes, "section", nil, "Section types to include")
	f.StringSliceVar(&searchFilter.statuses, "status", nil, "Document statuses to include")
	f.StringSliceVar(&searchFilter.tags, "tag", nil, "Match documents carrying any of these tags")
	f.StringSliceVar(&searchFilter.projects, "project", nil, "Match documents belonging to any of these projects")
	f.StringVar(&searchFilter.sourcePattern, "source", "", "Glob over the document path relative to the root")
	f.Float64Var(&searchFilter.minRelevance, "min-relevance", 0, "Minimum relevance score (0-1)")
}

// build validates the flags and returns nil when nothing is constrained
func (f filterFlags) build() (*storage.SearchFilters, error) {
	if f.minRelevance < 0 || f.minRelevance > 1 {
		return nil, errors.New("--min-relevance must be between 0 and 1")
	}
	for _, t := range f.docTypes {
		if !types.DocumentType(strings.ToLower(t)).Valid() {
			return nil, fmt.Errorf("unknown document type %q", t)
		}
	}
	for _, t := range f.sectionTypes {
		if !types.SectionType(strings.ToLower(t)).Valid() {
			return nil, fmt.Errorf("unknown section type %q", t)
		}
	}

	filter := storage.Filter{
		DocTypes:      lowerAll(f.docTypes),
		SectionTypes:  lowerAll(f.sectionTypes),
		Statuses:      f.statuses,
		Tags:          f.tags,
		Projects:      f.projects,
		SourcePattern: f.sourcePattern,
	}
	if filter.IsEmpty() && f.minRelevance == 0 {
		return nil, nil
	}

	filters := &storage.SearchFilters{MinRelevance: f.minRelevance}
	if !filter.IsEmpty() {
		filters.AnyOf = []storage.Filter{filter}
	}
	return filters, nil
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func printResults(w io.Writer, resp *searcher.SearchResponse) {
	fmt.Fprintf(w, "%d results (%s search, %s", resp.TotalResults, resp.SearchMode, resp.Duration.Round(1e5))
	if resp.CacheHit {
		fmt.Fprint(w, ", cached")
	}
	fmt.Fprintln(w, ")")

	for _, r := range resp.Results {
		meta := r.Metadata
		fmt.Fprintf(w, "\n%d. %s [%s] %.3f\n", r.Rank, meta.Title, meta.Type, r.RelevanceScore)
		fmt.Fprintf(w, "   %s > %s (%s, chunk %d/%d)\n",
			meta.SourcePath, meta.SectionTitle, meta.SectionType, meta.ChunkIndex+1, meta.TotalChunks)
		fmt.Fprintf(w, "   %s\n", snippet(r.Content, 160))
	}
}

// snippet flattens content onto one line and truncates it to n runes
func snippet(content string, n int) string {
	flat := strings.Join(strings.Fields(content), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}
