package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotDirectory is returned when the processing root is not a directory
var ErrNotDirectory = errors.New("root is not a directory")

// entry is one pending item of the walk worklist
type entry struct {
	abs   string
	rel   string // slash-separated, relative to the root
	depth int
	dir   bool
}

// walkResult lists the eligible files of a tree in traversal order
type walkResult struct {
	files       []entry
	dirsSkipped int
}

// walk visits the tree under root in pre-order, matching os.ReadDir order,
// using an explicit stack instead of recursion. Directories nested deeper
// than maxDepth are skipped with a warning.
func walk(ctx context.Context, root string, maxDepth int, exclude []string, logger *slog.Logger) (*walkResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	result := &walkResult{}
	stack := []entry{{abs: root, rel: "", depth: 0, dir: true}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !e.dir {
			result.files = append(result.files, e)
			continue
		}

		if e.depth > maxDepth {
			logger.Warn("max depth exceeded, skipping directory", "path", e.rel, "depth", e.depth, "max_depth", maxDepth)
			result.dirsSkipped++
			continue
		}

		entries, err := os.ReadDir(e.abs)
		if err != nil {
			if e.rel == "" {
				return nil, fmt.Errorf("failed to read root: %w", err)
			}
			logger.Warn("failed to read directory", "path", e.rel, "error", err)
			result.dirsSkipped++
			continue
		}

		// Push in reverse so entries pop in directory order
		for i := len(entries) - 1; i >= 0; i-- {
			de := entries[i]
			rel := path.Join(e.rel, de.Name())
			if excluded(rel, exclude) {
				continue
			}

			child := entry{abs: filepath.Join(e.abs, de.Name()), rel: rel, depth: e.depth + 1}
			switch {
			case de.IsDir():
				child.dir = true
			case !eligible(de):
				continue
			}
			stack = append(stack, child)
		}
	}

	return result, nil
}

// eligible reports whether a directory entry is a Markdown file to process
func eligible(de os.DirEntry) bool {
	if !de.Type().IsRegular() {
		return false
	}
	name := de.Name()
	return !strings.HasPrefix(name, "_") && strings.HasSuffix(name, ".md")
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
