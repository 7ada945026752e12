package processor

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/doccontext-mcp/internal/chunker"
	"github.com/dshills/doccontext-mcp/internal/classify"
	"github.com/dshills/doccontext-mcp/internal/metadata"
	"github.com/dshills/doccontext-mcp/internal/parser"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

const (
	// DefaultMaxDepth is the deepest directory level visited below the root
	DefaultMaxDepth = 10

	// IDSeparator replaces path separators in document ids
	IDSeparator = "_"
)

// DefaultExclude lists glob patterns skipped by default
var DefaultExclude = []string{"**/.git/**", "**/node_modules/**"}

// Config contains configuration for the processor
type Config struct {
	MaxDepth int      // Deepest directory level visited (default: 10)
	Workers  int      // Number of concurrent workers (default: runtime.NumCPU())
	Exclude  []string // Doublestar patterns matched against relative paths
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		MaxDepth: DefaultMaxDepth,
		Workers:  runtime.NumCPU(),
		Exclude:  append([]string(nil), DefaultExclude...),
	}
}

// Stats contains statistics about a processing run
type Stats struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesEmpty      int
	FilesFailed     int
	DirsSkipped     int
	ChunksCreated   int
	Duration        time.Duration
	ErrorMessages   []string
}

// Result is the output of processing a directory tree
type Result struct {
	Documents []types.Document
	Chunks    []types.Chunk
	Stats     Stats
}

// Processor turns Markdown files into documents and chunks
type Processor struct {
	parser    parser.FrontMatterParser
	chunker   *chunker.Chunker
	extractor *metadata.Extractor
	docRules  []classify.DocumentRule
	config    Config
	logger    *slog.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithParser injects the front-matter parser
func WithParser(p parser.FrontMatterParser) Option {
	return func(proc *Processor) { proc.parser = p }
}

// WithChunker sets the chunker
func WithChunker(c *chunker.Chunker) Option {
	return func(proc *Processor) { proc.chunker = c }
}

// WithDocumentRules replaces the document classification table
func WithDocumentRules(rules []classify.DocumentRule) Option {
	return func(proc *Processor) { proc.docRules = rules }
}

// WithMetadataExtractor sets the metadata extractor
func WithMetadataExtractor(e *metadata.Extractor) Option {
	return func(proc *Processor) { proc.extractor = e }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(proc *Processor) { proc.logger = l }
}

// New creates a new Processor instance
func New(config Config, opts ...Option) *Processor {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Exclude == nil {
		config.Exclude = append([]string(nil), DefaultExclude...)
	}

	p := &Processor{
		parser:    parser.New(),
		chunker:   chunker.New(),
		extractor: metadata.New(),
		docRules:  classify.DefaultDocumentRules(),
		config:    config,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Chunker returns the chunker used by the processor
func (p *Processor) Chunker() *chunker.Chunker {
	return p.chunker
}

// DocumentID derives a stable document id from a path relative to the root
func DocumentID(relPath string) string {
	relPath = filepath.ToSlash(relPath)
	relPath = strings.TrimPrefix(relPath, "./")
	relPath = strings.TrimSuffix(relPath, ".md")
	return strings.ReplaceAll(relPath, "/", IDSeparator)
}

// ProcessContent builds a document from raw file contents. It returns
// (nil, nil) when the body is empty after front matter is removed.
func (p *Processor) ProcessContent(relPath string, raw []byte) (*types.Document, error) {
	relPath = filepath.ToSlash(relPath)

	parsed, err := p.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}

	body := strings.TrimSpace(parsed.Content)
	if body == "" {
		return nil, nil
	}

	docType := classify.ClassifyDocument(relPath, p.docRules)
	meta := p.extractor.Extract(parsed.Data, relPath, docType)
	id := DocumentID(relPath)

	doc := &types.Document{
		ID:          id,
		Content:     body,
		Metadata:    meta,
		Chunks:      p.chunker.ChunkDocument(id, body, meta),
		ContentHash: sha256.Sum256(raw),
	}
	return doc, nil
}

// ProcessFile reads and processes a single file below root
func (p *Processor) ProcessFile(root, relPath string) (*types.Document, error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ProcessContent(relPath, raw)
}

// ProcessDirectory processes every eligible Markdown file below root.
// Per-file failures are logged and counted; only context cancellation or an
// unreadable root aborts the run. Documents keep the traversal order.
func (p *Processor) ProcessDirectory(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	walked, err := walk(ctx, root, p.config.MaxDepth, p.config.Exclude, p.logger)
	if err != nil {
		return nil, err
	}

	docs := make([]*types.Document, len(walked.files))
	var (
		failed atomic.Int32
		empty  atomic.Int32
		mu     sync.Mutex // Protect errMessages
	)
	errMessages := make([]string, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for i, f := range walked.files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			doc, err := p.ProcessFile(root, f.rel)
			if err != nil {
				p.logger.Warn("skipping file", "path", f.rel, "error", err)
				failed.Add(1)
				mu.Lock()
				errMessages = append(errMessages, fmt.Sprintf("%s: %v", f.rel, err))
				mu.Unlock()
				return nil
			}
			if doc == nil {
				p.logger.Debug("skipping empty file", "path", f.rel)
				empty.Add(1)
				return nil
			}

			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Documents: make([]types.Document, 0, len(docs)),
	}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		result.Documents = append(result.Documents, *doc)
		result.Chunks = append(result.Chunks, doc.Chunks...)
	}

	result.Stats = Stats{
		FilesDiscovered: len(walked.files),
		FilesProcessed:  len(result.Documents),
		FilesEmpty:      int(empty.Load()),
		FilesFailed:     int(failed.Load()),
		DirsSkipped:     walked.dirsSkipped,
		ChunksCreated:   len(result.Chunks),
		Duration:        time.Since(start),
		ErrorMessages:   errMessages,
	}

	p.logger.Info("processed directory",
		"root", root,
		"documents", result.Stats.FilesProcessed,
		"chunks", result.Stats.ChunksCreated,
		"failed", result.Stats.FilesFailed,
		"duration", result.Stats.Duration)

	return result, nil
}
