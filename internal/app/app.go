package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dshills/doccontext-mcp/internal/chunker"
	"github.com/dshills/doccontext-mcp/internal/config"
	"github.com/dshills/doccontext-mcp/internal/embedder"
	"github.com/dshills/doccontext-mcp/internal/indexer"
	"github.com/dshills/doccontext-mcp/internal/processor"
	"github.com/dshills/doccontext-mcp/internal/searcher"
	"github.com/dshills/doccontext-mcp/internal/storage"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

// Errors
var (
	ErrNotIndexed     = errors.New("collection not indexed")
	ErrPathNotFound   = errors.New("path does not exist")
	ErrNotDirectory   = errors.New("path is not a directory")
	ErrEmptyDocument  = errors.New("document has no content after front matter")
	ErrInvalidRequest = errors.New("invalid request")
)

// App wires storage, processing, embedding, indexing and search from one
// configuration. Every surface (MCP server, CLI, watcher) goes through it.
type App struct {
	cfg       *config.Config
	storage   storage.Storage
	embedder  embedder.Embedder
	processor *processor.Processor
	indexer   *indexer.Indexer
	searcher  *searcher.Searcher
	logger    *slog.Logger
}

type options struct {
	logger      *slog.Logger
	storage     storage.Storage
	embedder    embedder.Embedder
	setEmbedder bool
}

// Option configures New
type Option func(*options)

// WithLogger sets the logger passed to every component
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStorage uses an already opened store instead of cfg.Database.Path
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithEmbedder overrides the configured provider. A nil embedder disables
// vector search.
func WithEmbedder(e embedder.Embedder) Option {
	return func(o *options) {
		o.embedder = e
		o.setEmbedder = true
	}
}

// New builds an App. The returned App owns the store and embedder and
// releases them on Close.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	emb := o.embedder
	if !o.setEmbedder {
		var err error
		emb, err = embedder.New(cfg.Embedding)
		switch {
		case errors.Is(err, embedder.ErrEmbeddingDisabled):
			emb = nil
		case err != nil:
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
	}

	store := o.storage
	if store == nil {
		var err error
		store, err = openStorage(cfg.Database.Path)
		if err != nil {
			if emb != nil {
				_ = emb.Close()
			}
			return nil, err
		}
	}

	proc := processor.New(
		processor.Config{
			MaxDepth: cfg.Processing.MaxDepth,
			Workers:  cfg.Processing.Workers,
			Exclude:  cfg.Processing.Exclude,
		},
		processor.WithChunker(chunker.New(
			chunker.WithMaxTokens(cfg.Chunking.MaxTokens),
			chunker.WithOverlapTokens(cfg.Chunking.OverlapTokens),
		)),
		processor.WithLogger(o.logger),
	)

	a := &App{
		cfg:       cfg,
		storage:   store,
		embedder:  emb,
		processor: proc,
		indexer:   indexer.New(store, emb, indexer.WithProcessor(proc), indexer.WithLogger(o.logger)),
		searcher: searcher.NewSearcher(store, emb, searcher.Config{
			CacheSize: cfg.Search.CacheSize,
			CacheTTL:  cfg.Search.CacheTTL(),
			Logger:    o.logger,
		}),
		logger: o.logger,
	}

	o.logger.Debug("application initialized",
		"database", cfg.Database.Path,
		"driver", storage.DriverName,
		"embedding_provider", a.EmbeddingProvider(),
		"max_tokens", cfg.Chunking.MaxTokens,
		"overlap_tokens", cfg.Chunking.OverlapTokens)

	return a, nil
}

func openStorage(path string) (*storage.SQLiteStorage, error) {
	path = config.ExpandHome(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// Config returns the configuration the App was built from
func (a *App) Config() *config.Config { return a.cfg }

// Storage returns the underlying store
func (a *App) Storage() storage.Storage { return a.storage }

// Indexer returns the indexer
func (a *App) Indexer() *indexer.Indexer { return a.indexer }

// Searcher returns the searcher
func (a *App) Searcher() *searcher.Searcher { return a.searcher }

// EmbeddingProvider names the active provider, "none" for keyword-only search
func (a *App) EmbeddingProvider() string {
	if a.embedder == nil {
		return embedder.ProviderNone
	}
	return a.embedder.Provider()
}

// EmbeddingModel names the active model, empty for keyword-only search
func (a *App) EmbeddingModel() string {
	if a.embedder == nil {
		return ""
	}
	return a.embedder.Model()
}

// Index indexes the Markdown tree at root and drops cached search results
func (a *App) Index(ctx context.Context, root string, force bool) (*indexer.Statistics, error) {
	abs, err := resolveDir(root)
	if err != nil {
		return nil, err
	}

	stats, err := a.indexer.IndexDirectory(ctx, abs, &indexer.Config{
		Force:     force,
		BatchSize: a.cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	a.searcher.InvalidateCache()
	return stats, nil
}

// SearchParams describes a query against one indexed root
type SearchParams struct {
	Root    string
	Query   string
	Limit   int
	Mode    searcher.SearchMode
	Filters *storage.SearchFilters
}

// Search runs a cached search against the collection for params.Root
func (a *App) Search(ctx context.Context, params SearchParams) (*searcher.SearchResponse, error) {
	coll, err := a.Collection(ctx, params.Root)
	if err != nil {
		return nil, err
	}

	return a.searcher.Search(ctx, searcher.SearchRequest{
		Query:        params.Query,
		CollectionID: coll.ID,
		Limit:        params.Limit,
		Mode:         params.Mode,
		Filters:      params.Filters,
		UseCache:     true,
	})
}

// Collection returns the collection indexed for root
func (a *App) Collection(ctx context.Context, root string) (*storage.Collection, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	coll, err := a.storage.GetCollection(ctx, abs)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, abs)
	}
	if err != nil {
		return nil, err
	}
	return coll, nil
}

// Status returns index statistics for root
func (a *App) Status(ctx context.Context, root string) (*storage.CollectionStatus, error) {
	coll, err := a.Collection(ctx, root)
	if err != nil {
		return nil, err
	}
	return a.storage.GetStatus(ctx, coll.ID)
}

// Collections lists every indexed root
func (a *App) Collections(ctx context.Context) ([]*storage.Collection, error) {
	return a.storage.ListCollections(ctx)
}

// Chunk processes a single document without storing it. relPath drives
// document classification and the document id.
func (a *App) Chunk(relPath string, content []byte) (*types.Document, error) {
	if relPath == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidRequest)
	}

	doc, err := a.processor.ProcessContent(relPath, content)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// Close releases the embedder and the store
func (a *App) Close() error {
	var errs []error
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	errs = append(errs, a.storage.Close())
	return errors.Join(errs...)
}

func resolveDir(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidRequest)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrPathNotFound, abs)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	return abs, nil
}
