package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dshills/doccontext-mcp/internal/embedder"
	"github.com/dshills/doccontext-mcp/internal/processor"
	"github.com/dshills/doccontext-mcp/internal/storage"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

// ErrIndexingInProgress is returned when a run starts while another is active
var ErrIndexingInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: process -> diff -> embed -> store
type Indexer struct {
	processor *processor.Processor
	embedder  embedder.Embedder // nil disables embeddings (keyword search only)
	storage   storage.Storage
	logger    *slog.Logger
	lock      IndexLock
}

// Config contains per-run options
type Config struct {
	Force     bool // Re-index documents whose content hash is unchanged
	BatchSize int  // Texts per embedding request (default: embedder.DefaultBatchSize)
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesDiscovered   int
	DocumentsIndexed  int
	DocumentsSkipped  int // Unchanged since the last run
	DocumentsDeleted  int // Stored documents whose file vanished
	FilesEmpty        int
	FilesFailed       int
	DirsSkipped       int
	ChunksCreated     int
	EmbeddingsCreated int
	Duration          time.Duration
	ErrorMessages     []string
}

// Option configures an Indexer
type Option func(*Indexer)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// WithProcessor replaces the default document processor
func WithProcessor(p *processor.Processor) Option {
	return func(idx *Indexer) { idx.processor = p }
}

// New creates a new Indexer. emb may be nil.
func New(store storage.Storage, emb embedder.Embedder, opts ...Option) *Indexer {
	idx := &Indexer{
		embedder: emb,
		storage:  store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.processor == nil {
		idx.processor = processor.New(processor.DefaultConfig(), processor.WithLogger(idx.logger))
	}
	return idx
}

// Processor returns the document processor used by the indexer
func (idx *Indexer) Processor() *processor.Processor {
	return idx.processor
}

// Indexing reports whether a run is in progress
func (idx *Indexer) Indexing() bool {
	return idx.lock.Held()
}

// IndexDirectory indexes every Markdown document below rootPath into the
// collection for that root
func (idx *Indexer) IndexDirectory(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}

	startTime := time.Now()

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	collection, err := idx.getOrCreateCollection(ctx, absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection: %w", err)
	}

	force := config.Force
	if idx.embeddingModelChanged(collection) {
		idx.logger.Info("embedding model changed, re-indexing all documents",
			"previous", collection.EmbeddingModel, "current", idx.embedder.Model())
		force = true
	}

	result, err := idx.processor.ProcessDirectory(ctx, absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to process directory: %w", err)
	}

	stats := &Statistics{
		FilesDiscovered: result.Stats.FilesDiscovered,
		FilesEmpty:      result.Stats.FilesEmpty,
		FilesFailed:     result.Stats.FilesFailed,
		DirsSkipped:     result.Stats.DirsSkipped,
		ErrorMessages:   append([]string(nil), result.Stats.ErrorMessages...),
	}

	existing, err := idx.storage.ListDocuments(ctx, collection.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	stored := make(map[string]*storage.Document, len(existing))
	for _, doc := range existing {
		stored[doc.SourcePath] = doc
	}

	pending := make([]*types.Document, 0, len(result.Documents))
	for i := range result.Documents {
		doc := &result.Documents[i]
		prev, ok := stored[doc.Metadata.SourcePath]
		delete(stored, doc.Metadata.SourcePath)

		if ok && !force && prev.ContentHash == doc.ContentHash {
			stats.DocumentsSkipped++
			continue
		}
		pending = append(pending, doc)
	}

	vectors, err := idx.embedDocuments(ctx, pending, config.BatchSize)
	if err != nil {
		return nil, err
	}

	for i, doc := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := idx.storeDocument(ctx, collection, doc, vectors[i]); err != nil {
			stats.FilesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", doc.Metadata.SourcePath, err))
			idx.logger.Warn("failed to store document", "path", doc.Metadata.SourcePath, "error", err)
			continue
		}
		stats.DocumentsIndexed++
		stats.ChunksCreated += len(doc.Chunks)
		stats.EmbeddingsCreated += len(vectors[i])
	}

	// Whatever is left in stored no longer exists on disk
	deleted, err := idx.deleteDocuments(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to delete vanished documents: %w", err)
	}
	stats.DocumentsDeleted = deleted

	if err := idx.updateCollectionStats(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to update collection stats: %w", err)
	}

	stats.Duration = time.Since(startTime)

	idx.logger.Info("indexed collection",
		"root", absRoot,
		"indexed", stats.DocumentsIndexed,
		"skipped", stats.DocumentsSkipped,
		"deleted", stats.DocumentsDeleted,
		"failed", stats.FilesFailed,
		"chunks", stats.ChunksCreated,
		"duration", stats.Duration)

	return stats, nil
}

// getOrCreateCollection retrieves an existing collection or creates a new one
func (idx *Indexer) getOrCreateCollection(ctx context.Context, rootPath string) (*storage.Collection, error) {
	collection, err := idx.storage.GetCollection(ctx, rootPath)
	if err == nil {
		return collection, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	collection = &storage.Collection{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if idx.embedder != nil {
		collection.EmbeddingProvider = idx.embedder.Provider()
		collection.EmbeddingModel = idx.embedder.Model()
		collection.EmbeddingDim = idx.embedder.Dimension()
	}

	if err := idx.storage.CreateCollection(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// embeddingModelChanged reports whether stored vectors came from another model
func (idx *Indexer) embeddingModelChanged(c *storage.Collection) bool {
	if idx.embedder == nil || c.TotalChunks == 0 {
		return false
	}
	return c.EmbeddingProvider != idx.embedder.Provider() ||
		c.EmbeddingModel != idx.embedder.Model() ||
		c.EmbeddingDim != idx.embedder.Dimension()
}

// embedDocuments embeds every chunk of docs in batches. The result holds one
// vector slice per document, nil when no embedder is configured.
func (idx *Indexer) embedDocuments(ctx context.Context, docs []*types.Document, batchSize int) ([][][]float32, error) {
	out := make([][][]float32, len(docs))
	if idx.embedder == nil {
		return out, nil
	}

	var texts []string
	for _, doc := range docs {
		for _, c := range doc.Chunks {
			texts = append(texts, c.Content)
		}
	}
	if len(texts) == 0 {
		return out, nil
	}

	vectors, err := embedder.EmbedTexts(ctx, idx.embedder, texts, embedder.InputDocument, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	offset := 0
	for i, doc := range docs {
		out[i] = vectors[offset : offset+len(doc.Chunks)]
		offset += len(doc.Chunks)
	}
	return out, nil
}

// storeDocument replaces a document's rows in a single transaction
func (idx *Indexer) storeDocument(ctx context.Context, collection *storage.Collection, doc *types.Document, vectors [][]float32) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := storage.FromTypesDocument(doc, collection.ID)
	if err := tx.UpsertDocument(ctx, row); err != nil {
		return err
	}

	// Chunk counts can shrink, so drop the old set first
	if err := tx.DeleteChunksByDocument(ctx, row.ID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for i := range doc.Chunks {
		chunk := storage.FromTypesChunk(&doc.Chunks[i], row)
		if err := tx.UpsertChunk(ctx, chunk); err != nil {
			return err
		}

		if vectors == nil {
			continue
		}
		if err := tx.UpsertEmbedding(ctx, &storage.Embedding{
			ChunkID:   chunk.ID,
			Vector:    storage.SerializeVector(vectors[i]),
			Dimension: len(vectors[i]),
			Provider:  idx.embedder.Provider(),
			Model:     idx.embedder.Model(),
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (idx *Indexer) deleteDocuments(ctx context.Context, docs map[string]*storage.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for path, doc := range docs {
		if err := tx.DeleteDocument(ctx, doc.ID); err != nil {
			return 0, err
		}
		idx.logger.Debug("removed document", "path", path)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// updateCollectionStats updates the collection's document and chunk counts
func (idx *Indexer) updateCollectionStats(ctx context.Context, collection *storage.Collection) error {
	status, err := idx.storage.GetStatus(ctx, collection.ID)
	if err != nil {
		return err
	}

	collection.TotalDocuments = status.DocumentsCount
	collection.TotalChunks = status.ChunksCount
	collection.LastIndexedAt = time.Now()
	if idx.embedder != nil {
		collection.EmbeddingProvider = idx.embedder.Provider()
		collection.EmbeddingModel = idx.embedder.Model()
		collection.EmbeddingDim = idx.embedder.Dimension()
	}

	return idx.storage.UpdateCollection(ctx, collection)
}
