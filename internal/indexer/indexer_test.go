package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontext-mcp/internal/embedder"
	"github.com/dshills/doccontext-mcp/internal/processor"
	"github.com/dshills/doccontext-mcp/internal/storage"
)

// mockEmbedder implements embedder.Embedder for testing
type mockEmbedder struct {
	dimension        int
	model            string
	generateBatchErr error
	texts            int
	mu               sync.Mutex
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dimension: 8, model: "test-v1"}
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	resp, err := m.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: []string{req.Text}, InputType: req.InputType})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (m *mockEmbedder) GenerateBatch(_ context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generateBatchErr != nil {
		return nil, m.generateBatchErr
	}

	m.texts += len(req.Texts)
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		vector := make([]float32, m.dimension)
		vector[len(text)%m.dimension] = 1
		embeddings[i] = &embedder.Embedding{
			Vector:    vector,
			Dimension: m.dimension,
			Provider:  "mock",
			Model:     m.model,
		}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "mock", Model: m.model}, nil
}

func (m *mockEmbedder) Dimension() int   { return m.dimension }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return m.model }
func (m *mockEmbedder) Close() error     { return nil }

func (m *mockEmbedder) embedded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts
}

const adrDoc = `---
title: Use SQLite
status: Accepted
tags: [storage]
---
## Context

We need an embedded store.

## Decision

We will use SQLite.

## Consequences

No server to run.
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupKnowledgeBase writes a small tree with three indexable documents
func setupKnowledgeBase(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "adrs/0001-use-sqlite.adr.md", adrDoc)
	writeFile(t, root, "guides/testing.md", "# Testing\n\nRun the unit tests before every commit.\n")
	writeFile(t, root, "rules/naming.md", "# Naming\n\nUse short package names.\n")
	writeFile(t, root, "_draft.md", "# Draft\n\nNot ready.\n")
	writeFile(t, root, "empty.md", "---\ntitle: Empty\n---\n\n")
	return root
}

func setupIndexer(t *testing.T, emb embedder.Embedder) (*Indexer, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	proc := processor.New(processor.Config{Workers: 2})
	return New(store, emb, WithProcessor(proc)), store
}

func collectionFor(t *testing.T, store storage.Storage, root string) *storage.Collection {
	t.Helper()
	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	c, err := store.GetCollection(context.Background(), abs)
	require.NoError(t, err)
	return c
}

func TestIndexDirectory_FirstRun(t *testing.T) {
	root := setupKnowledgeBase(t)
	emb := newMockEmbedder()
	idx, store := setupIndexer(t, emb)
	ctx := context.Background()

	stats, err := idx.IndexDirectory(ctx, root, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.FilesDiscovered)
	assert.Equal(t, 3, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.FilesEmpty)
	assert.Zero(t, stats.DocumentsSkipped)
	assert.Zero(t, stats.FilesFailed)
	// ADR has three sections, the others one each
	assert.Equal(t, 5, stats.ChunksCreated)
	assert.Equal(t, 5, stats.EmbeddingsCreated)
	assert.Equal(t, 5, emb.embedded())

	c := collectionFor(t, store, root)
	assert.Equal(t, 3, c.TotalDocuments)
	assert.Equal(t, 5, c.TotalChunks)
	assert.Equal(t, "test-v1", c.EmbeddingModel)
	assert.Equal(t, 8, c.EmbeddingDim)
	assert.False(t, c.LastIndexedAt.IsZero())

	doc, err := store.GetDocument(ctx, c.ID, "adrs/0001-use-sqlite.adr.md")
	require.NoError(t, err)
	assert.Equal(t, "adrs_0001-use-sqlite.adr", doc.DocumentID)
	assert.Equal(t, "accepted", doc.Status)

	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "context", chunks[0].SectionType)
	assert.Equal(t, "decision", chunks[1].SectionType)
	assert.Equal(t, "consequences", chunks[2].SectionType)

	_, err = store.GetEmbedding(ctx, chunks[0].ID)
	assert.NoError(t, err)
}

func TestIndexDirectory_Incremental(t *testing.T) {
	root := setupKnowledgeBase(t)
	emb := newMockEmbedder()
	idx, store := setupIndexer(t, emb)
	ctx := context.Background()

	_, err := idx.IndexDirectory(ctx, root, nil)
	require.NoError(t, err)

	t.Run("unchanged documents are skipped", func(t *testing.T) {
		before := emb.embedded()
		stats, err := idx.IndexDirectory(ctx, root, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.DocumentsSkipped)
		assert.Zero(t, stats.DocumentsIndexed)
		assert.Equal(t, before, emb.embedded())
	})

	t.Run("changed document is re-indexed", func(t *testing.T) {
		writeFile(t, root, "guides/testing.md", "# Testing\n\nRun the integration tests too.\n")
		stats, err := idx.IndexDirectory(ctx, root, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentsIndexed)
		assert.Equal(t, 2, stats.DocumentsSkipped)

		c := collectionFor(t, store, root)
		results, err := store.SearchText(ctx, c.ID, "integration", 10, nil)
		require.NoError(t, err)
		assert.Len(t, results, 1)

		results, err = store.SearchText(ctx, c.ID, "commit", 10, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("vanished document is deleted", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(root, "rules", "naming.md")))
		stats, err := idx.IndexDirectory(ctx, root, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentsDeleted)

		c := collectionFor(t, store, root)
		assert.Equal(t, 2, c.TotalDocuments)
		assert.Equal(t, 4, c.TotalChunks)
	})

	t.Run("force re-indexes everything", func(t *testing.T) {
		stats, err := idx.IndexDirectory(ctx, root, &Config{Force: true})
		require.NoError(t, err)
		assert.Equal(t, 2, stats.DocumentsIndexed)
		assert.Zero(t, stats.DocumentsSkipped)

		c := collectionFor(t, store, root)
		assert.Equal(t, 4, c.TotalChunks, "re-indexing does not duplicate chunks")
	})
}

func TestIndexDirectory_ModelChangeForcesReindex(t *testing.T) {
	root := setupKnowledgeBase(t)
	emb := newMockEmbedder()
	idx, store := setupIndexer(t, emb)
	ctx := context.Background()

	_, err := idx.IndexDirectory(ctx, root, nil)
	require.NoError(t, err)

	emb.model = "test-v2"
	stats, err := idx.IndexDirectory(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DocumentsIndexed)

	c := collectionFor(t, store, root)
	assert.Equal(t, "test-v2", c.EmbeddingModel)
}

func TestIndexDirectory_WithoutEmbedder(t *testing.T) {
	root := setupKnowledgeBase(t)
	idx, store := setupIndexer(t, nil)
	ctx := context.Background()

	stats, err := idx.IndexDirectory(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DocumentsIndexed)
	assert.Zero(t, stats.EmbeddingsCreated)

	c := collectionFor(t, store, root)
	status, err := store.GetStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, status.EmbeddingsCount)
	assert.False(t, status.Health.EmbeddingsAvailable)

	results, err := store.SearchText(ctx, c.ID, "sqlite", 10, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestIndexDirectory_EmbeddingFailure(t *testing.T) {
	root := setupKnowledgeBase(t)
	emb := newMockEmbedder()
	emb.generateBatchErr = errors.New("provider down")
	idx, store := setupIndexer(t, emb)
	ctx := context.Background()

	_, err := idx.IndexDirectory(ctx, root, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")

	c := collectionFor(t, store, root)
	docs, err := store.ListDocuments(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIndexDirectory_InProgress(t *testing.T) {
	root := setupKnowledgeBase(t)
	idx, _ := setupIndexer(t, newMockEmbedder())

	require.True(t, idx.lock.TryAcquire())
	assert.True(t, idx.Indexing())

	_, err := idx.IndexDirectory(context.Background(), root, nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)

	idx.lock.Release()
	assert.False(t, idx.Indexing())

	_, err = idx.IndexDirectory(context.Background(), root, nil)
	assert.NoError(t, err)
}

func TestIndexDirectory_Errors(t *testing.T) {
	idx, _ := setupIndexer(t, newMockEmbedder())

	t.Run("missing root", func(t *testing.T) {
		_, err := idx.IndexDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
		assert.Error(t, err)
	})

	t.Run("canceled", func(t *testing.T) {
		root := setupKnowledgeBase(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := idx.IndexDirectory(ctx, root, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("lock released after error", func(t *testing.T) {
		assert.False(t, idx.Indexing())
	})
}

func TestIndexLock(t *testing.T) {
	var l IndexLock
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	l.Release()
	assert.True(t, l.TryAcquire())
}
