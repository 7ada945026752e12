package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/doccontext-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying indexed documents
type Storage interface {
	// Collection operations
	CreateCollection(ctx context.Context, collection *Collection) error
	GetCollection(ctx context.Context, rootPath string) (*Collection, error)
	UpdateCollection(ctx context.Context, collection *Collection) error
	ListCollections(ctx context.Context) ([]*Collection, error)

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, collectionID int64, sourcePath string) (*Document, error)
	ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	GetChunks(ctx context.Context, chunkIDs []int64) (map[int64]*Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)

	// Search operations
	SearchVector(ctx context.Context, collectionID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, collectionID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context, collectionID int64) (*CollectionStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Collection is one indexed knowledge-base root
type Collection struct {
	ID                int64
	RootPath          string
	TotalDocuments    int
	TotalChunks       int
	IndexVersion      string
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingDim      int
	LastIndexedAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Document is a stored knowledge-base file
type Document struct {
	ID           int64
	CollectionID int64
	DocumentID   string // Path-derived identifier, e.g. adrs_0001-use-sqlite
	SourcePath   string // Relative to the collection root
	Title        string
	DocType      string
	Status       string
	Tags         []string
	Projects     []string
	Metadata     types.Metadata
	ContentHash  [32]byte
	ChunkCount   int
	IndexedAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chunk is a stored chunk with its full metadata
type Chunk struct {
	ID            int64
	DocumentRowID int64
	DocumentID    string // Path-derived document identifier, read through the documents join
	ChunkKey      string // UUIDv5, see ChunkKey
	ChunkID       string // {documentId}_chunk_{n}
	ChunkIndex    int
	Content       string
	ContentHash   [32]byte
	TokenCount    int
	SectionType   string
	SectionTitle  string
	Metadata      types.ChunkMetadata
	CreatedAt     time.Time
}

// Embedding represents a vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Filter narrows results to chunks matching every non-empty field. List
// fields match when the chunk carries any of the listed values.
type Filter struct {
	DocTypes      []string
	Statuses      []string
	Tags          []string
	Projects      []string
	SectionTypes  []string
	SourcePattern string // GLOB over the document source path
}

// IsEmpty reports whether the filter constrains nothing
func (f Filter) IsEmpty() bool {
	return len(f.DocTypes) == 0 && len(f.Statuses) == 0 && len(f.Tags) == 0 &&
		len(f.Projects) == 0 && len(f.SectionTypes) == 0 && f.SourcePattern == ""
}

// SearchFilters contains filters for narrowing search results. A chunk
// matches when it satisfies at least one filter in AnyOf.
type SearchFilters struct {
	AnyOf        []Filter
	MinRelevance float64 // Minimum relevance score
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	BM25Score float64 // Normalized to [0,1), higher is better
}

// CollectionStatus contains statistics about an indexed collection
type CollectionStatus struct {
	Collection      *Collection
	DocumentsCount  int
	ChunksCount     int
	EmbeddingsCount int
	DocumentsByType map[string]int
	IndexSizeMB     float64
	LastIndexedAt   time.Time
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexesBuilt     bool
}

// chunkNamespace scopes chunk keys to this application
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dshills/doccontext-mcp/chunk"))

// ChunkKey derives the storage key of a chunk from its collection, source
// path and index. Paths that map to the same document id still get distinct
// keys.
func ChunkKey(collectionID int64, sourcePath string, index int) string {
	name := fmt.Sprintf("%d:%s#%d", collectionID, sourcePath, index)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// FromTypesDocument converts a processed document to its storage row
func FromTypesDocument(doc *types.Document, collectionID int64) *Document {
	return &Document{
		CollectionID: collectionID,
		DocumentID:   doc.ID,
		SourcePath:   doc.Metadata.SourcePath,
		Title:        doc.Metadata.Title,
		DocType:      string(doc.Metadata.Type),
		Status:       doc.Metadata.Status,
		Tags:         doc.Metadata.Tags,
		Projects:     doc.Metadata.Projects,
		Metadata:     doc.Metadata,
		ContentHash:  doc.ContentHash,
		ChunkCount:   len(doc.Chunks),
	}
}

// FromTypesChunk converts a processed chunk to its storage row
func FromTypesChunk(c *types.Chunk, doc *Document) *Chunk {
	return &Chunk{
		DocumentRowID: doc.ID,
		DocumentID:    doc.DocumentID,
		ChunkKey:      ChunkKey(doc.CollectionID, doc.SourcePath, c.Metadata.ChunkIndex),
		ChunkID:       c.ID,
		ChunkIndex:    c.Metadata.ChunkIndex,
		Content:       c.Content,
		ContentHash:   c.ContentHash,
		TokenCount:    c.Metadata.Tokens,
		SectionType:   string(c.Metadata.SectionType),
		SectionTitle:  c.Metadata.SectionTitle,
		Metadata:      c.Metadata,
	}
}

// ToTypesChunk converts a stored chunk back to the domain type
func (c *Chunk) ToTypesChunk() types.Chunk {
	return types.Chunk{
		ID:          c.ChunkID,
		Content:     c.Content,
		Metadata:    c.Metadata,
		DocumentID:  c.DocumentID,
		ContentHash: c.ContentHash,
	}
}
