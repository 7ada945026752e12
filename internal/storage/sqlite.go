package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Single writer; also keeps one shared connection for :memory: databases
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// Collection operations

func (s *SQLiteStorage) createCollectionWithQuerier(ctx context.Context, q querier, c *Collection) error {
	query := `
		INSERT INTO collections (root_path, index_version, embedding_provider, embedding_model, embedding_dim, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		c.RootPath, c.IndexVersion, c.EmbeddingProvider, c.EmbeddingModel, c.EmbeddingDim, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("collection %s: %w", c.RootPath, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateCollection(ctx context.Context, c *Collection) error {
	return s.createCollectionWithQuerier(ctx, s.querier(), c)
}

const collectionColumns = `
	id, root_path, total_documents, total_chunks, index_version,
	COALESCE(embedding_provider, ''), COALESCE(embedding_model, ''), embedding_dim,
	last_indexed_at, created_at, updated_at
`

func scanCollection(row scanner) (*Collection, error) {
	var c Collection
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.RootPath, &c.TotalDocuments, &c.TotalChunks, &c.IndexVersion,
		&c.EmbeddingProvider, &c.EmbeddingModel, &c.EmbeddingDim,
		&lastIndexedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		c.LastIndexedAt = lastIndexedAt.Time
	}
	return &c, nil
}

func (s *SQLiteStorage) getCollectionWithQuerier(ctx context.Context, q querier, rootPath string) (*Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE root_path = ?`
	return scanCollection(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetCollection(ctx context.Context, rootPath string) (*Collection, error) {
	return s.getCollectionWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getCollectionByID(ctx context.Context, q querier, id int64) (*Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = ?`
	return scanCollection(q.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStorage) updateCollectionWithQuerier(ctx context.Context, q querier, c *Collection) error {
	query := `
		UPDATE collections
		SET total_documents = ?, total_chunks = ?, index_version = ?,
		    embedding_provider = ?, embedding_model = ?, embedding_dim = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		c.TotalDocuments, c.TotalChunks, c.IndexVersion,
		c.EmbeddingProvider, c.EmbeddingModel, c.EmbeddingDim,
		c.LastIndexedAt, now, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateCollection(ctx context.Context, c *Collection) error {
	return s.updateCollectionWithQuerier(ctx, s.querier(), c)
}

func (s *SQLiteStorage) listCollectionsWithQuerier(ctx context.Context, q querier) ([]*Collection, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections ORDER BY root_path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	collections := make([]*Collection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (s *SQLiteStorage) ListCollections(ctx context.Context) ([]*Collection, error) {
	return s.listCollectionsWithQuerier(ctx, s.querier())
}

// Document operations

func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	tags, err := encodeList(doc.Tags)
	if err != nil {
		return err
	}
	projects, err := encodeList(doc.Projects)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (
			collection_id, document_id, source_path, title, doc_type, status,
			tags, projects, metadata, content_hash, chunk_count, indexed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, source_path) DO UPDATE SET
			document_id = excluded.document_id,
			title = excluded.title,
			doc_type = excluded.doc_type,
			status = excluded.status,
			tags = excluded.tags,
			projects = excluded.projects,
			metadata = excluded.metadata,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			indexed_at = excluded.indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		doc.CollectionID, doc.DocumentID, doc.SourcePath, doc.Title, doc.DocType, doc.Status,
		tags, projects, string(metadata), doc.ContentHash[:], doc.ChunkCount, now, now, now,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.IndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

const documentColumns = `
	id, collection_id, document_id, source_path, title, doc_type, COALESCE(status, ''),
	tags, projects, metadata, content_hash, chunk_count, indexed_at, created_at, updated_at
`

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	var hash []byte
	var tags, projects, metadata string
	var indexedAt sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.CollectionID, &doc.DocumentID, &doc.SourcePath, &doc.Title, &doc.DocType, &doc.Status,
		&tags, &projects, &metadata, &hash, &doc.ChunkCount, &indexedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	copy(doc.ContentHash[:], hash)
	if indexedAt.Valid {
		doc.IndexedAt = indexedAt.Time
	}
	if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of %s: %w", doc.SourcePath, err)
	}
	if err := json.Unmarshal([]byte(projects), &doc.Projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects of %s: %w", doc.SourcePath, err)
	}
	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata of %s: %w", doc.SourcePath, err)
	}
	return &doc, nil
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, collectionID int64, sourcePath string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection_id = ? AND source_path = ?`
	return scanDocument(q.QueryRowContext(ctx, query, collectionID, sourcePath))
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, collectionID int64, sourcePath string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), collectionID, sourcePath)
}

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, collectionID int64) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE collection_id = ? ORDER BY source_path`
	rows, err := q.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), collectionID)
}

// deleteDocumentWithQuerier removes a document; chunks and embeddings cascade
func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	return err
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Chunk operations

func (s *SQLiteStorage) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode chunk metadata: %w", err)
	}

	query := `
		INSERT INTO chunks (
			document_id, chunk_key, chunk_id, chunk_index, content, content_hash,
			token_count, section_type, section_title, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_key) DO UPDATE SET
			chunk_id = excluded.chunk_id,
			content = excluded.content,
			content_hash = excluded.content_hash,
			token_count = excluded.token_count,
			section_type = excluded.section_type,
			section_title = excluded.section_title,
			metadata = excluded.metadata
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		chunk.DocumentRowID, chunk.ChunkKey, chunk.ChunkID, chunk.ChunkIndex, chunk.Content,
		chunk.ContentHash[:], chunk.TokenCount, chunk.SectionType, chunk.SectionTitle, string(metadata), now,
	).Scan(&chunk.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

const chunkColumns = `
	c.id, c.document_id, d.document_id, c.chunk_key, c.chunk_id, c.chunk_index, c.content,
	c.content_hash, c.token_count, c.section_type, COALESCE(c.section_title, ''), c.metadata, c.created_at
`

func scanChunk(row scanner) (*Chunk, error) {
	var chunk Chunk
	var hash []byte
	var metadata string
	err := row.Scan(
		&chunk.ID, &chunk.DocumentRowID, &chunk.DocumentID, &chunk.ChunkKey, &chunk.ChunkID, &chunk.ChunkIndex,
		&chunk.Content, &hash, &chunk.TokenCount, &chunk.SectionType, &chunk.SectionTitle, &metadata, &chunk.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(chunk.ContentHash[:], hash)
	if err := json.Unmarshal([]byte(metadata), &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata of chunk %s: %w", chunk.ChunkID, err)
	}
	return &chunk, nil
}

func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks c JOIN documents d ON c.document_id = d.id WHERE c.id = ?`
	return scanChunk(q.QueryRowContext(ctx, query, chunkID))
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

func (s *SQLiteStorage) getChunksWithQuerier(ctx context.Context, q querier, chunkIDs []int64) (map[int64]*Chunk, error) {
	chunks := make(map[int64]*Chunk, len(chunkIDs))
	if len(chunkIDs) == 0 {
		return chunks, nil
	}

	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}
	query := `SELECT ` + chunkColumns + ` FROM chunks c JOIN documents d ON c.document_id = d.id
		WHERE c.id IN (` + placeholders(len(chunkIDs)) + `)`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks[chunk.ID] = chunk
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) GetChunks(ctx context.Context, chunkIDs []int64) (map[int64]*Chunk, error) {
	return s.getChunksWithQuerier(ctx, s.querier(), chunkIDs)
}

func (s *SQLiteStorage) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks c JOIN documents d ON c.document_id = d.id
		WHERE c.document_id = ? ORDER BY c.chunk_index`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) deleteChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	return err
}

func (s *SQLiteStorage) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return s.deleteChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Embedding operations

func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			created_at = excluded.created_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension, embedding.Provider, embedding.Model, now,
	).Scan(&embedding.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

func (s *SQLiteStorage) getEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var e Embedding
	err := q.QueryRowContext(ctx, query, chunkID).Scan(
		&e.ID, &e.ChunkID, &e.Vector, &e.Dimension, &e.Provider, &e.Model, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, collectionID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.querier(), collectionID, queryVector, limit, filters)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, collectionID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.querier(), collectionID, query, limit, filters)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, collectionID int64) (*CollectionStatus, error) {
	collection, err := s.getCollectionByID(ctx, q, collectionID)
	if err != nil {
		return nil, err
	}

	status := &CollectionStatus{
		Collection:      collection,
		LastIndexedAt:   collection.LastIndexedAt,
		DocumentsByType: make(map[string]int),
	}

	rows, err := q.QueryContext(ctx, `
		SELECT doc_type, COUNT(*) FROM documents
		WHERE collection_id = ?
		GROUP BY doc_type
	`, collectionID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var docType string
		var count int
		if err := rows.Scan(&docType, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		status.DocumentsByType[docType] = count
		status.DocumentsCount += count
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks c
		JOIN documents d ON c.document_id = d.id
		WHERE d.collection_id = ?
	`, collectionID).Scan(&status.ChunksCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings e
		JOIN chunks c ON e.chunk_id = c.id
		JOIN documents d ON c.document_id = d.id
		WHERE d.collection_id = ?
	`, collectionID).Scan(&status.EmbeddingsCount)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var ftsTable string
	ftsErr := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='chunks_fts'").Scan(&ftsTable)

	status.Health = HealthStatus{
		DatabaseAccessible:  true,
		EmbeddingsAvailable: status.EmbeddingsCount > 0,
		FTSIndexesBuilt:     ftsErr == nil,
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, collectionID int64) (*CollectionStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), collectionID)
}

// isUniqueViolation matches the constraint message both drivers report
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

// Transaction implementations run every statement on the transaction

func (t *sqliteTx) CreateCollection(ctx context.Context, c *Collection) error {
	return t.storage.createCollectionWithQuerier(ctx, t.querier(), c)
}

func (t *sqliteTx) GetCollection(ctx context.Context, rootPath string) (*Collection, error) {
	return t.storage.getCollectionWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateCollection(ctx context.Context, c *Collection) error {
	return t.storage.updateCollectionWithQuerier(ctx, t.querier(), c)
}

func (t *sqliteTx) ListCollections(ctx context.Context) ([]*Collection, error) {
	return t.storage.listCollectionsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, collectionID int64, sourcePath string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), collectionID, sourcePath)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier(), collectionID)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) GetChunks(ctx context.Context, chunkIDs []int64) (map[int64]*Chunk, error) {
	return t.storage.getChunksWithQuerier(ctx, t.querier(), chunkIDs)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error) {
	return t.storage.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteChunksByDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.storage.getEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, collectionID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, t.querier(), collectionID, vector, limit, filters)
}

func (t *sqliteTx) SearchText(ctx context.Context, collectionID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.querier(), collectionID, query, limit, filters)
}

func (t *sqliteTx) GetStatus(ctx context.Context, collectionID int64) (*CollectionStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), collectionID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
