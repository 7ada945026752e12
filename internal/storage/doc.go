// Package storage provides SQLite-based persistence for indexed documents.
//
// # Database Schema
//
// Tables:
//   - collections: one row per indexed knowledge-base root
//   - documents: source path, type, status, tags, projects and content hash
//   - chunks: token-bounded passages keyed by a UUIDv5 chunk key
//   - chunks_fts: FTS5 index over chunk content and section titles
//   - embeddings: float32 vectors, little-endian encoded
//
// Deleting a document cascades to its chunks, their FTS rows and embeddings.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	row := storage.FromTypesDocument(&doc, collection.ID)
//	if err := tx.UpsertDocument(ctx, row); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Filters
//
// SearchFilters.AnyOf holds filter groups that are ORed together. Inside a
// group every non-empty field must match: DocTypes, Statuses and SectionTypes
// by membership, Tags and Projects when the document carries any listed
// value, SourcePattern as a GLOB over the source path.
//
// # Build Modes
//
// The default build uses modernc.org/sqlite and needs no C toolchain. The
// cgo_sqlite tag switches to github.com/mattn/go-sqlite3, which must also be
// built with sqlite_fts5. Both register a cosine_similarity SQL function so
// vector ranking and LIMIT run inside the database.
package storage
