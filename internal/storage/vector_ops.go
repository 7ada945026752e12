package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ErrEmptyQuery is returned when a text query has no searchable terms
var ErrEmptyQuery = errors.New("empty search query")

// similarityFunc is the SQL scalar function registered by the driver build files
const similarityFunc = "cosine_similarity"

// searchVector ranks chunks by cosine similarity computed inside SQLite
func searchVector(ctx context.Context, q querier, collectionID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	if limit <= 0 {
		return []VectorResult{}, nil
	}

	blob := serializeVector(queryVector)
	query := `
		SELECT c.id, ` + similarityFunc + `(e.vector, ?) AS similarity
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN documents d ON c.document_id = d.id
		WHERE d.collection_id = ? AND e.dimension = ?
	`
	args := []any{blob, collectionID, len(queryVector)}

	query, args = applyFilters(query, args, filters)

	if filters != nil && filters.MinRelevance > 0 {
		query += " AND " + similarityFunc + "(e.vector, ?) >= ?"
		args = append(args, blob, filters.MinRelevance)
	}

	query += " ORDER BY similarity DESC, c.id LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.ChunkID, &result.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// searchText performs BM25 full-text search using FTS5
func searchText(ctx context.Context, q querier, collectionID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return []TextResult{}, nil
	}

	sqlQuery := `
		SELECT c.id, bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		INNER JOIN documents d ON c.document_id = d.id
		WHERE chunks_fts MATCH ?
		AND d.collection_id = ?
	`
	args := []any{sanitized, collectionID}

	sqlQuery, args = applyFilters(sqlQuery, args, filters)

	// bm25 is negative, lower is better
	sqlQuery += " ORDER BY score, c.id LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTextResults(rows, filters)
}

// applyFilters appends the OR of every non-empty filter group. An empty
// group matches everything, so it disables filtering altogether.
func applyFilters(query string, args []any, filters *SearchFilters) (string, []any) {
	if filters == nil || len(filters.AnyOf) == 0 {
		return query, args
	}

	for _, f := range filters.AnyOf {
		if f.IsEmpty() {
			return query, args
		}
	}

	groups := make([]string, 0, len(filters.AnyOf))
	for _, f := range filters.AnyOf {
		var clause string
		clause, args = filterClause(f, args)
		groups = append(groups, clause)
	}

	return query + " AND (" + strings.Join(groups, " OR ") + ")", args
}

func filterClause(f Filter, args []any) (string, []any) {
	var conds []string

	if len(f.DocTypes) > 0 {
		conds = append(conds, "d.doc_type IN ("+placeholders(len(f.DocTypes))+")")
		args = appendStrings(args, f.DocTypes, strings.ToLower)
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "lower(d.status) IN ("+placeholders(len(f.Statuses))+")")
		args = appendStrings(args, f.Statuses, strings.ToLower)
	}
	if len(f.Tags) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(d.tags) WHERE lower(json_each.value) IN ("+placeholders(len(f.Tags))+"))")
		args = appendStrings(args, f.Tags, strings.ToLower)
	}
	if len(f.Projects) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(d.projects) WHERE json_each.value IN ("+placeholders(len(f.Projects))+"))")
		args = appendStrings(args, f.Projects, nil)
	}
	if len(f.SectionTypes) > 0 {
		conds = append(conds, "c.section_type IN ("+placeholders(len(f.SectionTypes))+")")
		args = appendStrings(args, f.SectionTypes, strings.ToLower)
	}
	if f.SourcePattern != "" {
		conds = append(conds, "d.source_path GLOB ?")
		args = append(args, f.SourcePattern)
	}

	return "(" + strings.Join(conds, " AND ") + ")", args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func appendStrings(args []any, values []string, transform func(string) string) []any {
	for _, v := range values {
		if transform != nil {
			v = transform(v)
		}
		args = append(args, v)
	}
	return args
}

// collectTextResults normalizes BM25 scores and applies the relevance floor
func collectTextResults(rows *sql.Rows, filters *SearchFilters) ([]TextResult, error) {
	results := make([]TextResult, 0)

	for rows.Next() {
		var result TextResult
		if err := rows.Scan(&result.ChunkID, &result.BM25Score); err != nil {
			return nil, err
		}

		result.BM25Score = normalizeBM25(result.BM25Score)

		if filters != nil && filters.MinRelevance > 0 && result.BM25Score < filters.MinRelevance {
			continue
		}

		results = append(results, result)
	}

	return results, rows.Err()
}

// normalizeBM25 maps a raw FTS5 bm25 value (negative, lower is better) onto
// [0,1) with stronger matches scoring higher
func normalizeBM25(score float64) float64 {
	s := math.Abs(score)
	return s / (1 + s)
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sanitizeFTSQuery turns free text into an FTS5 expression of quoted terms
// joined by OR, so no user input is interpreted as FTS5 syntax.
func sanitizeFTSQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// SerializeVector encodes a vector for the embeddings table
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector decodes a vector read from the embeddings table
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
