package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/doccontext-mcp/internal/app"
	"github.com/dshills/doccontext-mcp/internal/indexer"
	"github.com/dshills/doccontext-mcp/internal/searcher"
	"github.com/dshills/doccontext-mcp/internal/storage"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodePathNotFound       = -32001 // Specified path does not exist or is not a directory
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Directory not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeEmptyDocument      = -32005 // Document has no body after front matter
)

// maxErrorMessages caps the per-file errors echoed in an index response
const maxErrorMessages = 5

// handleIndexDocuments handles the index_documents tool invocation
func (s *Server) handleIndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	force := getBoolDefault(args, "force_reindex", false)

	stats, err := s.app.Index(ctx, path, force)
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":            true,
		"path":               path,
		"files_discovered":   stats.FilesDiscovered,
		"documents_indexed":  stats.DocumentsIndexed,
		"documents_skipped":  stats.DocumentsSkipped,
		"documents_deleted":  stats.DocumentsDeleted,
		"files_empty":        stats.FilesEmpty,
		"files_failed":       stats.FilesFailed,
		"chunks_created":     stats.ChunksCreated,
		"embeddings_created": stats.EmbeddingsCreated,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if errorCount := len(stats.ErrorMessages); errorCount > 0 {
		if errorCount > maxErrorMessages {
			response["errors"] = stats.ErrorMessages[:maxErrorMessages]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", string(searcher.SearchModeHybrid))
	switch searcher.SearchMode(searchMode) {
	case searcher.SearchModeHybrid, searcher.SearchModeVector, searcher.SearchModeKeyword:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	filters, err := parseFilters(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid filters", map[string]interface{}{
			"param":  "filters",
			"reason": err.Error(),
		})
	}

	resp, err := s.app.Search(ctx, app.SearchParams{
		Root:    path,
		Query:   query,
		Limit:   limit,
		Mode:    searcher.SearchMode(searchMode),
		Filters: filters,
	})
	if errors.Is(err, app.ErrNotIndexed) {
		return nil, newMCPError(ErrorCodeNotIndexed, "directory not indexed, run index_documents first", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = formatSearchResult(r)
	}

	response := map[string]interface{}{
		"query":          query,
		"search_mode":    string(resp.SearchMode),
		"total_results":  resp.TotalResults,
		"vector_results": resp.VectorResults,
		"text_results":   resp.TextResults,
		"cache_hit":      resp.CacheHit,
		"duration_ms":    resp.Duration.Milliseconds(),
		"results":        results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleChunkDocument handles the chunk_document tool invocation
func (s *Server) handleChunkDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, _ := args["path"].(string)
	if path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	relPath, content, err := chunkSource(args, path)
	if err != nil {
		return nil, err
	}

	doc, err := s.app.Chunk(relPath, content)
	if errors.Is(err, app.ErrEmptyDocument) {
		return nil, newMCPError(ErrorCodeEmptyDocument, "document has no content after front matter", map[string]interface{}{
			"path": relPath,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to process document", map[string]interface{}{
			"path":  relPath,
			"error": err.Error(),
		})
	}

	chunks := make([]map[string]interface{}, len(doc.Chunks))
	for i, c := range doc.Chunks {
		chunks[i] = map[string]interface{}{
			"id":            c.ID,
			"chunk_index":   c.Metadata.ChunkIndex,
			"section_type":  string(c.Metadata.SectionType),
			"section_title": c.Metadata.SectionTitle,
			"tokens":        c.Metadata.Tokens,
			"content":       c.Content,
		}
	}

	cfg := s.app.Config().Chunking
	response := map[string]interface{}{
		"document_id":    doc.ID,
		"metadata":       doc.Metadata,
		"total_chunks":   len(doc.Chunks),
		"max_tokens":     cfg.MaxTokens,
		"overlap_tokens": cfg.OverlapTokens,
		"chunks":         chunks,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation. Without a path it
// lists every indexed collection.
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	path, _ := args["path"].(string)
	if path == "" {
		return s.listCollections(ctx)
	}

	if err := validatePath(path); err != nil {
		return nil, invalidPathError(err)
	}

	status, err := s.app.Status(ctx, path)
	if errors.Is(err, app.ErrNotIndexed) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Directory not indexed. Use index_documents tool to index this directory.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	coll := status.Collection
	response := map[string]interface{}{
		"indexed": true,
		"collection": map[string]interface{}{
			"path":               coll.RootPath,
			"index_version":      coll.IndexVersion,
			"embedding_provider": coll.EmbeddingProvider,
			"embedding_model":    coll.EmbeddingModel,
			"embedding_dim":      coll.EmbeddingDim,
			"last_indexed_at":    formatTime(coll.LastIndexedAt),
		},
		"statistics": map[string]interface{}{
			"documents_count":   status.DocumentsCount,
			"chunks_count":      status.ChunksCount,
			"embeddings_count":  status.EmbeddingsCount,
			"documents_by_type": status.DocumentsByType,
			"index_size_mb":     fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_indexes_built":    status.Health.FTSIndexesBuilt,
		},
		"indexing_in_progress": s.app.Indexer().Indexing(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) listCollections(ctx context.Context) (*mcp.CallToolResult, error) {
	colls, err := s.app.Collections(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list collections", map[string]interface{}{
			"error": err.Error(),
		})
	}

	list := make([]map[string]interface{}, len(colls))
	for i, c := range colls {
		list[i] = map[string]interface{}{
			"path":            c.RootPath,
			"documents_count": c.TotalDocuments,
			"chunks_count":    c.TotalChunks,
			"embedding_model": c.EmbeddingModel,
			"last_indexed_at": formatTime(c.LastIndexedAt),
		}
	}

	response := map[string]interface{}{
		"collections":          list,
		"embedding_provider":   s.app.EmbeddingProvider(),
		"indexing_in_progress": s.app.Indexer().Indexing(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return "", invalidPathError(err)
	}
	return path, nil
}

func invalidPathError(err error) error {
	code := ErrorCodeInvalidParams
	if errors.Is(err, ErrPathNotFound) || errors.Is(err, ErrNotDirectory) {
		code = ErrorCodePathNotFound
	}
	return newMCPError(code, "invalid path", map[string]interface{}{
		"param":  "path",
		"reason": err.Error(),
	})
}

// validatePath checks that path is an absolute, readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// chunkSource resolves the document to chunk: inline content under path, or
// the file at an absolute path, classified relative to root when given.
func chunkSource(args map[string]interface{}, path string) (string, []byte, error) {
	if content, ok := args["content"].(string); ok && content != "" {
		return strings.TrimPrefix(filepath.ToSlash(path), "/"), []byte(content), nil
	}

	if !filepath.IsAbs(path) {
		return "", nil, newMCPError(ErrorCodeInvalidParams, "path must be absolute when content is omitted", map[string]interface{}{
			"param":  "path",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, newMCPError(ErrorCodePathNotFound, "failed to read document", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	relPath := filepath.Base(path)
	if root := getStringDefault(args, "root", ""); root != "" {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", nil, newMCPError(ErrorCodeInvalidParams, "path is outside root", map[string]interface{}{
				"param": "root",
				"value": root,
			})
		}
		relPath = rel
	}
	return filepath.ToSlash(relPath), raw, nil
}

// parseFilters reads the filters argument, either one filter object or an
// array of alternatives, plus the top-level min_relevance
func parseFilters(args map[string]interface{}) (*storage.SearchFilters, error) {
	sf := &storage.SearchFilters{}

	switch raw := args["filters"].(type) {
	case nil:
	case map[string]interface{}:
		f, err := parseFilter(raw)
		if err != nil {
			return nil, err
		}
		if !f.IsEmpty() {
			sf.AnyOf = append(sf.AnyOf, f)
		}
		if v, ok := raw["min_relevance"].(float64); ok {
			sf.MinRelevance = v
		}
	case []interface{}:
		for i, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("filters[%d] must be an object", i)
			}
			f, err := parseFilter(m)
			if err != nil {
				return nil, fmt.Errorf("filters[%d]: %w", i, err)
			}
			sf.AnyOf = append(sf.AnyOf, f)
		}
	default:
		return nil, errors.New("filters must be an object or an array of objects")
	}

	if v, ok := args["min_relevance"].(float64); ok {
		sf.MinRelevance = v
	}
	if sf.MinRelevance < 0 || sf.MinRelevance > 1 {
		return nil, fmt.Errorf("min_relevance must be between 0 and 1, got %g", sf.MinRelevance)
	}

	if len(sf.AnyOf) == 0 && sf.MinRelevance == 0 {
		return nil, nil
	}
	return sf, nil
}

func parseFilter(m map[string]interface{}) (storage.Filter, error) {
	var f storage.Filter
	var err error

	if f.DocTypes, err = getStringSlice(m, "doc_types"); err != nil {
		return f, err
	}
	for _, dt := range f.DocTypes {
		if !types.DocumentType(dt).Valid() {
			return f, fmt.Errorf("unknown doc_type %q", dt)
		}
	}

	if f.SectionTypes, err = getStringSlice(m, "section_types"); err != nil {
		return f, err
	}
	for _, st := range f.SectionTypes {
		if !types.SectionType(st).Valid() {
			return f, fmt.Errorf("unknown section_type %q", st)
		}
	}

	if f.Statuses, err = getStringSlice(m, "statuses"); err != nil {
		return f, err
	}
	if f.Tags, err = getStringSlice(m, "tags"); err != nil {
		return f, err
	}
	if f.Projects, err = getStringSlice(m, "projects"); err != nil {
		return f, err
	}
	f.SourcePattern = getStringDefault(m, "source_pattern", "")

	return f, nil
}

func formatSearchResult(r types.SearchResult) map[string]interface{} {
	meta := r.Metadata
	result := map[string]interface{}{
		"rank":            r.Rank,
		"chunk_id":        r.ChunkID,
		"document_id":     r.DocumentID,
		"relevance_score": r.RelevanceScore,
		"distance":        r.Distance,
		"title":           meta.Title,
		"doc_type":        string(meta.Type),
		"source_path":     meta.SourcePath,
		"section_type":    string(meta.SectionType),
		"section_title":   meta.SectionTitle,
		"chunk_index":     meta.ChunkIndex,
		"total_chunks":    meta.TotalChunks,
		"tags":            meta.Tags,
		"projects":        meta.Projects,
		"content":         r.Content,
	}
	if meta.Status != "" {
		result["status"] = meta.Status
	}
	return result
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a list of strings; a single string counts as a one-element list
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	switch val := args[key].(type) {
	case nil:
		return nil, nil
	case string:
		if val == "" {
			return nil, nil
		}
		return []string{val}, nil
	case []string:
		return val, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must contain only strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
