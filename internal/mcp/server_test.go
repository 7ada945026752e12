package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontext-mcp/internal/app"
	"github.com/dshills/doccontext-mcp/internal/config"
	"github.com/dshills/doccontext-mcp/internal/storage"
)

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

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func knowledgeBase(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "adrs/0001-use-sqlite.adr.md", adrDoc)
	writeFile(t, root, "guides/testing.md", "# Testing\n\nRun the unit tests before every commit.\n")
	writeFile(t, root, "rules/naming.md", "# Naming\n\nUse short package names.\n")
	return root
}

func newTestServer(t *testing.T, provider string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Embedding.Provider = provider

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return NewServer(a, nil)
}

func callTool(t *testing.T, handler server.ToolHandlerFunc, args map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	if err != nil {
		return nil, err
	}
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out, nil
}

func assertMCPError(t *testing.T, err error, code int) {
	t.Helper()
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code, mcpErr.Message)
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := newTestServer(t, "none")
	require.NotNil(t, s.mcp)

	for _, name := range []string{"index_documents", "search_documents", "chunk_document", "get_status"} {
		assert.NotNil(t, s.mcp.GetTool(name), name)
	}
}

func TestToolDefinitions(t *testing.T) {
	tools := []mcp.Tool{indexDocumentsTool(), searchDocumentsTool(), chunkDocumentTool(), getStatusTool()}
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		for _, req := range tool.InputSchema.Required {
			assert.Contains(t, tool.InputSchema.Properties, req, tool.Name)
		}
	}
	assert.Empty(t, getStatusTool().InputSchema.Required)
}

func TestIndexAndSearch(t *testing.T) {
	s := newTestServer(t, "local")
	root := knowledgeBase(t)

	out, err := callTool(t, s.handleIndexDocuments, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, true, out["indexed"])
	assert.Equal(t, float64(3), out["documents_indexed"])
	assert.Equal(t, float64(5), out["chunks_created"])
	assert.Equal(t, float64(5), out["embeddings_created"])
	assert.NotContains(t, out, "errors")

	out, err = callTool(t, s.handleSearchDocuments, map[string]interface{}{
		"path":        root,
		"query":       "commit",
		"search_mode": "keyword",
	})
	require.NoError(t, err)
	assert.Equal(t, "keyword", out["search_mode"])
	assert.Equal(t, float64(1), out["total_results"])

	results := out["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "guides_testing_chunk_0", first["chunk_id"])
	assert.Equal(t, "guide", first["doc_type"])
	assert.Equal(t, "guides/testing.md", first["source_path"])
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, float64(1), first["distance"])
	assert.Contains(t, first["content"], "# Testing")

	// Second identical query is served from cache
	out, err = callTool(t, s.handleSearchDocuments, map[string]interface{}{
		"path":        root,
		"query":       "commit",
		"search_mode": "keyword",
	})
	require.NoError(t, err)
	assert.Equal(t, true, out["cache_hit"])
}

func TestSearchDocuments_Filters(t *testing.T) {
	s := newTestServer(t, "none")
	root := knowledgeBase(t)
	_, err := callTool(t, s.handleIndexDocuments, map[string]interface{}{"path": root})
	require.NoError(t, err)

	out, err := callTool(t, s.handleSearchDocuments, map[string]interface{}{
		"path":  root,
		"query": "SQLite store server",
		"filters": map[string]interface{}{
			"doc_types":     []interface{}{"adr"},
			"section_types": []interface{}{"decision", "consequences"},
			"statuses":      []interface{}{"ACCEPTED"},
		},
	})
	require.NoError(t, err)

	results := out["results"].([]interface{})
	require.NotEmpty(t, results)
	for _, r := range results {
		m := r.(map[string]interface{})
		assert.Equal(t, "adr", m["doc_type"])
		assert.Contains(t, []interface{}{"decision", "consequences"}, m["section_type"])
		assert.Equal(t, "accepted", m["status"])
	}
}

func TestSearchDocuments_Errors(t *testing.T) {
	s := newTestServer(t, "none")
	root := knowledgeBase(t)
	notIndexed := t.TempDir()

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{"missing path", map[string]interface{}{"query": "q"}, ErrorCodeInvalidParams},
		{"relative path", map[string]interface{}{"path": "docs", "query": "q"}, ErrorCodeInvalidParams},
		{"missing directory", map[string]interface{}{"path": filepath.Join(root, "nope"), "query": "q"}, ErrorCodePathNotFound},
		{"empty query", map[string]interface{}{"path": root, "query": "  "}, ErrorCodeEmptyQuery},
		{"limit too large", map[string]interface{}{"path": root, "query": "q", "limit": float64(101)}, ErrorCodeInvalidParams},
		{"bad mode", map[string]interface{}{"path": root, "query": "q", "search_mode": "fuzzy"}, ErrorCodeInvalidParams},
		{"bad doc type", map[string]interface{}{"path": root, "query": "q", "filters": map[string]interface{}{"doc_types": []interface{}{"memo"}}}, ErrorCodeInvalidParams},
		{"bad relevance", map[string]interface{}{"path": root, "query": "q", "min_relevance": 1.5}, ErrorCodeInvalidParams},
		{"not indexed", map[string]interface{}{"path": notIndexed, "query": "q"}, ErrorCodeNotIndexed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callTool(t, s.handleSearchDocuments, tt.args)
			assertMCPError(t, err, tt.code)
		})
	}
}

func TestIndexDocuments_Errors(t *testing.T) {
	s := newTestServer(t, "none")

	_, err := callTool(t, s.handleIndexDocuments, map[string]interface{}{})
	assertMCPError(t, err, ErrorCodeInvalidParams)

	file := writeFile(t, t.TempDir(), "note.md", "# Note\n")
	_, err = callTool(t, s.handleIndexDocuments, map[string]interface{}{"path": file})
	assertMCPError(t, err, ErrorCodePathNotFound)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = "not an object"
	_, err = s.handleIndexDocuments(context.Background(), req)
	assertMCPError(t, err, ErrorCodeInvalidParams)
}

func TestChunkDocument_InlineContent(t *testing.T) {
	s := newTestServer(t, "none")

	out, err := callTool(t, s.handleChunkDocument, map[string]interface{}{
		"path":    "adrs/0001-use-sqlite.adr.md",
		"content": adrDoc,
	})
	require.NoError(t, err)

	assert.Equal(t, "adrs_0001-use-sqlite.adr", out["document_id"])
	assert.Equal(t, float64(3), out["total_chunks"])
	assert.Equal(t, float64(1200), out["max_tokens"])

	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, "Use SQLite", meta["title"])
	assert.Equal(t, "adr", meta["type"])
	assert.Equal(t, "accepted", meta["status"])

	chunks := out["chunks"].([]interface{})
	wantSections := []string{"context", "decision", "consequences"}
	for i, c := range chunks {
		m := c.(map[string]interface{})
		assert.Equal(t, float64(i), m["chunk_index"])
		assert.Equal(t, wantSections[i], m["section_type"])
		assert.Contains(t, m["content"], "# Use SQLite\n\n")
	}
}

func TestChunkDocument_FromFile(t *testing.T) {
	s := newTestServer(t, "none")
	root := t.TempDir()
	path := writeFile(t, root, "projects/foo/rules/x.md", "# Rule X\n\nAlways tag releases.\n")

	out, err := callTool(t, s.handleChunkDocument, map[string]interface{}{"path": path, "root": root})
	require.NoError(t, err)
	assert.Equal(t, "projects_foo_rules_x", out["document_id"])

	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, "projects/foo/rules/x.md", meta["sourcePath"])

	out, err = callTool(t, s.handleChunkDocument, map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "x", out["document_id"])
}

func TestChunkDocument_Errors(t *testing.T) {
	s := newTestServer(t, "none")
	root := t.TempDir()
	path := writeFile(t, root, "a.md", "# A\n\nBody.\n")

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{"missing path", map[string]interface{}{"content": "# x"}, ErrorCodeInvalidParams},
		{"relative path without content", map[string]interface{}{"path": "a.md"}, ErrorCodeInvalidParams},
		{"missing file", map[string]interface{}{"path": filepath.Join(root, "missing.md")}, ErrorCodePathNotFound},
		{"outside root", map[string]interface{}{"path": path, "root": filepath.Join(root, "sub")}, ErrorCodeInvalidParams},
		{"empty body", map[string]interface{}{"path": "e.md", "content": "---\ntitle: E\n---\n"}, ErrorCodeEmptyDocument},
		{"bad front matter", map[string]interface{}{"path": "b.md", "content": "---\ntitle: [unclosed\n---\nbody\n"}, ErrorCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callTool(t, s.handleChunkDocument, tt.args)
			assertMCPError(t, err, tt.code)
		})
	}
}

func TestGetStatus(t *testing.T) {
	s := newTestServer(t, "local")
	root := knowledgeBase(t)

	out, err := callTool(t, s.handleGetStatus, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, false, out["indexed"])

	_, err = callTool(t, s.handleIndexDocuments, map[string]interface{}{"path": root})
	require.NoError(t, err)

	out, err = callTool(t, s.handleGetStatus, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, true, out["indexed"])
	assert.Equal(t, false, out["indexing_in_progress"])

	stats := out["statistics"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["documents_count"])
	assert.Equal(t, float64(5), stats["chunks_count"])
	assert.Equal(t, float64(5), stats["embeddings_count"])
	byType := stats["documents_by_type"].(map[string]interface{})
	assert.Equal(t, float64(1), byType["adr"])

	coll := out["collection"].(map[string]interface{})
	assert.Equal(t, "local", coll["embedding_provider"])
	assert.NotEmpty(t, coll["last_indexed_at"])

	health := out["health"].(map[string]interface{})
	assert.Equal(t, true, health["fts_indexes_built"])
	assert.Equal(t, true, health["embeddings_available"])

	out, err = callTool(t, s.handleGetStatus, map[string]interface{}{})
	require.NoError(t, err)
	colls := out["collections"].([]interface{})
	require.Len(t, colls, 1)
	assert.Equal(t, float64(3), colls[0].(map[string]interface{})["documents_count"])
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		want    *storage.SearchFilters
		wantErr bool
	}{
		{name: "none", args: map[string]interface{}{}, want: nil},
		{
			name: "single object",
			args: map[string]interface{}{"filters": map[string]interface{}{
				"doc_types":      []interface{}{"adr"},
				"tags":           "storage",
				"source_pattern": "adrs/*",
				"min_relevance":  0.2,
			}},
			want: &storage.SearchFilters{
				AnyOf:        []storage.Filter{{DocTypes: []string{"adr"}, Tags: []string{"storage"}, SourcePattern: "adrs/*"}},
				MinRelevance: 0.2,
			},
		},
		{
			name: "alternatives",
			args: map[string]interface{}{"filters": []interface{}{
				map[string]interface{}{"doc_types": []interface{}{"rule"}, "projects": []interface{}{"foo"}},
				map[string]interface{}{"statuses": []interface{}{"accepted"}},
			}},
			want: &storage.SearchFilters{AnyOf: []storage.Filter{
				{DocTypes: []string{"rule"}, Projects: []string{"foo"}},
				{Statuses: []string{"accepted"}},
			}},
		},
		{
			name: "only min relevance",
			args: map[string]interface{}{"min_relevance": 0.5},
			want: &storage.SearchFilters{MinRelevance: 0.5},
		},
		{name: "empty object", args: map[string]interface{}{"filters": map[string]interface{}{}}, want: nil},
		{name: "bad section", args: map[string]interface{}{"filters": map[string]interface{}{"section_types": []interface{}{"intro"}}}, wantErr: true},
		{name: "non string tag", args: map[string]interface{}{"filters": map[string]interface{}{"tags": []interface{}{1.0}}}, wantErr: true},
		{name: "array of non objects", args: map[string]interface{}{"filters": []interface{}{"adr"}}, wantErr: true},
		{name: "wrong type", args: map[string]interface{}{"filters": "adr"}, wantErr: true},
		{name: "negative relevance", args: map[string]interface{}{"min_relevance": -0.1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.md", "# A")

	assert.ErrorIs(t, validatePath(""), ErrPathRequired)
	assert.ErrorIs(t, validatePath("relative/dir"), ErrPathNotAbsolute)
	assert.ErrorIs(t, validatePath(filepath.Join(dir, "missing")), ErrPathNotFound)
	assert.ErrorIs(t, validatePath(file), ErrNotDirectory)
	assert.NoError(t, validatePath(dir))
}

func TestMCPError(t *testing.T) {
	err := newMCPError(ErrorCodeNotIndexed, "not indexed", nil)
	assert.EqualError(t, err, "MCP error -32003: not indexed")
}
