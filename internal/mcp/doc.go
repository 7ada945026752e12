// Package mcp implements the Model Context Protocol (MCP) server for doccontext.
//
// The MCP server exposes four tools to AI assistants:
//   - index_documents: Index a Markdown knowledge base
//   - search_documents: Search indexed chunks with natural language or keywords
//   - chunk_document: Preview how one document is split, without storing it
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. The server reads
// requests from stdin and writes responses to stdout, so all logging goes to
// stderr.
//
//	doccontext serve
//
// # Tool: index_documents
//
//	Request:
//	{
//	  "name": "index_documents",
//	  "arguments": {"path": "/path/to/kb", "force_reindex": false}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "documents_indexed": 42,
//	  "documents_skipped": 3,
//	  "documents_deleted": 1,
//	  "chunks_created": 187,
//	  "duration_ms": 2140
//	}
//
// Unchanged documents (same content hash) are skipped unless force_reindex is
// set or the embedding model changed since the last run.
//
// # Tool: search_documents
//
//	Request:
//	{
//	  "name": "search_documents",
//	  "arguments": {
//	    "path": "/path/to/kb",
//	    "query": "how do we version the API",
//	    "limit": 5,
//	    "search_mode": "hybrid",
//	    "filters": [
//	      {"doc_types": ["adr"], "statuses": ["accepted"]},
//	      {"doc_types": ["rule"], "projects": ["billing"]}
//	    ]
//	  }
//	}
//
// Fields inside one filter object must all match; a chunk is kept when it
// matches any object of the array. Tags and statuses compare
// case-insensitively, source_pattern is a glob over the path relative to the
// root.
//
// Each result carries rank, relevance_score (0-1), distance (1 - cosine
// similarity, 1 for keyword-only hits), the chunk content with its title
// header, and the document and section metadata.
//
// # Tool: chunk_document
//
// Either pass content with a root-relative path, or an absolute path to read
// (optionally with root so directory-based classification applies):
//
//	{"name": "chunk_document", "arguments": {"path": "adrs/0007-queue.adr.md", "content": "..."}}
//
// # Tool: get_status
//
//	{"name": "get_status", "arguments": {"path": "/path/to/kb"}}
//
// Omitting path lists every indexed root.
//
// # Error Codes
//
//	-32602: Invalid params (missing path, relative path, bad filters)
//	-32603: Internal error
//	-32001: Path not found or not a directory
//	-32002: Indexing already in progress
//	-32003: Directory not indexed
//	-32004: Empty query
//	-32005: Document has no content after front matter
package mcp
