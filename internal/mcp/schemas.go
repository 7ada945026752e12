package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	docTypeEnum     = []string{"adr", "rfc", "guide", "rule", "project"}
	sectionTypeEnum = []string{"context", "decision", "consequences", "alternatives", "implementation", "summary", "metrics", "risks", "content"}
)

// indexDocumentsTool returns the tool definition for index_documents
func indexDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_documents",
		Description: "Index a directory of Markdown documents (ADRs, RFCs, guides, rules, project notes) to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the knowledge base root directory",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index all documents ignoring content hashes (full rebuild)",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// filterSchema describes one filter group; fields within a group must all match
func filterSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"doc_types": map[string]interface{}{
				"type":        "array",
				"description": "Document types to include",
				"items": map[string]interface{}{
					"type": "string",
					"enum": docTypeEnum,
				},
			},
			"section_types": map[string]interface{}{
				"type":        "array",
				"description": "Section types to include",
				"items": map[string]interface{}{
					"type": "string",
					"enum": sectionTypeEnum,
				},
			},
			"statuses": map[string]interface{}{
				"type":        "array",
				"description": "Document statuses to include (e.g. accepted, proposed)",
				"items":       map[string]interface{}{"type": "string"},
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"description": "Match documents carrying any of these tags (case-insensitive)",
				"items":       map[string]interface{}{"type": "string"},
			},
			"projects": map[string]interface{}{
				"type":        "array",
				"description": "Match documents belonging to any of these projects",
				"items":       map[string]interface{}{"type": "string"},
			},
			"source_pattern": map[string]interface{}{
				"type":        "string",
				"description": "Glob over the document path relative to the root (e.g. 'adrs/*')",
			},
			"min_relevance": map[string]interface{}{
				"type":        "number",
				"description": "Minimum relevance score threshold (0.0-1.0)",
				"minimum":     0.0,
				"maximum":     1.0,
			},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search an indexed knowledge base with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed knowledge base root",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"filters": map[string]interface{}{
					"description": "One filter object, or an array of filter objects where a chunk matching any of them is kept",
					"oneOf": []interface{}{
						filterSchema(),
						map[string]interface{}{
							"type":  "array",
							"items": filterSchema(),
						},
					},
				},
				"min_relevance": map[string]interface{}{
					"type":        "number",
					"description": "Minimum relevance score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// chunkDocumentTool returns the tool definition for chunk_document
func chunkDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_document",
		Description: "Split one Markdown document into titled, token-bounded chunks without indexing it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Document path. With content: the path relative to the knowledge base root, used for classification and the document id. Without content: absolute path of the file to read",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Raw Markdown including any front matter",
				},
				"root": map[string]interface{}{
					"type":        "string",
					"description": "Knowledge base root used to relativize an absolute path",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a knowledge base, or list all indexed knowledge bases",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a knowledge base root; omit to list every indexed root",
				},
			},
		},
	}
}
