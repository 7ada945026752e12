// Package types provides shared type definitions for the doccontext MCP server.
//
// This package defines the domain types that flow through the pipeline: parsed
// front matter, documents, sections, chunks and search results.
//
// # Core Types
//
// Document is one Markdown file from the knowledge base together with its
// validated metadata and its ordered chunks:
//
//	doc := types.Document{
//	    ID: "adrs_0001-use-sqlite",
//	    Metadata: types.Metadata{
//	        Title:  "Use SQLite",
//	        Type:   types.DocADR,
//	        Status: "accepted",
//	    },
//	}
//
// Chunk is a token-bounded passage ready for embedding. Its metadata embeds the
// document metadata and adds the chunk position, section classification and
// estimated token count:
//
//	chunk.ID                    // "adrs_0001-use-sqlite_chunk_0"
//	chunk.Metadata.ChunkIndex   // 0
//	chunk.Metadata.TotalChunks  // 3
//	chunk.Metadata.SectionType  // types.SectionContext
//
// # Vocabularies
//
// DocumentType and SectionType are closed sets. Use Valid to check values that
// come from outside the process (tool arguments, stored rows).
//
// # Validation
//
//	if err := doc.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
