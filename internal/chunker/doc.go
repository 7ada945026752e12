// Package chunker divides Markdown documents into token-bounded chunks for embedding and search.
//
// Documents are split at heading boundaries into sections, and each section is
// emitted as one chunk when it fits the token budget. Larger sections are packed
// greedily sentence by sentence, and each new chunk is seeded with the tail of
// the previous one so context carries across the boundary.
//
// # Basic Usage
//
//	c := chunker.New(chunker.WithMaxTokens(1200), chunker.WithOverlapTokens(200))
//	chunks := c.ChunkDocument("adrs_0001-use-sqlite", body, meta)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s: %s (%d tokens, %d/%d)\n", chunk.ID,
//	        chunk.Metadata.SectionType, chunk.Metadata.Tokens,
//	        chunk.Metadata.ChunkIndex+1, chunk.Metadata.TotalChunks)
//	}
//
// # Chunk Content
//
// Every chunk starts with a context header carrying the document title:
//
//	# Use SQLite for local storage
//
//	## Decision
//	We will ...
//
// The section's own heading line stays in the chunk body, so a document whose
// only heading matches its title shows that text twice.
//
// # Chunk Sizing
//
// Token estimation uses a simple heuristic (chars/4). A chunk body stays within
// MaxTokens except for overlap seeding, which may push it up to
// TokenMarginPercent above the budget. Sentences too long to pack are broken
// at word boundaries.
//
// # Indices
//
// ChunkSection takes the running chunk index and returns chunks without
// TotalChunks. ChunkDocument threads the index across sections, then makes a
// second pass that returns a new slice with TotalChunks filled in.
package chunker
