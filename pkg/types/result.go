package types

// SearchResult represents a single ranked chunk returned by a query
type SearchResult struct {
	// Identification
	ChunkID    string
	DocumentID string
	Rank       int // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 // Combined score from vector + BM25 + RRF
	Distance       float64 // 1 - cosine similarity, 1 when no vector score exists

	// Payload
	Content  string
	Metadata ChunkMetadata
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == "" {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
