package types

import "errors"

// Domain errors for type validation
var (
	// Chunk errors
	ErrInvalidChunkID     = errors.New("invalid chunk ID")
	ErrInvalidChunkIndex  = errors.New("chunk index out of range")
	ErrInvalidSectionType = errors.New("invalid section type")
	ErrEmptyContent       = errors.New("content cannot be empty")

	// Document errors
	ErrInvalidDocumentID   = errors.New("invalid document ID")
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrMissingTitle        = errors.New("document title is required")

	// Search result errors
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
)
