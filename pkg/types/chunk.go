package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ChunkMetadata is the document metadata plus chunk-specific fields
type ChunkMetadata struct {
	Metadata
	ChunkIndex   int         `json:"chunkIndex"`
	TotalChunks  int         `json:"totalChunks"`
	SectionType  SectionType `json:"sectionType"`
	SectionTitle string      `json:"sectionTitle"`
	Tokens       int         `json:"tokens"`
}

// Chunk is a token-bounded passage of a document, the unit handed to an embedding model
type Chunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"` // Prefixed with the document-title header
	Metadata ChunkMetadata `json:"metadata"`

	DocumentID  string   `json:"documentId"`
	ContentHash [32]byte `json:"-"` // SHA-256 hash for deduplication
}

// ChunkID formats the identifier of the index-th chunk of a document
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// ComputeContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// ValidateContent checks if the chunk content is valid
func (c *Chunk) ValidateContent() error {
	if strings.TrimSpace(c.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if err := c.ValidateContent(); err != nil {
		return err
	}

	if c.ID == "" || c.ID != ChunkID(c.DocumentID, c.Metadata.ChunkIndex) {
		return ErrInvalidChunkID
	}

	if c.Metadata.ChunkIndex < 0 || c.Metadata.ChunkIndex >= c.Metadata.TotalChunks {
		return ErrInvalidChunkIndex
	}

	if !c.Metadata.SectionType.Valid() {
		return ErrInvalidSectionType
	}

	return nil
}
