package types

import "strings"

// DocumentType is the classified kind of a knowledge-base document
type DocumentType string

const (
	DocADR     DocumentType = "adr"
	DocRFC     DocumentType = "rfc"
	DocGuide   DocumentType = "guide"
	DocRule    DocumentType = "rule"
	DocProject DocumentType = "project"
)

// DocumentTypes lists every document type in declaration order
var DocumentTypes = []DocumentType{DocADR, DocRFC, DocGuide, DocRule, DocProject}

// Valid reports whether t belongs to the closed document type vocabulary
func (t DocumentType) Valid() bool {
	for _, dt := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// RelatedRefs holds named reference lists, one per document category
type RelatedRefs struct {
	ADRs     []string `json:"adrs,omitempty"`
	RFCs     []string `json:"rfcs,omitempty"`
	Guides   []string `json:"guides,omitempty"`
	Rules    []string `json:"rules,omitempty"`
	Projects []string `json:"projects,omitempty"`
}

// IsEmpty returns true if no category carries a list
func (r *RelatedRefs) IsEmpty() bool {
	return r == nil || (r.ADRs == nil && r.RFCs == nil && r.Guides == nil && r.Rules == nil && r.Projects == nil)
}

// Related is the cross-reference graph attached to a document's metadata
type Related struct {
	RelatedRefs
	DependsOn  *RelatedRefs `json:"depends-on,omitempty"`
	Supersedes *RelatedRefs `json:"supersedes,omitempty"`
}

// IsEmpty returns true if neither the top level nor any sub-graph survived validation
func (r *Related) IsEmpty() bool {
	return r == nil || (r.RelatedRefs.IsEmpty() && r.DependsOn.IsEmpty() && r.Supersedes.IsEmpty())
}

// Metadata is the validated, document-level metadata shared by every chunk
type Metadata struct {
	Title      string       `json:"title"`
	Type       DocumentType `json:"type"`
	Tags       []string     `json:"tags"`
	Projects   []string     `json:"projects"`
	Status     string       `json:"status,omitempty"`
	SourcePath string       `json:"sourcePath"`
	Related    *Related     `json:"related,omitempty"`
}

// HasTag reports whether the metadata carries the given tag (case-insensitive)
func (m *Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Document is one processed Markdown file with its chunks
type Document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Chunks   []Chunk  `json:"chunks"`

	// ContentHash is the SHA-256 of the raw file, used for incremental indexing
	ContentHash [32]byte `json:"-"`
}

// Validate checks the document identity and chunk numbering
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrInvalidDocumentID
	}
	if !d.Metadata.Type.Valid() {
		return ErrInvalidDocumentType
	}
	if d.Metadata.Title == "" {
		return ErrMissingTitle
	}
	for i := range d.Chunks {
		c := &d.Chunks[i]
		if c.Metadata.ChunkIndex != i || c.Metadata.TotalChunks != len(d.Chunks) {
			return ErrInvalidChunkIndex
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
