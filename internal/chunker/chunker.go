package chunker

import (
	"strings"

	"github.com/dshills/doccontext-mcp/internal/classify"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

const (
	// DefaultMaxTokens is the default per-chunk token budget
	DefaultMaxTokens = 1200

	// DefaultOverlapTokens is the default tail-overlap budget
	DefaultOverlapTokens = 200

	// TokenMarginPercent is how far a chunk may exceed MaxTokens (overlap seeding)
	TokenMarginPercent = 15
)

// Chunker splits document sections into token-bounded, overlap-linked chunks
type Chunker struct {
	maxTokens     int
	overlapTokens int
	sectionRules  []classify.SectionRule
}

// Option configures a Chunker
type Option func(*Chunker)

// WithMaxTokens sets the per-chunk token budget. Non-positive values are ignored.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the tail-overlap budget. Zero disables overlap.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// WithSectionRules replaces the section classification table
func WithSectionRules(rules []classify.SectionRule) Option {
	return func(c *Chunker) {
		c.sectionRules = rules
	}
}

// New creates a new Chunker instance
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
		sectionRules:  classify.DefaultSectionRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlapTokens >= c.maxTokens {
		c.overlapTokens = c.maxTokens / 2
	}
	return c
}

// MaxTokens returns the per-chunk token budget
func (c *Chunker) MaxTokens() int { return c.maxTokens }

// OverlapTokens returns the tail-overlap budget
func (c *Chunker) OverlapTokens() int { return c.overlapTokens }

// TokenCeiling is the largest body estimate a chunk may carry, MaxTokens plus the margin
func (c *Chunker) TokenCeiling() int {
	return c.maxTokens + (c.maxTokens*TokenMarginPercent+99)/100
}

// ContextHeader is the one-line document-title header prefixed to every chunk
func ContextHeader(title string) string {
	return "# " + title + "\n\n"
}

// Sections splits a document body into classified sections
func (c *Chunker) Sections(body string) []types.Section {
	return ExtractSections(body, c.sectionRules)
}

// ChunkDocument chunks every section of body and returns the chunks with
// sequential indices and TotalChunks set on each.
func (c *Chunker) ChunkDocument(docID, body string, meta types.Metadata) []types.Chunk {
	var chunks []types.Chunk
	for _, section := range c.Sections(body) {
		chunks = append(chunks, c.ChunkSection(section, docID, len(chunks), meta)...)
	}
	return withTotal(chunks)
}

// ChunkSection emits one or more chunks for a section. Indices start at
// startIndex and increase by one per chunk; callers thread the counter across
// sections of the same document. TotalChunks is left unset.
func (c *Chunker) ChunkSection(section types.Section, docID string, startIndex int, meta types.Metadata) []types.Chunk {
	if strings.TrimSpace(section.Content) == "" {
		return nil
	}

	if EstimateTokens(section.Content) <= c.maxTokens {
		return []types.Chunk{c.newChunk(section, docID, startIndex, meta, section.Content)}
	}

	var (
		chunks []types.Chunk
		buf    []string
		text   string
	)
	index := startIndex

	for _, unit := range c.units(section.Content) {
		candidate := unit
		if len(buf) > 0 {
			candidate = text + " " + unit
		}

		if EstimateTokens(candidate) > c.maxTokens && len(buf) > 0 {
			chunks = append(chunks, c.newChunk(section, docID, index, meta, text))
			index++

			buf = append(c.tailOverlap(buf), unit)
			text = strings.Join(buf, " ")
			continue
		}

		buf = append(buf, unit)
		text = candidate
	}

	if len(buf) > 0 {
		chunks = append(chunks, c.newChunk(section, docID, index, meta, text))
	}

	return chunks
}

// tailOverlap returns a fresh slice holding the longest whole-sentence suffix
// of buf within the overlap budget, or the last sentence when none fits.
func (c *Chunker) tailOverlap(buf []string) []string {
	if c.overlapTokens == 0 {
		return nil
	}

	start := len(buf) - 1
	for i := len(buf) - 1; i >= 0; i-- {
		if EstimateTokens(strings.Join(buf[i:], " ")) > c.overlapTokens {
			break
		}
		start = i
	}

	return append([]string(nil), buf[start:]...)
}

// units splits content into sentences and breaks any sentence that could not
// be packed next to an overlap seed without blowing the budget.
func (c *Chunker) units(content string) []string {
	limit := c.unitLimit()

	var out []string
	for _, s := range SplitSentences(content) {
		if EstimateTokens(s) <= limit {
			out = append(out, s)
			continue
		}
		out = append(out, splitWords(s, limit)...)
	}
	return out
}

func (c *Chunker) unitLimit() int {
	limit := c.maxTokens - c.overlapTokens
	if c.overlapTokens > 0 && c.overlapTokens < limit {
		limit = c.overlapTokens
	}
	return limit
}

// splitWords breaks s into pieces of at most limit tokens at word boundaries,
// falling back to rune boundaries for words longer than the limit.
func splitWords(s string, limit int) []string {
	var (
		out []string
		cur string
	)
	for _, word := range strings.Fields(s) {
		if EstimateTokens(word) > limit {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			out = append(out, splitRunes(word, limit)...)
			continue
		}

		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if EstimateTokens(candidate) > limit {
			out = append(out, cur)
			cur = word
			continue
		}
		cur = candidate
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func splitRunes(word string, limit int) []string {
	runes := []rune(word)
	size := limit * TokensPerChar

	out := make([]string, 0, len(runes)/size+1)
	for len(runes) > 0 {
		n := min(size, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

func (c *Chunker) newChunk(section types.Section, docID string, index int, meta types.Metadata, body string) types.Chunk {
	content := ContextHeader(meta.Title) + body

	chunk := types.Chunk{
		ID:         types.ChunkID(docID, index),
		Content:    content,
		DocumentID: docID,
		Metadata: types.ChunkMetadata{
			Metadata:     meta,
			ChunkIndex:   index,
			SectionType:  section.Type,
			SectionTitle: section.Title,
			Tokens:       EstimateTokens(content),
		},
	}
	chunk.ComputeContentHash()

	return chunk
}

// withTotal returns a copy of chunks with TotalChunks set on every element
func withTotal(chunks []types.Chunk) []types.Chunk {
	out := make([]types.Chunk, len(chunks))
	for i, chunk := range chunks {
		chunk.Metadata.TotalChunks = len(chunks)
		out[i] = chunk
	}
	return out
}
