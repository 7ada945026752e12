package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doccontext-mcp/pkg/types"
)

func testMetadata() types.Metadata {
	return types.Metadata{
		Title:      "Use SQLite for local storage",
		Type:       types.DocADR,
		Tags:       []string{"storage"},
		Projects:   []string{},
		Status:     "accepted",
		SourcePath: "adrs/0001-use-sqlite.adr.md",
	}
}

// longSection builds a section of roughly n sentences of ~16 tokens each
func longSection(n int) types.Section {
	var b strings.Builder
	b.WriteString("## Implementation\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Sentence number %04d describes the storage layer in detail. ", i)
	}
	return types.Section{Title: "Implementation", Content: strings.TrimSpace(b.String()), Type: types.SectionImplementation}
}

func bodyOf(chunk types.Chunk) string {
	return strings.TrimPrefix(chunk.Content, ContextHeader(chunk.Metadata.Title))
}

func TestNew(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultMaxTokens, c.MaxTokens())
	assert.Equal(t, DefaultOverlapTokens, c.OverlapTokens())
	assert.Equal(t, 1380, c.TokenCeiling())
}

func TestNew_Options(t *testing.T) {
	c := New(WithMaxTokens(500), WithOverlapTokens(50))
	assert.Equal(t, 500, c.MaxTokens())
	assert.Equal(t, 50, c.OverlapTokens())

	c = New(WithMaxTokens(-1), WithOverlapTokens(-5))
	assert.Equal(t, DefaultMaxTokens, c.MaxTokens())
	assert.Equal(t, DefaultOverlapTokens, c.OverlapTokens())

	c = New(WithMaxTokens(100), WithOverlapTokens(100))
	assert.Equal(t, 50, c.OverlapTokens())
}

func TestContextHeader(t *testing.T) {
	assert.Equal(t, "# Title\n\n", ContextHeader("Title"))
}

func TestChunkSection_Fits(t *testing.T) {
	c := New()
	meta := testMetadata()
	section := types.Section{Title: "Decision", Content: "## Decision\nUse SQLite.", Type: types.SectionDecision}

	chunks := c.ChunkSection(section, "adrs_0001", 3, meta)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, "adrs_0001_chunk_3", chunk.ID)
	assert.Equal(t, "adrs_0001", chunk.DocumentID)
	assert.Equal(t, "# Use SQLite for local storage\n\n## Decision\nUse SQLite.", chunk.Content)
	assert.Equal(t, 3, chunk.Metadata.ChunkIndex)
	assert.Equal(t, 0, chunk.Metadata.TotalChunks)
	assert.Equal(t, types.SectionDecision, chunk.Metadata.SectionType)
	assert.Equal(t, "Decision", chunk.Metadata.SectionTitle)
	assert.Equal(t, EstimateTokens(chunk.Content), chunk.Metadata.Tokens)
	assert.Equal(t, "accepted", chunk.Metadata.Status)
	assert.NotEqual(t, [32]byte{}, chunk.ContentHash)
}

func TestChunkSection_Empty(t *testing.T) {
	assert.Empty(t, New().ChunkSection(types.Section{Content: "  "}, "d", 0, testMetadata()))
}

func TestChunkSection_LargeSection(t *testing.T) {
	c := New()
	meta := testMetadata()
	section := longSection(200)
	require.Greater(t, EstimateTokens(section.Content), 2900)

	chunks := c.ChunkSection(section, "doc", 0, meta)
	require.GreaterOrEqual(t, len(chunks), 3)
	require.LessOrEqual(t, len(chunks), 4)

	headerTokens := EstimateTokens(ContextHeader(meta.Title))
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.LessOrEqual(t, chunk.Metadata.Tokens, c.TokenCeiling()+headerTokens, "chunk %d", i)
		assert.True(t, strings.HasPrefix(chunk.Content, ContextHeader(meta.Title)))
	}

	// Each chunk after the first starts with sentences from the end of the previous one
	for i := 1; i < len(chunks); i++ {
		prev := SplitSentences(bodyOf(chunks[i-1]))
		next := SplitSentences(bodyOf(chunks[i]))
		require.NotEmpty(t, next)
		assert.Contains(t, prev, next[0], "chunk %d does not overlap chunk %d", i, i-1)
	}
}

func TestChunkSection_OverlapWithinBudget(t *testing.T) {
	c := New(WithMaxTokens(100), WithOverlapTokens(40))
	chunks := c.ChunkSection(longSection(40), "doc", 0, testMetadata())
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := SplitSentences(bodyOf(chunks[i-1]))
		next := SplitSentences(bodyOf(chunks[i]))

		shared := 0
		for shared < len(next) && shared < len(prev) {
			if !containsString(prev, next[shared]) {
				break
			}
			shared++
		}
		require.Positive(t, shared)
		assert.LessOrEqual(t, EstimateTokens(strings.Join(next[:shared], " ")), c.OverlapTokens())
	}
}

func TestChunkSection_NoOverlap(t *testing.T) {
	c := New(WithMaxTokens(100), WithOverlapTokens(0))
	chunks := c.ChunkSection(longSection(40), "doc", 0, testMetadata())
	require.Greater(t, len(chunks), 1)

	seen := map[string]bool{}
	for _, chunk := range chunks {
		for _, s := range SplitSentences(bodyOf(chunk)) {
			assert.False(t, seen[s], "sentence repeated without overlap: %q", s)
			seen[s] = true
		}
	}
}

func TestChunkSection_OversizedUnit(t *testing.T) {
	c := New(WithMaxTokens(100), WithOverlapTokens(20))
	meta := testMetadata()

	words := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	unbroken := strings.Repeat("x", 2000)
	section := types.Section{Title: "Content", Content: words + "\n" + unbroken, Type: types.SectionContent}

	chunks := c.ChunkSection(section, "doc", 0, meta)
	require.NotEmpty(t, chunks)

	headerTokens := EstimateTokens(ContextHeader(meta.Title))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.Metadata.Tokens, c.TokenCeiling()+headerTokens)
	}
}

func TestChunkSection_IndexThreading(t *testing.T) {
	c := New(WithMaxTokens(100), WithOverlapTokens(20))
	chunks := c.ChunkSection(longSection(30), "doc", 7, testMetadata())
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, 7+i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, types.ChunkID("doc", 7+i), chunk.ID)
	}
}

func TestChunkDocument_ADR(t *testing.T) {
	body := `## Context
We need durable local storage.

## Decision
We will use SQLite.

## Consequences
Single file deployment.`

	meta := testMetadata()
	chunks := New().ChunkDocument("adrs_0001-use-sqlite.adr", body, meta)
	require.Len(t, chunks, 3)

	wantTypes := []types.SectionType{types.SectionContext, types.SectionDecision, types.SectionConsequences}
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, 3, chunk.Metadata.TotalChunks)
		assert.Equal(t, wantTypes[i], chunk.Metadata.SectionType)
		assert.Equal(t, meta.Title, chunk.Metadata.Title)
		assert.Equal(t, meta.Tags, chunk.Metadata.Tags)
		assert.Equal(t, "accepted", chunk.Metadata.Status)
		assert.Contains(t, chunk.Content, meta.Title)
		assert.NoError(t, chunk.Validate())
	}
}

func TestChunkDocument_IndicesContiguous(t *testing.T) {
	var b strings.Builder
	b.WriteString("Preamble text.\n\n")
	for s := 0; s < 4; s++ {
		fmt.Fprintf(&b, "## Part %d\n", s)
		for i := 0; i < 30; i++ {
			fmt.Fprintf(&b, "Part %d sentence %d has a handful of words in it. ", s, i)
		}
		b.WriteString("\n\n")
	}

	meta := testMetadata()
	chunks := New(WithMaxTokens(120), WithOverlapTokens(30)).ChunkDocument("doc", b.String(), meta)
	require.Greater(t, len(chunks), 5)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, len(chunks), chunk.Metadata.TotalChunks)
		assert.Contains(t, chunk.Content, meta.Title)
	}

	doc := types.Document{ID: "doc", Metadata: meta, Chunks: chunks}
	assert.NoError(t, doc.Validate())
}

func TestChunkDocument_Deterministic(t *testing.T) {
	section := longSection(120)
	body := section.Content
	meta := testMetadata()

	first := New().ChunkDocument("doc", body, meta)
	second := New().ChunkDocument("doc", body, meta)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].ContentHash, second[i].ContentHash)
	}
}

func TestChunkDocument_EmptyBody(t *testing.T) {
	assert.Empty(t, New().ChunkDocument("doc", "   ", testMetadata()))
}

func TestWithTotal_DoesNotMutateInput(t *testing.T) {
	in := []types.Chunk{{ID: "a"}, {ID: "b"}}
	out := withTotal(in)

	assert.Equal(t, 0, in[0].Metadata.TotalChunks)
	assert.Equal(t, 2, out[0].Metadata.TotalChunks)
	assert.Equal(t, 2, out[1].Metadata.TotalChunks)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
