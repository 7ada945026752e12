package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NoFrontMatter(t *testing.T) {
	p := New()
	result, err := p.Parse([]byte("# Title\n\nBody text."))
	require.NoError(t, err)

	assert.False(t, result.HasFrontMatter())
	assert.Equal(t, "# Title\n\nBody text.", result.Content)
}

func TestParse_WithFrontMatter(t *testing.T) {
	content := `---
title: Use SQLite
status: accepted
tags: [storage, database]
related:
  rfcs: [rfc-001]
  depends-on:
    adrs: [adr-0002]
---
# Use SQLite

We store everything in SQLite.
`
	p := New()
	result, err := p.Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Use SQLite", result.String("title"))
	assert.Equal(t, "accepted", result.String("status"))
	assert.Equal(t, []any{"storage", "database"}, result.Data["tags"])

	related, ok := result.Data["related"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"rfc-001"}, related["rfcs"])

	assert.Equal(t, "# Use SQLite\n\nWe store everything in SQLite.\n", result.Content)
}

func TestParse_CRLFAndBOM(t *testing.T) {
	content := "\xef\xbb\xbf---\r\ntitle: Windows\r\n---\r\nBody\r\n"
	result, err := New().Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Windows", result.String("title"))
	assert.Equal(t, "Body\n", result.Content)
}

func TestParse_EmptyFrontMatter(t *testing.T) {
	result, err := New().Parse([]byte("---\n---\nBody"))
	require.NoError(t, err)

	assert.False(t, result.HasFrontMatter())
	assert.Equal(t, "Body", result.Content)
}

func TestParse_ClosingDelimiterAtEOF(t *testing.T) {
	result, err := New().Parse([]byte("---\ntitle: Only\n---"))
	require.NoError(t, err)

	assert.Equal(t, "Only", result.String("title"))
	assert.Equal(t, "", result.Content)
}

func TestParse_DashesInsideBodyAreKept(t *testing.T) {
	result, err := New().Parse([]byte("---\ntitle: A\n---\nintro\n\n---\n\nafter rule"))
	require.NoError(t, err)

	assert.Equal(t, "intro\n\n---\n\nafter rule", result.Content)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "unclosed block",
			content: "---\ntitle: Broken\n\n# Body",
			wantErr: ErrUnclosedFrontMatter,
		},
		{
			name:    "invalid yaml",
			content: "---\ntitle: [unterminated\n---\nBody",
			wantErr: ErrInvalidFrontMatter,
		},
		{
			name:    "scalar instead of mapping",
			content: "---\njust a string\n---\nBody",
			wantErr: ErrInvalidFrontMatter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Parse([]byte(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
