package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/doccontext-mcp/pkg/types"
)

var (
	// ErrUnclosedFrontMatter is returned when an opening delimiter has no closing match
	ErrUnclosedFrontMatter = errors.New("frontmatter started but no closing delimiter found")
	// ErrInvalidFrontMatter is returned when the front-matter block is not a YAML mapping
	ErrInvalidFrontMatter = errors.New("invalid frontmatter")
)

const delimiter = "---"

// FrontMatterParser splits raw Markdown into structured fields and body
type FrontMatterParser interface {
	Parse(content []byte) (*types.ParseResult, error)
}

// Parser decodes YAML front matter delimited by "---" lines
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// Parse splits content into front-matter fields and the Markdown body.
// Files without an opening delimiter on the first line are returned as body only.
func (p *Parser) Parse(content []byte) (*types.ParseResult, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	result := &types.ParseResult{Data: map[string]any{}}

	firstLine, rest, _ := strings.Cut(text, "\n")
	if strings.TrimRight(firstLine, " \t") != delimiter {
		result.Content = text
		return result, nil
	}

	yamlBlock, body, ok := splitClosing(rest)
	if !ok {
		return nil, ErrUnclosedFrontMatter
	}

	if strings.TrimSpace(yamlBlock) != "" {
		var data map[string]any
		if err := yaml.Unmarshal([]byte(yamlBlock), &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontMatter, err)
		}
		if data != nil {
			result.Data = data
		}
	}

	result.Content = body
	return result, nil
}

// splitClosing finds the closing delimiter line and returns the YAML block and the body after it
func splitClosing(rest string) (string, string, bool) {
	offset := 0
	for offset <= len(rest) {
		line, after, found := strings.Cut(rest[offset:], "\n")
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == delimiter || trimmed == "..." {
			return rest[:offset], after, true
		}
		if !found {
			break
		}
		offset += len(line) + 1
	}
	return "", "", false
}
