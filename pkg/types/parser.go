package types

// ParseResult is the output of splitting a Markdown file into front matter and body
type ParseResult struct {
	// Data holds the decoded front-matter fields, empty when the file has none
	Data map[string]any

	// Content is the Markdown body with the front-matter block removed
	Content string
}

// HasFrontMatter returns true if any front-matter fields were decoded
func (pr *ParseResult) HasFrontMatter() bool {
	return len(pr.Data) > 0
}

// String returns a front-matter field as a string, or "" when absent or not a string
func (pr *ParseResult) String(key string) string {
	if pr.Data == nil {
		return ""
	}
	s, _ := pr.Data[key].(string)
	return s
}
