package chunker

import (
	"regexp"
	"strings"

	"github.com/dshills/doccontext-mcp/internal/classify"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

// UntitledSectionTitle is used when a body has no headings at all
const UntitledSectionTitle = "Content"

var headingPattern = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

// ExtractSections splits a Markdown body into sections at heading lines.
//
// Each heading starts a section whose content begins with the heading line.
// Non-blank text before the first heading forms an untitled section. Lines
// inside fenced code blocks are never treated as headings.
func ExtractSections(body string, rules []classify.SectionRule) []types.Section {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if strings.TrimSpace(body) == "" {
		return nil
	}

	var (
		sections []types.Section
		title    string
		titled   bool
		buf      []string
		fence    string
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if !titled && content == "" {
			return
		}
		sections = append(sections, types.Section{
			Title:   title,
			Content: content,
			Type:    classify.ClassifySection(title, rules),
		})
	}

	for _, line := range strings.Split(body, "\n") {
		if fence != "" {
			if closesFence(line, fence) {
				fence = ""
			}
			buf = append(buf, line)
			continue
		}
		if f := openingFence(line); f != "" {
			fence = f
			buf = append(buf, line)
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
			titled = true
		}
		buf = append(buf, line)
	}
	flush()

	// A body without headings becomes a single "Content" section
	if len(sections) == 1 && !titled {
		sections[0].Title = UntitledSectionTitle
		sections[0].Type = classify.ClassifySection(UntitledSectionTitle, rules)
	}

	return sections
}

// openingFence returns the fence marker (``` or ~~~, possibly longer) that
// opens a code block on line, or "".
func openingFence(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == ch {
			n++
		}
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}

func closesFence(line, fence string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fence) {
		return false
	}
	return strings.Trim(trimmed, fence[:1]) == ""
}
