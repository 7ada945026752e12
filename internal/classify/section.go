package classify

import (
	"regexp"
	"strings"

	"github.com/dshills/doccontext-mcp/pkg/types"
)

// SectionRule maps a heading pattern to a section type
type SectionRule struct {
	Pattern *regexp.Regexp
	Type    types.SectionType
}

// DefaultSectionRules returns the built-in heading table, checked in order.
// Patterns are case-insensitive and designed not to overlap.
func DefaultSectionRules() []SectionRule {
	return []SectionRule{
		{regexp.MustCompile(`(?i)\b(context|background|problem(\s+statement)?|motivation)\b`), types.SectionContext},
		{regexp.MustCompile(`(?i)\b(decision|resolution|proposed\s+solution|proposal|solution)\b`), types.SectionDecision},
		{regexp.MustCompile(`(?i)\b(consequences?|impacts?|implications|trade-?offs?)\b`), types.SectionConsequences},
		{regexp.MustCompile(`(?i)\b(alternatives?|options(\s+considered)?|considered\s+options)\b`), types.SectionAlternatives},
		{regexp.MustCompile(`(?i)\b(implementation|rollout|migration|plan|steps|how\s+to)\b`), types.SectionImplementation},
		{regexp.MustCompile(`(?i)(\b(summary|overview|abstract|conclusions?)\b|\btl;?dr\b)`), types.SectionSummary},
		{regexp.MustCompile(`(?i)\b(metrics|kpis?|success\s+criteria|measurements?)\b`), types.SectionMetrics},
		{regexp.MustCompile(`(?i)\b(risks?|concerns|mitigations?|threats?)\b`), types.SectionRisks},
	}
}

// ClassifySection returns the type of the first rule matching title, or content
func ClassifySection(title string, rules []SectionRule) types.SectionType {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.SectionContent
	}
	for _, rule := range rules {
		if rule.Pattern.MatchString(title) {
			return rule.Type
		}
	}
	return types.SectionContent
}
