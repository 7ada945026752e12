package types

// SectionType is the semantic role of a heading-delimited span
type SectionType string

const (
	SectionContext        SectionType = "context"
	SectionDecision       SectionType = "decision"
	SectionConsequences   SectionType = "consequences"
	SectionAlternatives   SectionType = "alternatives"
	SectionImplementation SectionType = "implementation"
	SectionSummary        SectionType = "summary"
	SectionMetrics        SectionType = "metrics"
	SectionRisks          SectionType = "risks"
	SectionContent        SectionType = "content"
)

// SectionTypes lists every section type, content last
var SectionTypes = []SectionType{
	SectionContext, SectionDecision, SectionConsequences, SectionAlternatives,
	SectionImplementation, SectionSummary, SectionMetrics, SectionRisks, SectionContent,
}

// Valid reports whether t belongs to the closed section type vocabulary
func (t SectionType) Valid() bool {
	for _, st := range SectionTypes {
		if t == st {
			return true
		}
	}
	return false
}

// Section is a contiguous span of a document body starting at a heading.
// Title is empty for a preamble section.
type Section struct {
	Title   string
	Content string // Includes the heading line itself
	Type    SectionType
}
