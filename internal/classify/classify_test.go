package classify

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/doccontext-mcp/pkg/types"
)

func TestClassifyDocument(t *testing.T) {
	rules := DefaultDocumentRules()

	tests := []struct {
		name string
		path string
		want types.DocumentType
	}{
		{"adr suffix", "notes/0001-use-sqlite.adr.md", types.DocADR},
		{"rfc suffix", "rfc-7.rfc.md", types.DocRFC},
		{"rule suffix", "misc/naming.rule.md", types.DocRule},
		{"guide suffix", "x/onboarding.guide.md", types.DocGuide},
		{"project suffix", "roadmap.project.md", types.DocProject},
		{"suffix beats directory", "rules/0002-logging.adr.md", types.DocADR},
		{"suffix beats project tree", "projects/foo/bar/design.rfc.md", types.DocRFC},
		{"adrs directory", "adrs/0001.md", types.DocADR},
		{"decisions directory", "architecture/decisions/0003.md", types.DocADR},
		{"rfcs directory", "rfcs/streaming.md", types.DocRFC},
		{"guides directory", "guides/testing.md", types.DocGuide},
		{"rules directory", "rules/x.md", types.DocRule},
		{"rules beneath a project", "projects/foo/rules/x.md", types.DocRule},
		{"project index", "projects/index.md", types.DocProject},
		{"project named index", "projects/foo/index.md", types.DocProject},
		{"project tree", "projects/foo/notes.md", types.DocProject},
		{"file directly under projects", "projects/readme.md", types.DocGuide},
		{"fallback", "README.md", types.DocGuide},
		{"case insensitive segment", "ADRs/0001.md", types.DocADR},
		{"windows separators", `projects\foo\notes.md`, types.DocProject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDocument(tt.path, rules))
		})
	}
}

func TestClassifyDocument_CustomRules(t *testing.T) {
	rules := []DocumentRule{
		{Name: "all-rules", Match: func(string) bool { return true }, Type: types.DocRule},
	}
	assert.Equal(t, types.DocRule, ClassifyDocument("adrs/0001.md", rules))
	assert.Equal(t, FallbackDocumentType, ClassifyDocument("adrs/0001.md", nil))
}

func TestProjectFromPath(t *testing.T) {
	assert.Equal(t, "foo", ProjectFromPath("projects/foo/index.md"))
	assert.Equal(t, "foo", ProjectFromPath("projects/foo/rules/x.md"))
	assert.Equal(t, "bar", ProjectFromPath("team/projects/bar/notes.md"))
	assert.Equal(t, "", ProjectFromPath("projects/index.md"))
	assert.Equal(t, "", ProjectFromPath("rules/x.md"))
}

func TestClassifySection(t *testing.T) {
	rules := DefaultSectionRules()

	tests := []struct {
		title string
		want  types.SectionType
	}{
		{"Context", types.SectionContext},
		{"Context and Problem Statement", types.SectionContext},
		{"Background", types.SectionContext},
		{"Decision", types.SectionDecision},
		{"Decision Outcome", types.SectionDecision},
		{"Proposed Solution", types.SectionDecision},
		{"Consequences", types.SectionConsequences},
		{"Trade-offs", types.SectionConsequences},
		{"Alternatives Considered", types.SectionAlternatives},
		{"Considered Options", types.SectionAlternatives},
		{"Implementation", types.SectionImplementation},
		{"Rollout Plan", types.SectionImplementation},
		{"Summary", types.SectionSummary},
		{"TL;DR", types.SectionSummary},
		{"Success Metrics", types.SectionMetrics},
		{"KPIs", types.SectionMetrics},
		{"Risks", types.SectionRisks},
		{"Open Concerns", types.SectionRisks},
		{"CONTEXT", types.SectionContext},
		{"References", types.SectionContent},
		{"Content", types.SectionContent},
		{"", types.SectionContent},
		{"   ", types.SectionContent},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySection(tt.title, rules))
		})
	}
}

func TestClassifySection_FirstMatchWins(t *testing.T) {
	rules := []SectionRule{
		{regexp.MustCompile(`(?i)risk`), types.SectionRisks},
		{regexp.MustCompile(`(?i)plan`), types.SectionImplementation},
	}
	assert.Equal(t, types.SectionRisks, ClassifySection("Risk plan", rules))
	assert.Equal(t, types.SectionImplementation, ClassifySection("Plan", rules))
	assert.Equal(t, types.SectionContent, ClassifySection("Other", rules))
}
