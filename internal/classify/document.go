package classify

import (
	"path"
	"strings"

	"github.com/dshills/doccontext-mcp/pkg/types"
)

// ProjectsDir is the directory segment reserved for project documents
const ProjectsDir = "projects"

// DocumentRule classifies a slash-separated path relative to the processing root
type DocumentRule struct {
	Name  string
	Match func(relPath string) bool
	Type  types.DocumentType
}

// DefaultDocumentRules returns the built-in precedence: filename suffix, then
// directory segment, then project index, then project subtree.
func DefaultDocumentRules() []DocumentRule {
	return []DocumentRule{
		{Name: "adr-suffix", Match: hasSuffix(".adr.md"), Type: types.DocADR},
		{Name: "rfc-suffix", Match: hasSuffix(".rfc.md"), Type: types.DocRFC},
		{Name: "guide-suffix", Match: hasSuffix(".guide.md"), Type: types.DocGuide},
		{Name: "rule-suffix", Match: hasSuffix(".rule.md"), Type: types.DocRule},
		{Name: "project-suffix", Match: hasSuffix(".project.md"), Type: types.DocProject},

		{Name: "adr-dir", Match: inDir("adrs", "decisions"), Type: types.DocADR},
		{Name: "rfc-dir", Match: inDir("rfcs"), Type: types.DocRFC},
		{Name: "guide-dir", Match: inDir("guides"), Type: types.DocGuide},
		{Name: "rule-dir", Match: inDir("rules"), Type: types.DocRule},

		{Name: "project-index", Match: isProjectIndex, Type: types.DocProject},
		{Name: "project-tree", Match: isInProjectTree, Type: types.DocProject},
	}
}

// FallbackDocumentType is returned when no rule matches
const FallbackDocumentType = types.DocGuide

// ClassifyDocument returns the type of the first rule matching relPath
func ClassifyDocument(relPath string, rules []DocumentRule) types.DocumentType {
	relPath = normalizePath(relPath)
	for _, rule := range rules {
		if rule.Match(relPath) {
			return rule.Type
		}
	}
	return FallbackDocumentType
}

// ProjectFromPath returns the project name for paths of the form projects/<name>/...
func ProjectFromPath(relPath string) string {
	segments := dirSegments(normalizePath(relPath))
	for i, seg := range segments {
		if strings.EqualFold(seg, ProjectsDir) && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}

func hasSuffix(suffix string) func(string) bool {
	return func(relPath string) bool {
		return strings.HasSuffix(strings.ToLower(path.Base(relPath)), suffix)
	}
}

func inDir(names ...string) func(string) bool {
	return func(relPath string) bool {
		for _, seg := range dirSegments(relPath) {
			for _, name := range names {
				if strings.EqualFold(seg, name) {
					return true
				}
			}
		}
		return false
	}
}

func isProjectIndex(relPath string) bool {
	return strings.EqualFold(path.Base(relPath), "index.md") && projectDepth(relPath) >= 1
}

func isInProjectTree(relPath string) bool {
	return projectDepth(relPath) >= 2
}

// projectDepth counts the path segments (file included) beneath the first projects directory
func projectDepth(relPath string) int {
	segments := strings.Split(relPath, "/")
	for i, seg := range segments[:len(segments)-1] {
		if strings.EqualFold(seg, ProjectsDir) {
			return len(segments) - i - 1
		}
	}
	return 0
}

func dirSegments(relPath string) []string {
	dir := path.Dir(relPath)
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(strings.Trim(dir, "/"), "/")
}

func normalizePath(relPath string) string {
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+relPath), "/")
}
