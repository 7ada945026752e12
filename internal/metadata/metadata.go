package metadata

import (
	"path"
	"strings"

	"github.com/spf13/cast"

	"github.com/dshills/doccontext-mcp/internal/classify"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

// Front-matter field names
const (
	FieldTitle      = "title"
	FieldName       = "name"
	FieldTags       = "tags"
	FieldStatus     = "status"
	FieldRelated    = "related"
	FieldDependsOn  = "depends-on"
	FieldSupersedes = "supersedes"
)

// StatusAllowList maps a document type to the statuses it accepts.
// A type with no entry accepts any non-empty status verbatim.
type StatusAllowList map[types.DocumentType][]string

// DefaultStatuses returns the built-in status vocabulary per document type
func DefaultStatuses() StatusAllowList {
	return StatusAllowList{
		types.DocADR:  {"proposed", "accepted", "rejected", "deprecated", "superseded"},
		types.DocRFC:  {"draft", "proposed", "review", "accepted", "rejected", "implemented", "withdrawn"},
		types.DocRule: {"draft", "active", "deprecated"},
	}
}

// Extractor derives validated document metadata from raw front-matter fields
type Extractor struct {
	statuses StatusAllowList
}

// New creates an extractor using the default status vocabulary
func New() *Extractor {
	return &Extractor{statuses: DefaultStatuses()}
}

// NewWithStatuses creates an extractor with a custom status vocabulary
func NewWithStatuses(statuses StatusAllowList) *Extractor {
	return &Extractor{statuses: statuses}
}

// Extract builds the metadata for a document at relPath. Unknown or malformed
// fields are dropped, never reported as errors.
func (e *Extractor) Extract(data map[string]any, relPath string, docType types.DocumentType) types.Metadata {
	relPath = strings.ReplaceAll(relPath, "\\", "/")

	meta := types.Metadata{
		Title:      extractTitle(data, relPath),
		Type:       docType,
		Tags:       stringArray(data[FieldTags]),
		SourcePath: relPath,
		Status:     e.extractStatus(data[FieldStatus], docType),
		Related:    extractRelated(data[FieldRelated]),
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}

	switch {
	case meta.Related != nil && meta.Related.Projects != nil:
		meta.Projects = append([]string{}, meta.Related.Projects...)
	default:
		if p := classify.ProjectFromPath(relPath); p != "" {
			meta.Projects = []string{p}
		} else {
			meta.Projects = []string{}
		}
	}

	return meta
}

// Extract is a convenience wrapper around a default Extractor
func Extract(data map[string]any, relPath string, docType types.DocumentType) types.Metadata {
	return New().Extract(data, relPath, docType)
}

func extractTitle(data map[string]any, relPath string) string {
	for _, key := range []string{FieldTitle, FieldName} {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		if s, err := cast.ToStringE(v); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return strings.TrimSuffix(path.Base(relPath), ".md")
}

func (e *Extractor) extractStatus(v any, docType types.DocumentType) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}

	allowed := e.statuses[docType]
	if len(allowed) == 0 {
		return s
	}
	candidate := strings.TrimSpace(s)
	for _, a := range allowed {
		if strings.EqualFold(candidate, a) {
			return a
		}
	}
	return ""
}

func extractRelated(v any) *types.Related {
	m, ok := asMap(v)
	if !ok {
		return nil
	}

	related := &types.Related{RelatedRefs: refsFrom(m)}
	if sub, ok := asMap(m[FieldDependsOn]); ok {
		if refs := refsFrom(sub); !refs.IsEmpty() {
			related.DependsOn = &refs
		}
	}
	if sub, ok := asMap(m[FieldSupersedes]); ok {
		if refs := refsFrom(sub); !refs.IsEmpty() {
			related.Supersedes = &refs
		}
	}

	if related.IsEmpty() {
		return nil
	}
	return related
}

func refsFrom(m map[string]any) types.RelatedRefs {
	return types.RelatedRefs{
		ADRs:     stringArray(m["adrs"]),
		RFCs:     stringArray(m["rfcs"]),
		Guides:   stringArray(m["guides"]),
		Rules:    stringArray(m["rules"]),
		Projects: stringArray(m["projects"]),
	}
}

// stringArray returns nil unless v is a sequence. Elements are coerced to
// strings; elements that cannot be coerced are dropped.
func stringArray(v any) []string {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		return append([]string{}, t...)
	default:
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		s, err := cast.ToStringE(item)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		m, err := cast.ToStringMapE(t)
		return m, err == nil
	default:
		return nil, false
	}
}
