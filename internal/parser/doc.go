// Package parser splits Markdown files into YAML front matter and body.
//
// The front matter is the block between a "---" line at the very top of the file
// and the next "---" (or "...") line. It is decoded with gopkg.in/yaml.v3 into a
// map so that later stages can validate each field by shape rather than by a
// fixed schema.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.Parse(raw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	title, _ := result.Data["title"].(string)
//	body := result.Content
//
// Files without front matter are returned with an empty Data map and the full
// text as Content. An opening delimiter without a closing one, or a block that
// is not a YAML mapping, is an error; callers skip such files.
//
// The processor depends on the FrontMatterParser interface, not on this
// implementation, so tests and alternative formats can be injected.
package parser
