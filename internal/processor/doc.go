// Package processor walks a knowledge-base directory and turns every eligible
// Markdown file into a document with classified metadata and chunks.
//
// Files whose names start with an underscore, non-Markdown files and paths
// matching an exclude pattern are ignored. Directories nested deeper than
// Config.MaxDepth are skipped with a warning. A file that cannot be read or
// parsed is logged and skipped; the rest of the run continues.
//
//	p := processor.New(processor.DefaultConfig(), processor.WithLogger(logger))
//	result, err := p.ProcessDirectory(ctx, "./docs")
//	if err != nil {
//	    return err
//	}
//	for _, chunk := range result.Chunks {
//	    // embed chunk.Content
//	}
package processor
