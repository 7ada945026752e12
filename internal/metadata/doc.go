// Package metadata turns raw front-matter fields into validated document
// metadata: title fallback, tags, per-type status allow-lists, project
// association and the related-document graph.
package metadata
