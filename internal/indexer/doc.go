// Package indexer keeps a knowledge-base collection in storage in sync with
// the Markdown files on disk.
//
// A run processes the directory tree, compares each document's SHA-256
// content hash with the stored one, embeds the chunks of new and changed
// documents in batches and replaces their rows one transaction per document.
// Documents whose files disappeared are deleted. Unchanged documents are
// skipped unless Config.Force is set or the embedding model differs from the
// one recorded on the collection.
//
//	idx := indexer.New(store, emb, indexer.WithLogger(logger))
//	stats, err := idx.IndexDirectory(ctx, "./docs", &indexer.Config{})
//
// Only one run per Indexer executes at a time; a concurrent call returns
// ErrIndexingInProgress.
package indexer
