// Package searcher ranks knowledge-base chunks by combining vector similarity and keyword matching.
//
// The searcher provides three search modes:
//   - Hybrid: vector + BM25 keyword search fused with RRF (default)
//   - Vector: semantic search over stored embeddings
//   - Keyword: BM25 full-text search only, no embedder required
//
// A Searcher built without an embedder answers every request in keyword mode.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb, searcher.Config{CacheTTL: 5 * time.Minute})
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:        "why did we pick SQLite",
//	    CollectionID: coll.ID,
//	    Limit:        10,
//	    Filters: &storage.SearchFilters{AnyOf: []storage.Filter{
//	        {DocTypes: []string{"adr"}, Statuses: []string{"accepted"}},
//	    }},
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %.2f %s (%s)\n", r.Rank, r.RelevanceScore, r.Metadata.Title, r.Metadata.SectionType)
//	}
//
// # Reciprocal Rank Fusion
//
// Hybrid mode sums 1/(k + rank) over the vector and keyword rankings (k = 60)
// and divides by the best attainable sum, so a chunk ranked first by every
// search that ran scores 1.0. If one search fails the other still answers.
//
// # Scores
//
// RelevanceScore is always in [0, 1]. Distance is 1 - cosine similarity for
// chunks the vector search saw, and 1 otherwise.
//
// # Caching
//
// Responses for requests with UseCache set are kept in an expiring LRU keyed by
// query, mode, collection, limit and filters. Call InvalidateCache after
// re-indexing.
package searcher
