// Package embedder generates vector embeddings for document chunks and search queries.
//
// Three providers are available: Jina AI and OpenAI over HTTP, and a local
// feature-hashing model that needs no network access. Remote providers share
// one implementation with rate limiting, retry with exponential backoff and an
// LRU cache keyed by provider, model, input type and content hash.
//
// # Basic Usage
//
//	emb, err := embedder.New(cfg.Embedding)
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text:      "how do we store embeddings?",
//	    InputType: embedder.InputQuery,
//	})
//
// # Batch Processing
//
// EmbedTexts splits a large slice into provider-sized batches and checks that
// every vector has the provider's dimension:
//
//	vectors, err := embedder.EmbedTexts(ctx, emb, contents, embedder.InputDocument, 50)
//
// # Provider Selection
//
//  1. EmbeddingConfig.Provider, or DOCCONTEXT_EMBEDDING_PROVIDER
//  2. Else if JINA_API_KEY is set, Jina AI
//  3. Else if OPENAI_API_KEY is set, OpenAI
//  4. Else the local provider
//
// # Error Handling
//
// Transient failures (network errors, 5xx, 429) are retried. Other 4xx
// responses fail immediately:
//
//	_, err := emb.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // provider unavailable or rejected the request
//	}
package embedder
