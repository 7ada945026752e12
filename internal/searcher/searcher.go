package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dshills/doccontext-mcp/internal/embedder"
	"github.com/dshills/doccontext-mcp/internal/storage"
	"github.com/dshills/doccontext-mcp/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector + BM25 with RRF
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // BM25 text search only
)

const (
	DefaultLimit       = 10
	MaxLimit           = 100
	DefaultRRFConstant = 60
	DefaultCacheSize   = 1000
	DefaultCacheTTL    = 5 * time.Minute
)

// Errors
var (
	ErrEmptyQuery      = errors.New("query cannot be empty")
	ErrUnsupportedMode = errors.New("unsupported search mode")
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query        string
	CollectionID int64
	Limit        int
	Mode         SearchMode
	Filters      *storage.SearchFilters
	UseCache     bool
	RRFConstant  float64 // k value for Reciprocal Rank Fusion (default 60)
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results       []types.SearchResult
	TotalResults  int
	SearchMode    SearchMode // Mode actually used, keyword when no embedder is configured
	Duration      time.Duration
	CacheHit      bool
	VectorResults int
	TextResults   int
}

// Config tunes a Searcher
type Config struct {
	CacheSize int
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

// Searcher coordinates search operations across vector and text search.
// A nil embedder restricts every query to keyword search.
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
	cache    *expirable.LRU[[32]byte, *SearchResponse]
	logger   *slog.Logger
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage, emb embedder.Embedder, cfg Config) *Searcher {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Searcher{
		storage:  store,
		embedder: emb,
		cache:    expirable.NewLRU[[32]byte, *SearchResponse](cfg.CacheSize, nil, cfg.CacheTTL),
		logger:   cfg.Logger,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	var key [32]byte
	if req.UseCache {
		key = computeQueryHash(req)
		if cached, ok := s.cache.Get(key); ok {
			response := copySearchResponse(cached)
			response.CacheHit = true
			response.Duration = time.Since(startTime)
			return response, nil
		}
	}

	var response *SearchResponse
	var err error

	switch req.Mode {
	case SearchModeHybrid:
		response, err = s.hybridSearch(ctx, req)
	case SearchModeVector:
		response, err = s.vectorSearch(ctx, req)
	case SearchModeKeyword:
		response, err = s.keywordSearch(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.SearchMode = req.Mode

	if req.UseCache && len(response.Results) > 0 {
		s.cache.Add(key, copySearchResponse(response))
	}

	return response, nil
}

// InvalidateCache drops every cached response; call it after re-indexing
func (s *Searcher) InvalidateCache() {
	s.cache.Purge()
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	return s.cache.Len()
}

// searchResult holds results from concurrent search operations
type searchResult struct {
	vectorResults []storage.VectorResult
	textResults   []storage.TextResult
	err           error
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text:      query,
		InputType: embedder.InputQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	return emb.Vector, nil
}

func (s *Searcher) runVectorSearch(ctx context.Context, req SearchRequest, limit int, resultChan chan<- searchResult) {
	var res searchResult
	vector, err := s.embedQuery(ctx, req.Query)
	if err != nil {
		res.err = err
	} else {
		res.vectorResults, res.err = s.storage.SearchVector(ctx, req.CollectionID, vector, limit, req.Filters)
	}
	resultChan <- res
}

func (s *Searcher) runTextSearch(ctx context.Context, req SearchRequest, limit int, resultChan chan<- searchResult) {
	var res searchResult
	res.textResults, res.err = s.storage.SearchText(ctx, req.CollectionID, req.Query, limit, req.Filters)
	resultChan <- res
}

// hybridSearch combines vector and BM25 search using Reciprocal Rank Fusion
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	vectorChan := make(chan searchResult, 1)
	textChan := make(chan searchResult, 1)

	go s.runVectorSearch(ctx, req, req.Limit*2, vectorChan)
	go s.runTextSearch(ctx, req, req.Limit*2, textChan)

	var vectorRes, textRes searchResult
	var vectorDone, textDone bool
	for !vectorDone || !textDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case textRes = <-textChan:
			textDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// One side may fail; the other still ranks
	if vectorRes.err != nil && textRes.err != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, text=%v", vectorRes.err, textRes.err)
	}
	lists := 0
	if vectorRes.err != nil {
		s.logger.Warn("vector search failed, using keyword results only", "error", vectorRes.err)
	} else {
		lists++
	}
	if textRes.err != nil {
		s.logger.Warn("keyword search failed, using vector results only", "error", textRes.err)
	} else {
		lists++
	}

	ranked := applyRRF(vectorRes.vectorResults, textRes.textResults, req.RRFConstant, lists)
	results, err := s.fetchResults(ctx, ranked, similarities(vectorRes.vectorResults), req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: len(vectorRes.vectorResults),
		TextResults:   len(textRes.textResults),
	}, nil
}

// vectorSearch performs only vector similarity search
func (s *Searcher) vectorSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	vector, err := s.embedQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	vectorResults, err := s.storage.SearchVector(ctx, req.CollectionID, vector, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(vectorResults))
	for i, vr := range vectorResults {
		ranked[i] = rankedResult{
			chunkID: vr.ChunkID,
			score:   clamp01(vr.SimilarityScore),
			rank:    i + 1,
		}
	}

	results, err := s.fetchResults(ctx, ranked, similarities(vectorResults), req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: len(vectorResults),
	}, nil
}

// keywordSearch performs only BM25 text search
func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	textResults, err := s.storage.SearchText(ctx, req.CollectionID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(textResults))
	for i, tr := range textResults {
		ranked[i] = rankedResult{
			chunkID: tr.ChunkID,
			score:   clamp01(tr.BM25Score),
			rank:    i + 1,
		}
	}

	results, err := s.fetchResults(ctx, ranked, nil, req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		TextResults:  len(textResults),
	}, nil
}

// rankedResult represents a chunk with its relevance score and rank
type rankedResult struct {
	chunkID int64
	score   float64
	rank    int
}

// applyRRF fuses vector and text rankings: RRF(d) = Σ 1/(k + rank(d)).
// Scores are divided by the best attainable sum over the lists that ran, so a
// chunk ranked first everywhere scores 1.
func applyRRF(vectorResults []storage.VectorResult, textResults []storage.TextResult, k float64, lists int) []rankedResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if lists < 1 {
		lists = 1
	}

	scores := make(map[int64]float64, len(vectorResults)+len(textResults))
	for rank, vr := range vectorResults {
		scores[vr.ChunkID] += 1.0 / (k + float64(rank+1))
	}
	for rank, tr := range textResults {
		scores[tr.ChunkID] += 1.0 / (k + float64(rank+1))
	}

	best := float64(lists) / (k + 1)
	results := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rankedResult{
			chunkID: chunkID,
			score:   clamp01(score / best),
		})
	}

	sortRankedResults(results)
	for i := range results {
		results[i].rank = i + 1
	}

	return results
}

// fetchResults loads chunk payloads for the top ranked results. Chunks deleted
// between ranking and loading are skipped.
func (s *Searcher) fetchResults(ctx context.Context, ranked []rankedResult, sims map[int64]float64, limit int) ([]types.SearchResult, error) {
	if limit > len(ranked) {
		limit = len(ranked)
	}
	if limit == 0 {
		return []types.SearchResult{}, nil
	}

	ids := make([]int64, limit)
	for i := 0; i < limit; i++ {
		ids[i] = ranked[i].chunkID
	}

	chunks, err := s.storage.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	results := make([]types.SearchResult, 0, limit)
	for _, rr := range ranked[:limit] {
		chunk, ok := chunks[rr.chunkID]
		if !ok {
			continue
		}

		distance := 1.0
		if sim, ok := sims[rr.chunkID]; ok {
			distance = 1 - sim
		}

		tc := chunk.ToTypesChunk()
		results = append(results, types.SearchResult{
			ChunkID:        tc.ID,
			DocumentID:     tc.DocumentID,
			Rank:           len(results) + 1,
			RelevanceScore: rr.score,
			Distance:       distance,
			Content:        tc.Content,
			Metadata:       tc.Metadata,
		})
	}

	return results, nil
}

func similarities(vectorResults []storage.VectorResult) map[int64]float64 {
	sims := make(map[int64]float64, len(vectorResults))
	for _, vr := range vectorResults {
		sims[vr.ChunkID] = vr.SimilarityScore
	}
	return sims
}

// validateRequest fills defaults and rejects unusable requests
func (s *Searcher) validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	switch req.Mode {
	case "":
		req.Mode = SearchModeHybrid
	case SearchModeHybrid, SearchModeVector, SearchModeKeyword:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, req.Mode)
	}

	if s.embedder == nil {
		req.Mode = SearchModeKeyword
	}

	if req.RRFConstant <= 0 {
		req.RRFConstant = DefaultRRFConstant
	}

	return nil
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	for i, r := range src.Results {
		r.Metadata.Tags = cloneStrings(r.Metadata.Tags)
		r.Metadata.Projects = cloneStrings(r.Metadata.Projects)
		dst.Results[i] = r
	}
	return &dst
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	fmt.Fprintf(&data, "%s|%s|%d|%d|%g", req.Query, req.Mode, req.CollectionID, req.Limit, req.RRFConstant)

	if req.Filters != nil {
		fmt.Fprintf(&data, "|min:%.4f", req.Filters.MinRelevance)
		for _, f := range req.Filters.AnyOf {
			fmt.Fprintf(&data, "|doc:%s|status:%s|tags:%s|projects:%s|sections:%s|glob:%s",
				strings.Join(f.DocTypes, ","),
				strings.Join(f.Statuses, ","),
				strings.Join(f.Tags, ","),
				strings.Join(f.Projects, ","),
				strings.Join(f.SectionTypes, ","),
				f.SourcePattern,
			)
		}
	}

	return sha256.Sum256([]byte(data.String()))
}

// sortRankedResults sorts by score descending, chunk id ascending on ties
func sortRankedResults(results []rankedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunkID < results[j].chunkID
	})
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
