// Package search resolves English queries to nearest German sentences.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kreuzlingo/kreuzsuche/internal/config"
	"github.com/kreuzlingo/kreuzsuche/internal/embedding"
	"github.com/kreuzlingo/kreuzsuche/internal/models"
	"github.com/kreuzlingo/kreuzsuche/internal/storage"
	"github.com/kreuzlingo/kreuzsuche/internal/vector"
)

// Engine answers cross-lingual queries. It is constructed once at startup
// around the long-lived embedder and index and is immutable afterwards:
// every request is a pure read, so one engine serves all requests and tests
// build engines over small fixture corpora.
type Engine struct {
	store    storage.Store
	embedder embedding.Embedder
	index    vector.Index
	config   *config.SearchConfig
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.Store, embedder embedding.Embedder, index vector.Index, cfg *config.SearchConfig) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		index:    index,
		config:   cfg,
	}
}

// Search encodes the query with the corpus model, looks up the nearest
// sentence vectors and resolves them back to sentence pairs. Results are
// ordered by ascending distance; at most TopK (capped by corpus size) are
// returned. An empty query returns models.ErrEmptyQuery.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()

	if query.TopK <= 0 && e.config != nil {
		query.TopK = e.config.DefaultTopK
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if e.config != nil && e.config.MaxTopK > 0 && query.TopK > e.config.MaxTopK {
		query.TopK = e.config.MaxTopK
	}

	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	hits, err := e.index.Search(ctx, queryVec, query.TopK)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	ids := make([]int64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	pairs, err := e.store.GetPairsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve sentence pairs: %w", err)
	}

	results := make([]*models.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = &models.SearchResult{
			Pair:     pairs[i],
			Distance: hit.Distance,
			Rank:     i + 1,
		}
	}

	return &models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// IndexSize returns the number of vectors in the index.
func (e *Engine) IndexSize() int {
	return e.index.Size()
}

// IndexType returns the index implementation name.
func (e *Engine) IndexType() string {
	return e.index.Type()
}

// Dimensions returns the embedding dimension served by the engine.
func (e *Engine) Dimensions() int {
	return e.embedder.Dimensions()
}
