// Package storage defines persistence for sentence pairs and their embeddings.
package storage

import (
	"context"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
)

// Store persists the parallel corpus, the per-sentence embedding vectors and
// metadata about the load run. Pairs are written once by the loader and
// read-only afterwards; a new load replaces the corpus wholesale.
type Store interface {
	// Corpus operations
	ReplacePairs(ctx context.Context, pairs []*models.SentencePair, info *models.CorpusInfo) error
	GetPair(ctx context.Context, id int64) (*models.SentencePair, error)
	// GetPairsByIDs preserves the order of ids in the returned slice.
	GetPairsByIDs(ctx context.Context, ids []int64) ([]*models.SentencePair, error)
	// ListPairs returns pairs ordered by ascending ID.
	ListPairs(ctx context.Context, offset, limit int) ([]*models.SentencePair, error)
	CountPairs(ctx context.Context) (int64, error)

	// Embedding operations
	PutEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error
	GetEmbedding(ctx context.Context, id int64) ([]float32, error)
	// WalkEmbeddings visits every embedding in ascending ID order.
	WalkEmbeddings(ctx context.Context, fn func(id int64, vector []float32) error) error
	CountEmbeddings(ctx context.Context) (int64, error)
	ClearEmbeddings(ctx context.Context) error

	// CorpusInfo returns metadata about the most recent corpus load.
	CorpusInfo(ctx context.Context) (*models.CorpusInfo, error)

	Close() error
}
