// Package pipeline implements the offline corpus pipeline: load sentence
// pairs, embed the German side, and build the nearest-neighbor index. Each
// step is a run-once batch job; any error aborts the step and the operator
// reruns it from the start after fixing the cause.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kreuzlingo/kreuzsuche/internal/corpus"
	"github.com/kreuzlingo/kreuzsuche/internal/embedding"
	"github.com/kreuzlingo/kreuzsuche/internal/models"
	"github.com/kreuzlingo/kreuzsuche/internal/storage"
	"github.com/kreuzlingo/kreuzsuche/internal/vector"
)

// LoadCorpus fetches the parallel corpus (or reuses the cached download),
// parses up to size pairs and replaces the stored corpus in one transaction.
// Returns metadata about the run, including how many rows were dropped.
func LoadCorpus(ctx context.Context, fetcher *corpus.Fetcher, store storage.Store, sourceURL, cachePath string, size int, logger *zap.Logger) (*models.CorpusInfo, error) {
	path, err := fetcher.EnsureLocal(ctx, sourceURL, cachePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer file.Close()

	pairs, dropped, err := corpus.ParseTSV(file, size)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("corpus at %s contains no usable sentence pairs", path)
	}

	info := &models.CorpusInfo{
		RunID:     uuid.NewString(),
		SourceURL: sourceURL,
		Requested: size,
		Loaded:    len(pairs),
		Dropped:   dropped,
		FetchedAt: time.Now(),
	}
	if err := store.ReplacePairs(ctx, pairs, info); err != nil {
		return nil, fmt.Errorf("store corpus: %w", err)
	}

	logger.Info("corpus loaded",
		zap.String("run_id", info.RunID),
		zap.Int("requested", info.Requested),
		zap.Int("loaded", info.Loaded),
		zap.Int("dropped", info.Dropped),
	)
	return info, nil
}

// EmbedCorpus embeds the German side of every stored pair in batches and
// persists one vector per pair. Previously stored embeddings are cleared
// first. On success the embedding count equals the pair count and every
// vector has the embedder's dimension.
func EmbedCorpus(ctx context.Context, store storage.Store, embedder embedding.Embedder, batchSize int, logger *zap.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = 64
	}
	pairCount, err := store.CountPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pairs: %w", err)
	}
	if pairCount == 0 {
		return 0, fmt.Errorf("no corpus loaded; run fetch first")
	}
	if err := store.ClearEmbeddings(ctx); err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}

	dims := embedder.Dimensions()
	embedded := 0
	for offset := 0; ; offset += batchSize {
		pairs, err := store.ListPairs(ctx, offset, batchSize)
		if err != nil {
			return embedded, fmt.Errorf("list pairs: %w", err)
		}
		if len(pairs) == 0 {
			break
		}

		texts := make([]string, len(pairs))
		ids := make([]int64, len(pairs))
		for i, pair := range pairs {
			texts[i] = pair.SourceText
			ids[i] = pair.ID
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return embedded, fmt.Errorf("embed batch at offset %d: %w", offset, err)
		}
		if len(vectors) != len(pairs) {
			return embedded, fmt.Errorf("embedder returned %d vectors for %d sentences", len(vectors), len(pairs))
		}
		for i, vec := range vectors {
			if len(vec) != dims {
				return embedded, fmt.Errorf("embedding for pair %d has dimension %d, expected %d", ids[i], len(vec), dims)
			}
		}

		if err := store.PutEmbeddings(ctx, ids, vectors); err != nil {
			return embedded, fmt.Errorf("store embeddings: %w", err)
		}
		embedded += len(pairs)
		logger.Debug("embedded batch", zap.Int("offset", offset), zap.Int("count", len(pairs)))
	}

	embCount, err := store.CountEmbeddings(ctx)
	if err != nil {
		return embedded, fmt.Errorf("count embeddings: %w", err)
	}
	if embCount != pairCount {
		return embedded, fmt.Errorf("embedding count %d does not match pair count %d", embCount, pairCount)
	}

	logger.Info("corpus embedded", zap.Int("sentences", embedded), zap.Int("dimensions", dims))
	return embedded, nil
}

// BuildIndex loads all stored embeddings in ID order into idx and persists
// the index to path. The index must be empty; an index is always rebuilt
// from scratch, never updated in place.
func BuildIndex(ctx context.Context, store storage.Store, idx vector.Index, path string, logger *zap.Logger) (int, error) {
	if idx.Size() != 0 {
		return 0, fmt.Errorf("index is not empty (size %d); rebuild starts from a fresh index", idx.Size())
	}

	pairCount, err := store.CountPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pairs: %w", err)
	}
	embCount, err := store.CountEmbeddings(ctx)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	if embCount == 0 {
		return 0, fmt.Errorf("no embeddings found; run embed first")
	}
	if embCount != pairCount {
		return 0, fmt.Errorf("embedding count %d does not match pair count %d; rerun embed", embCount, pairCount)
	}

	const addBatch = 1024
	ids := make([]int64, 0, addBatch)
	vectors := make([][]float32, 0, addBatch)
	flush := func() error {
		if len(ids) == 0 {
			return nil
		}
		if err := idx.Add(ctx, ids, vectors); err != nil {
			return err
		}
		ids = ids[:0]
		vectors = vectors[:0]
		return nil
	}

	err = store.WalkEmbeddings(ctx, func(id int64, vec []float32) error {
		ids = append(ids, id)
		vectors = append(vectors, vec)
		if len(ids) == addBatch {
			return flush()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk embeddings: %w", err)
	}
	if err := flush(); err != nil {
		return 0, fmt.Errorf("add vectors: %w", err)
	}

	if int64(idx.Size()) != pairCount {
		return 0, fmt.Errorf("index size %d does not match pair count %d", idx.Size(), pairCount)
	}
	if err := idx.Save(path); err != nil {
		return 0, fmt.Errorf("save index: %w", err)
	}

	logger.Info("index built",
		zap.Int("vectors", idx.Size()),
		zap.String("type", idx.Type()),
		zap.String("path", path),
	)
	return idx.Size(), nil
}
