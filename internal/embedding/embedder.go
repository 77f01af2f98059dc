// Package embedding produces multilingual sentence embeddings via ONNX.
package embedding

import (
	"context"

	"github.com/kreuzlingo/kreuzsuche/pkg/utils"
)

// Embedder produces fixed-dimension vector embeddings for text. The same
// embedder must be used for corpus sentences and for queries so both live in
// the same vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// NormalizeL2 scales v in place to unit L2 norm. Zero vectors are left as-is.
// Corpus and query vectors are both normalized, so squared Euclidean distance
// orders neighbors the same way cosine similarity would.
func NormalizeL2(v []float32) {
	utils.NormalizeL2(v)
}
