// Package vector provides nearest-neighbor indexes over sentence embeddings.
package vector

import "context"

// Result is a single nearest-neighbor hit. ID is the ordinal sentence pair ID
// and Distance is squared Euclidean distance (smaller = more similar).
type Result struct {
	ID       int64   `json:"id"`
	Distance float64 `json:"distance"`
}

// Index is a nearest-neighbor index keyed by ordinal IDs. Vectors are added
// once during the build step; at query time the index is read-only. Search
// returns results ordered by ascending distance, ties broken by lower ID, and
// never more results than the index holds.
type Index interface {
	Add(ctx context.Context, ids []int64, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}
