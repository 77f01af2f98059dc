package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/viant/vec/search"
)

// flatMagic identifies the flat index file format; the trailing byte is the
// format version.
var flatMagic = [4]byte{'K', 'S', 'V', 1}

// FlatIndex is an exact brute-force nearest-neighbor index. Distances are
// computed with the SIMD Euclidean kernel from viant/vec and squared, so the
// reported values match the flat-L2 convention of the FAISS variant. Exact
// search over a 10k-sentence corpus completes well within interactive latency.
type FlatIndex struct {
	dimensions int
	ids        []int64
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty flat index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Dimensions returns the vector dimension the index was created with.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Add appends vectors with the given IDs. Vectors are copied.
func (f *FlatIndex) Add(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range ids {
		if len(vectors[i]) != f.dimensions {
			return fmt.Errorf("vector dimension mismatch for id %d: got %d, expected %d", id, len(vectors[i]), f.dimensions)
		}
		vec := make([]float32, f.dimensions)
		copy(vec, vectors[i])
		f.ids = append(f.ids, id)
		f.vectors = append(f.vectors, vec)
	}
	return nil
}

// Search returns the k nearest vectors by squared Euclidean distance,
// ascending. Equal distances are broken by lower ID so repeated searches over
// a rebuilt index return the same ordering. k larger than the index size
// returns everything.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.ids) == 0 {
		return nil, nil
	}
	q := search.Float32s(query)
	results := make([]Result, len(f.ids))
	for i, vec := range f.vectors {
		d := float64(q.EuclideanDistance(vec))
		results[i] = Result{ID: f.ids[i], Distance: d * d}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Save persists the index to path, creating parent directories as needed.
// Format: magic+version (4 bytes), dimensions (uint32), count (uint32), then
// per entry an int64 ID followed by dimensions little-endian float32s.
func (f *FlatIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(flatMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(f.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(len(f.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range f.ids {
		if err := binary.Write(file, binary.LittleEndian, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := file.Write(EncodeFloat32s(f.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path, replacing the in-memory contents. A missing
// file leaves the index unchanged; a corrupt file or a dimension mismatch is
// an error so a server never starts over a bad artifact.
func (f *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	var magic [4]byte
	if _, err := io.ReadFull(file, magic[:]); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if magic != flatMagic {
		return fmt.Errorf("not a flat index file (bad magic %v)", magic)
	}
	var dim, n uint32
	if err := binary.Read(file, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != f.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, f.dimensions)
	}
	if err := binary.Read(file, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	ids := make([]int64, 0, n)
	vectors := make([][]float32, 0, n)
	buf := make([]byte, f.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var id int64
		if err := binary.Read(file, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(file, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		vec, err := DecodeFloat32s(buf)
		if err != nil {
			return fmt.Errorf("decode vector: %w", err)
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}

	f.mu.Lock()
	f.ids = ids
	f.vectors = vectors
	f.mu.Unlock()
	return nil
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}
