//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/index_io_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unsafe"
)

// FAISSIndex wraps a FAISS IndexFlatL2. Because sentence pair IDs are
// ordinals assigned in corpus order and vectors are added in that same order,
// FAISS internal labels equal pair IDs directly and no ID mapping is needed.
type FAISSIndex struct {
	index      *C.FaissIndexFlatL2
	dimensions int
	mu         sync.RWMutex
}

// NewFAISSIndex creates a FAISS flat L2 index with the given dimension.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	var index *C.FaissIndexFlatL2
	if ret := C.faiss_IndexFlatL2_new_with(&index, C.idx_t(dimensions)); ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}
	return &FAISSIndex{index: index, dimensions: dimensions}, nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}

// Dimensions returns the vector dimension the index was created with.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Add appends vectors. IDs must continue the ordinal sequence (0, 1, 2, ...)
// because FAISS flat indexes assign labels by insertion position.
func (f *FAISSIndex) Add(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next := int64(C.faiss_Index_ntotal(f.index))
	flat := make([]float32, len(vectors)*f.dimensions)
	for i, vec := range vectors {
		if ids[i] != next+int64(i) {
			return fmt.Errorf("non-ordinal id %d at position %d (expected %d)", ids[i], i, next+int64(i))
		}
		if len(vec) != f.dimensions {
			return fmt.Errorf("vector dimension mismatch for id %d: got %d, expected %d", ids[i], len(vec), f.dimensions)
		}
		copy(flat[i*f.dimensions:(i+1)*f.dimensions], vec)
	}

	ret := C.faiss_Index_add(f.index, C.idx_t(len(vectors)), (*C.float)(unsafe.Pointer(&flat[0])))
	if ret != 0 {
		return fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
	}
	return nil
}

// Search returns the k nearest vectors by squared Euclidean distance, ascending.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if k <= 0 {
		return nil, nil
	}
	ntotal := int(C.faiss_Index_ntotal(f.index))
	if ntotal == 0 {
		return nil, nil
	}
	if k > ntotal {
		k = ntotal
	}

	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	results := make([]Result, 0, k)
	for i := 0; i < k; i++ {
		if labels[i] < 0 {
			continue
		}
		results = append(results, Result{ID: labels[i], Distance: float64(distances[i])})
	}
	// FAISS returns ascending distances; re-sort with the ID tie-break so
	// ordering matches FlatIndex exactly.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// Save persists the FAISS index to path.
func (f *FAISSIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	if ret := C.faiss_write_index_fname(f.index, cPath); ret != 0 {
		return fmt.Errorf("failed to save FAISS index: %s", faissLastError())
	}
	return nil
}

// Load reads the index from path. A missing file leaves the index unchanged;
// a dimension mismatch is an error.
func (f *FAISSIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var loaded *C.FaissIndex
	if ret := C.faiss_read_index_fname(cPath, 0, &loaded); ret != 0 {
		return fmt.Errorf("failed to load FAISS index: %s", faissLastError())
	}
	if d := int(C.faiss_Index_d(loaded)); d != f.dimensions {
		C.faiss_Index_free(loaded)
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", d, f.dimensions)
	}
	if f.index != nil {
		C.faiss_Index_free(f.index)
	}
	f.index = loaded
	return nil
}

// Size returns the number of vectors in the index.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int(C.faiss_Index_ntotal(f.index))
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}
