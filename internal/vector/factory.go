package vector

import "fmt"

// IndexType selects a nearest-neighbor index implementation.
type IndexType string

const (
	// IndexTypeFlat is exact brute-force search. The right choice for
	// corpora in the tens of thousands of sentences.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS delegates to FAISS IndexFlatL2. Requires the faiss
	// build tag and the FAISS C library.
	IndexTypeFAISS IndexType = "faiss"
)

// New creates an index of the given type ("flat" by default).
func New(indexType string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return NewFlatIndex(dimensions)
	case IndexTypeFAISS:
		return NewFAISSIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, faiss)", indexType)
	}
}

// IsFAISSAvailable reports whether FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
