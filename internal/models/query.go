package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a search query contains no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

const (
	// DefaultTopK is the number of neighbors returned when the request does not ask for one.
	DefaultTopK = 5
	// MaxTopK caps the number of neighbors a single request may ask for.
	MaxTopK = 50
)

// SearchQuery is a single cross-lingual search request. Query is English
// free text; TopK is the number of nearest German sentences to return.
type SearchQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate normalizes the query and returns ErrEmptyQuery when no text
// remains after trimming. TopK is defaulted and capped, never rejected.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	return nil
}
