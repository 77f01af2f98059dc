package models

// SearchResult is a single nearest-neighbor hit. Distance is squared
// Euclidean distance between the query embedding and the sentence embedding;
// smaller means more similar. Rank starts at 1.
type SearchResult struct {
	Pair     *SentencePair `json:"pair"`
	Distance float64       `json:"distance"`
	Rank     int           `json:"rank"`
}

// SearchResponse is the response for a search request. Results are ordered
// by ascending distance; ties are broken by lower sentence pair ID.
type SearchResponse struct {
	Query     string          `json:"query"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
}
