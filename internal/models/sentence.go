// Package models defines core data structures for sentence pairs, queries, and search results.
package models

import "time"

// SentencePair is one aligned German-English sentence from the parallel corpus.
// IDs are ordinals assigned in corpus order; embeddings and index entries are
// positionally aligned with them, so the ID doubles as the index ordinal.
type SentencePair struct {
	ID         int64     `json:"id" db:"id"`
	SourceText string    `json:"source_text" db:"source_text"`
	TargetText string    `json:"target_text" db:"target_text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CorpusInfo describes one corpus load run. Loaded may be smaller than
// Requested when malformed rows were dropped; Dropped records how many.
type CorpusInfo struct {
	RunID     string    `json:"run_id"`
	SourceURL string    `json:"source_url"`
	Requested int       `json:"requested"`
	Loaded    int       `json:"loaded"`
	Dropped   int       `json:"dropped"`
	FetchedAt time.Time `json:"fetched_at"`
}
