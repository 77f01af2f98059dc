// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
	"github.com/kreuzlingo/kreuzsuche/internal/vector"
)

// SQLiteStore implements Store using SQLite. Embedding vectors are stored as
// little-endian float32 BLOBs keyed by pair ID.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sentence_pairs (
		id INTEGER PRIMARY KEY,
		source_text TEXT NOT NULL,
		target_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS embeddings (
		pair_id INTEGER PRIMARY KEY,
		vector BLOB NOT NULL,
		FOREIGN KEY (pair_id) REFERENCES sentence_pairs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS corpus_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		run_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		requested INTEGER NOT NULL,
		loaded INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		fetched_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplacePairs replaces the whole corpus and its metadata in one transaction.
// Existing embeddings are dropped because they no longer align with the new
// pairs. Either everything commits or nothing does, so a failed load never
// leaves a partial corpus behind.
func (s *SQLiteStore) ReplacePairs(ctx context.Context, pairs []*models.SentencePair, info *models.CorpusInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sentence_pairs`); err != nil {
		return fmt.Errorf("clear pairs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sentence_pairs (id, source_text, target_text, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, pair := range pairs {
		pair.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, pair.ID, pair.SourceText, pair.TargetText, pair.CreatedAt); err != nil {
			return fmt.Errorf("insert pair %d: %w", pair.ID, err)
		}
	}

	if info != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO corpus_meta (id, run_id, source_url, requested, loaded, dropped, fetched_at)
			 VALUES (1, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				run_id = excluded.run_id,
				source_url = excluded.source_url,
				requested = excluded.requested,
				loaded = excluded.loaded,
				dropped = excluded.dropped,
				fetched_at = excluded.fetched_at`,
			info.RunID, info.SourceURL, info.Requested, info.Loaded, info.Dropped, info.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert corpus meta: %w", err)
		}
	}

	return tx.Commit()
}

// GetPair returns a sentence pair by ID.
func (s *SQLiteStore) GetPair(ctx context.Context, id int64) (*models.SentencePair, error) {
	var pair models.SentencePair
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_text, target_text, created_at FROM sentence_pairs WHERE id = ?`, id,
	).Scan(&pair.ID, &pair.SourceText, &pair.TargetText, &pair.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sentence pair not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetPairsByIDs returns pairs in the same order as ids. A missing ID is an
// error: index hits must always resolve to a stored pair.
func (s *SQLiteStore) GetPairsByIDs(ctx context.Context, ids []int64) ([]*models.SentencePair, error) {
	pairs := make([]*models.SentencePair, 0, len(ids))
	for _, id := range ids {
		pair, err := s.GetPair(ctx, id)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ListPairs returns pairs ordered by ascending ID.
func (s *SQLiteStore) ListPairs(ctx context.Context, offset, limit int) ([]*models.SentencePair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, target_text, created_at
		 FROM sentence_pairs ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []*models.SentencePair
	for rows.Next() {
		var pair models.SentencePair
		if err := rows.Scan(&pair.ID, &pair.SourceText, &pair.TargetText, &pair.CreatedAt); err != nil {
			return nil, err
		}
		pairs = append(pairs, &pair)
	}
	return pairs, rows.Err()
}

// CountPairs returns the number of sentence pairs.
func (s *SQLiteStore) CountPairs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sentence_pairs`).Scan(&count)
	return count, err
}

// PutEmbeddings stores vectors for the given pair IDs in one transaction.
func (s *SQLiteStore) PutEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (pair_id, vector) VALUES (?, ?)
		 ON CONFLICT(pair_id) DO UPDATE SET vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, vector.EncodeFloat32s(vectors[i])); err != nil {
			return fmt.Errorf("insert embedding %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// GetEmbedding returns the stored vector for a pair ID.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, id int64) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT vector FROM embeddings WHERE pair_id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return vector.DecodeFloat32s(blob)
}

// WalkEmbeddings visits every embedding in ascending pair ID order.
func (s *SQLiteStore) WalkEmbeddings(ctx context.Context, fn func(id int64, vec []float32) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT pair_id, vector FROM embeddings ORDER BY pair_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		vec, err := vector.DecodeFloat32s(blob)
		if err != nil {
			return fmt.Errorf("embedding %d: %w", id, err)
		}
		if err := fn(id, vec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountEmbeddings returns the number of stored embeddings.
func (s *SQLiteStore) CountEmbeddings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count)
	return count, err
}

// ClearEmbeddings removes all stored embeddings.
func (s *SQLiteStore) ClearEmbeddings(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings`)
	return err
}

// CorpusInfo returns metadata about the most recent corpus load, or an error
// when no corpus has been loaded yet.
func (s *SQLiteStore) CorpusInfo(ctx context.Context) (*models.CorpusInfo, error) {
	var info models.CorpusInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, source_url, requested, loaded, dropped, fetched_at FROM corpus_meta WHERE id = 1`,
	).Scan(&info.RunID, &info.SourceURL, &info.Requested, &info.Loaded, &info.Dropped, &info.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no corpus loaded")
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
