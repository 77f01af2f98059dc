// Package corpus fetches and parses the German-English parallel sentence corpus.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
)

// ParseTSV reads tab-separated sentence pairs from r and returns up to limit
// pairs plus the number of dropped rows. Two row shapes are accepted:
//
//	source \t target
//	id \t source \t id \t target   (Tatoeba pair export)
//
// Rows with any other field count, or with an empty side, are dropped and
// counted, never fatal. IDs are assigned as ordinals in file order so that
// embeddings and index positions align with the pair sequence. limit <= 0
// means no limit.
func ParseTSV(r io.Reader, limit int) ([]*models.SentencePair, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var pairs []*models.SentencePair
	dropped := 0
	for limit <= 0 || len(pairs) < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read corpus row: %w", err)
		}

		source, target, ok := splitRecord(record)
		if !ok {
			dropped++
			continue
		}
		pairs = append(pairs, &models.SentencePair{
			ID:         int64(len(pairs)),
			SourceText: source,
			TargetText: target,
		})
	}
	return pairs, dropped, nil
}

// splitRecord extracts (source, target) from a TSV record, reporting false
// for rows that do not form a usable pair.
func splitRecord(record []string) (string, string, bool) {
	var source, target string
	switch len(record) {
	case 2:
		source, target = record[0], record[1]
	case 4:
		source, target = record[1], record[3]
	default:
		return "", "", false
	}
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}
