package search

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kreuzlingo/kreuzsuche/internal/config"
	"github.com/kreuzlingo/kreuzsuche/internal/embedding"
	"github.com/kreuzlingo/kreuzsuche/internal/models"
	"github.com/kreuzlingo/kreuzsuche/internal/storage"
	"github.com/kreuzlingo/kreuzsuche/internal/vector"
)

// newFixtureEngine builds an engine over a small in-memory corpus embedded
// with the deterministic mock embedder.
func newFixtureEngine(t *testing.T, sources, targets []string) *Engine {
	t.Helper()
	if len(sources) != len(targets) {
		t.Fatal("fixture sources/targets length mismatch")
	}
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	pairs := make([]*models.SentencePair, len(sources))
	for i := range sources {
		pairs[i] = &models.SentencePair{ID: int64(i), SourceText: sources[i], TargetText: targets[i]}
	}
	if err := store.ReplacePairs(ctx, pairs, nil); err != nil {
		t.Fatal(err)
	}

	embedder := embedding.NewMockEmbedder(16)
	idx, err := vector.NewFlatIndex(16)
	if err != nil {
		t.Fatal(err)
	}
	for _, pair := range pairs {
		vec, err := embedder.Embed(ctx, pair.SourceText)
		if err != nil {
			t.Fatal(err)
		}
		if err := idx.Add(ctx, []int64{pair.ID}, [][]float32{vec}); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.SearchConfig{DefaultTopK: 5, MaxTopK: 50}
	return NewEngine(store, embedder, idx, cfg)
}

func TestEngine_EmptyQuery(t *testing.T) {
	engine := newFixtureEngine(t, []string{"Hallo."}, []string{"Hello."})
	_, err := engine.Search(context.Background(), &models.SearchQuery{Query: "   "})
	if !errors.Is(err, models.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestEngine_TopKLargerThanCorpus(t *testing.T) {
	engine := newFixtureEngine(t,
		[]string{"Eins.", "Zwei.", "Drei."},
		[]string{"One.", "Two.", "Three."},
	)
	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "numbers", TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3 (corpus size)", resp.Total)
	}
}

func TestEngine_ResultsOrderedAndRanked(t *testing.T) {
	engine := newFixtureEngine(t,
		[]string{"Eins.", "Zwei.", "Drei.", "Vier."},
		[]string{"One.", "Two.", "Three.", "Four."},
	)
	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "Zwei.", TopK: 4})
	if err != nil {
		t.Fatal(err)
	}
	for i, result := range resp.Results {
		if result.Rank != i+1 {
			t.Errorf("rank at %d = %d", i, result.Rank)
		}
		if i > 0 && resp.Results[i-1].Distance > result.Distance {
			t.Errorf("distances not ascending at %d", i)
		}
	}
	// Mock embedder maps equal text to equal vectors, so the exact German
	// sentence is its own nearest neighbor.
	if resp.Results[0].Pair.SourceText != "Zwei." {
		t.Errorf("top result = %q", resp.Results[0].Pair.SourceText)
	}
	if resp.Results[0].Pair.TargetText != "Two." {
		t.Errorf("top translation = %q", resp.Results[0].Pair.TargetText)
	}
}

func TestEngine_RepeatedQueryIsStable(t *testing.T) {
	engine := newFixtureEngine(t,
		[]string{"Eins.", "Zwei.", "Drei."},
		[]string{"One.", "Two.", "Three."},
	)
	ctx := context.Background()
	first, err := engine.Search(ctx, &models.SearchQuery{Query: "where is the station", TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Search(ctx, &models.SearchQuery{Query: "where is the station", TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	strip := func(r *models.SearchResponse) []struct {
		ID       int64
		Distance float64
	} {
		out := make([]struct {
			ID       int64
			Distance float64
		}, len(r.Results))
		for i, res := range r.Results {
			out[i].ID = res.Pair.ID
			out[i].Distance = res.Distance
		}
		return out
	}
	if !reflect.DeepEqual(strip(first), strip(second)) {
		t.Error("same query must return identical ordered results")
	}
}

func TestEngine_RoundTripSingleEntry(t *testing.T) {
	// With a single-pair corpus, any query returns that pair as top-1; the
	// cross-lingual property itself needs the real model, which tests do not load.
	engine := newFixtureEngine(t,
		[]string{"Wo ist der Bahnhof?"},
		[]string{"Where is the train station?"},
	)
	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "Where is the train station?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].Pair.SourceText != "Wo ist der Bahnhof?" {
		t.Fatalf("round trip failed: %+v", resp)
	}
	if resp.Results[0].Rank != 1 {
		t.Errorf("rank = %d, want 1", resp.Results[0].Rank)
	}
}

func TestEngine_DefaultTopK(t *testing.T) {
	sources := make([]string, 10)
	targets := make([]string, 10)
	for i := range sources {
		sources[i] = "Satz " + string(rune('a'+i))
		targets[i] = "Sentence " + string(rune('a'+i))
	}
	engine := newFixtureEngine(t, sources, targets)
	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 5 {
		t.Errorf("default top-k should be 5, got %d", resp.Total)
	}
}
