package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testPairs() []*models.SentencePair {
	return []*models.SentencePair{
		{ID: 0, SourceText: "Wo ist der Bahnhof?", TargetText: "Where is the train station?"},
		{ID: 1, SourceText: "Guten Morgen.", TargetText: "Good morning."},
		{ID: 2, SourceText: "Ich habe Hunger.", TargetText: "I am hungry."},
	}
}

func testInfo(loaded int) *models.CorpusInfo {
	return &models.CorpusInfo{
		RunID:     uuid.NewString(),
		SourceURL: "https://example.org/deu-eng.tsv",
		Requested: 10,
		Loaded:    loaded,
		Dropped:   10 - loaded,
		FetchedAt: time.Now(),
	}
}

func TestSQLiteStore_ReplaceAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplacePairs(ctx, testPairs(), testInfo(3)); err != nil {
		t.Fatal(err)
	}

	count, err := store.CountPairs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountPairs = %d, want 3", count)
	}

	pair, err := store.GetPair(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if pair.SourceText != "Guten Morgen." || pair.TargetText != "Good morning." {
		t.Errorf("unexpected pair: %+v", pair)
	}

	if _, err := store.GetPair(ctx, 99); err == nil {
		t.Error("expected error for missing pair")
	}
}

func TestSQLiteStore_ReplaceDropsOldCorpusAndEmbeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplacePairs(ctx, testPairs(), testInfo(3)); err != nil {
		t.Fatal(err)
	}
	if err := store.PutEmbeddings(ctx, []int64{0, 1, 2}, [][]float32{{1}, {2}, {3}}); err != nil {
		t.Fatal(err)
	}

	replacement := []*models.SentencePair{
		{ID: 0, SourceText: "Hallo.", TargetText: "Hello."},
	}
	if err := store.ReplacePairs(ctx, replacement, testInfo(1)); err != nil {
		t.Fatal(err)
	}

	count, _ := store.CountPairs(ctx)
	if count != 1 {
		t.Errorf("CountPairs after replace = %d, want 1", count)
	}
	embCount, _ := store.CountEmbeddings(ctx)
	if embCount != 0 {
		t.Errorf("embeddings should be dropped on replace, got %d", embCount)
	}
}

func TestSQLiteStore_GetPairsByIDsPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.ReplacePairs(ctx, testPairs(), testInfo(3)); err != nil {
		t.Fatal(err)
	}

	pairs, err := store.GetPairsByIDs(ctx, []int64{2, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	got := []int64{pairs[0].ID, pairs[1].ID, pairs[2].ID}
	if !reflect.DeepEqual(got, []int64{2, 0, 1}) {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestSQLiteStore_Embeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.ReplacePairs(ctx, testPairs(), testInfo(3)); err != nil {
		t.Fatal(err)
	}

	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	if err := store.PutEmbeddings(ctx, []int64{0, 1, 2}, vectors); err != nil {
		t.Fatal(err)
	}

	vec, err := store.GetEmbedding(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(vec, []float32{0.3, 0.4}) {
		t.Errorf("GetEmbedding = %v", vec)
	}

	var walked []int64
	err = store.WalkEmbeddings(ctx, func(id int64, v []float32) error {
		walked = append(walked, id)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(walked, []int64{0, 1, 2}) {
		t.Errorf("walk order = %v, want ascending IDs", walked)
	}

	count, _ := store.CountEmbeddings(ctx)
	if count != 3 {
		t.Errorf("CountEmbeddings = %d, want 3", count)
	}

	if err := store.ClearEmbeddings(ctx); err != nil {
		t.Fatal(err)
	}
	count, _ = store.CountEmbeddings(ctx)
	if count != 0 {
		t.Errorf("CountEmbeddings after clear = %d, want 0", count)
	}
}

func TestSQLiteStore_CorpusInfo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.CorpusInfo(ctx); err == nil {
		t.Error("expected error before any corpus load")
	}

	want := testInfo(3)
	if err := store.ReplacePairs(ctx, testPairs(), want); err != nil {
		t.Fatal(err)
	}
	info, err := store.CorpusInfo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.RunID != want.RunID || info.Loaded != 3 || info.Dropped != 7 {
		t.Errorf("unexpected info: %+v", info)
	}
}
