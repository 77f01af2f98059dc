package vector

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := idx.Add(ctx, []int64{0, 1, 2}, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size = %d, want 3", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 0 {
		t.Errorf("nearest should be id 0, got %d", results[0].ID)
	}
	if results[0].Distance > results[1].Distance {
		t.Errorf("results not ascending: %v", results)
	}
	if results[0].Distance != 0 {
		t.Errorf("exact match distance = %f, want 0", results[0].Distance)
	}
}

func TestFlatIndex_KLargerThanSize(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	vecs := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	if err := idx.Add(ctx, []int64{0, 1, 2}, vecs); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("k=5 over 3 vectors should return 3 results, got %d", len(results))
	}
}

func TestFlatIndex_TieBreakByLowerID(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	// Two identical vectors at equal distance from any query.
	same := []float32{0, 1}
	if err := idx.Add(ctx, []int64{0, 1}, [][]float32{same, same}); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ID != 0 || results[1].ID != 1 {
		t.Errorf("equal distances must order by lower ID, got %v", results)
	}
}

func TestFlatIndex_RebuildDeterminism(t *testing.T) {
	vecs := [][]float32{
		{0.2, 0.8, 0}, {0.5, 0.5, 0}, {0.9, 0.1, 0}, {0, 0, 1},
	}
	ids := []int64{0, 1, 2, 3}
	query := []float32{0.6, 0.4, 0}
	ctx := context.Background()

	build := func() []Result {
		idx, err := NewFlatIndex(3)
		if err != nil {
			t.Fatal(err)
		}
		defer idx.Close()
		if err := idx.Add(ctx, ids, vecs); err != nil {
			t.Fatal(err)
		}
		results, err := idx.Search(ctx, query, 4)
		if err != nil {
			t.Fatal(err)
		}
		return results
	}

	first, second := build(), build()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rebuild produced different ordering:\n%v\n%v", first, second)
	}
}

func TestFlatIndex_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx", "sentences.vec")
	ctx := context.Background()

	idx, _ := NewFlatIndex(3)
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if err := idx.Add(ctx, []int64{0, 1, 2}, vecs); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	want, err := idx.Search(ctx, []float32{0.7, 0.7, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewFlatIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 3 {
		t.Fatalf("loaded size = %d, want 3", loaded.Size())
	}
	got, err := loaded.Search(ctx, []float32{0.7, 0.7, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("loaded index search differs:\ngot  %v\nwant %v", got, want)
	}
}

func TestFlatIndex_LoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentences.vec")
	ctx := context.Background()

	idx, _ := NewFlatIndex(3)
	if err := idx.Add(ctx, []int64{0}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	other, _ := NewFlatIndex(4)
	if err := other.Load(path); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestFlatIndex_LoadMissingFileIsNoop(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	if err := idx.Load(filepath.Join(t.TempDir(), "absent.vec")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size = %d, want 0", idx.Size())
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	ctx := context.Background()
	if err := idx.Add(ctx, []int64{0}, [][]float32{{1, 0}}); err == nil {
		t.Error("Add with wrong dimension should error")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("Search with wrong dimension should error")
	}
}
