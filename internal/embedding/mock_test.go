package embedding

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "Wo ist der Bahnhof?")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "Wo ist der Bahnhof?")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same text must embed identically")
	}
	c, _ := e.Embed(ctx, "Guten Morgen")
	if reflect.DeepEqual(a, c) {
		t.Error("different texts should not collide")
	}
}

func TestMockEmbedder_DimensionsAndNorm(t *testing.T) {
	e := NewMockEmbedder(32)
	if e.Dimensions() != 32 {
		t.Errorf("Dimensions = %d, want 32", e.Dimensions())
	}
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 32 {
		t.Fatalf("len = %d, want 32", len(vec))
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Errorf("vector not unit length: %f", math.Sqrt(sum))
	}
}

func TestMockEmbedder_Batch(t *testing.T) {
	e := NewMockEmbedder(8)
	ctx := context.Background()
	texts := []string{"eins", "zwei", "drei"}
	vectors, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	single, _ := e.Embed(ctx, "zwei")
	if !reflect.DeepEqual(vectors[1], single) {
		t.Error("batch and single embedding must agree")
	}
}

func TestNormalizeL2_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	NormalizeL2(v)
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector should stay zero, got %v", v)
		}
	}
}
