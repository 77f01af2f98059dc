package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("got %v", v)
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("norm = %f", norm)
	}
}

func TestNormalizeL2_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	NormalizeL2(v)
	for i, x := range v {
		if x != 0 {
			t.Errorf("component %d changed to %f", i, x)
		}
	}
}
