package embedding

import (
	"reflect"
	"testing"
)

func TestHashTokenizer_Encode(t *testing.T) {
	tok := &HashTokenizer{}
	ids, mask, types := tok.Encode("Wo ist der Bahnhof", 16)

	if len(ids) != 16 || len(mask) != 16 || len(types) != 16 {
		t.Fatalf("lengths: %d %d %d, want 16", len(ids), len(mask), len(types))
	}
	if ids[0] != tokenBOS {
		t.Errorf("first token = %d, want BOS", ids[0])
	}
	if ids[5] != tokenEOS {
		t.Errorf("token after 4 words = %d, want EOS", ids[5])
	}
	for i := 0; i < 6; i++ {
		if mask[i] != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, mask[i])
		}
	}
	for i := 6; i < 16; i++ {
		if mask[i] != 0 || ids[i] != tokenPad {
			t.Errorf("position %d should be padding: id=%d mask=%d", i, ids[i], mask[i])
		}
	}
	for i, tt := range types {
		if tt != 0 {
			t.Errorf("token_type_ids[%d] = %d, want 0", i, tt)
		}
	}
}

func TestHashTokenizer_Deterministic(t *testing.T) {
	tok := &HashTokenizer{}
	a, am, _ := tok.Encode("guten morgen", 8)
	b, bm, _ := tok.Encode("guten morgen", 8)
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(am, bm) {
		t.Error("same text must tokenize identically")
	}
}

func TestHashTokenizer_CaseInsensitive(t *testing.T) {
	tok := &HashTokenizer{}
	a, _, _ := tok.Encode("Hallo Welt", 8)
	b, _, _ := tok.Encode("hallo welt", 8)
	if !reflect.DeepEqual(a, b) {
		t.Error("tokenization should lowercase input")
	}
}

func TestHashTokenizer_Truncates(t *testing.T) {
	tok := &HashTokenizer{}
	ids, mask, _ := tok.Encode("eins zwei drei vier fuenf sechs", 4)
	if len(ids) != 4 {
		t.Fatalf("len = %d, want 4", len(ids))
	}
	if ids[3] != tokenEOS || mask[3] != 1 {
		t.Errorf("last slot should be EOS, got id=%d mask=%d", ids[3], mask[3])
	}
}

func TestHashTokenID_InVocabRange(t *testing.T) {
	for _, w := range []string{"a", "bahnhof", "straße", "日本語"} {
		id := hashTokenID(w)
		if id < firstRegularID || id >= vocabSize {
			t.Errorf("hashTokenID(%q) = %d out of range", w, id)
		}
	}
}
