package corpus

import (
	"strings"
	"testing"
)

func TestParseTSV_TwoColumn(t *testing.T) {
	input := "Wo ist der Bahnhof?\tWhere is the train station?\n" +
		"Guten Morgen.\tGood morning.\n"
	pairs, dropped, err := ParseTSV(strings.NewReader(input), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 || dropped != 0 {
		t.Fatalf("got %d pairs, %d dropped", len(pairs), dropped)
	}
	if pairs[0].ID != 0 || pairs[1].ID != 1 {
		t.Errorf("IDs must be ordinals: %d, %d", pairs[0].ID, pairs[1].ID)
	}
	if pairs[0].SourceText != "Wo ist der Bahnhof?" || pairs[0].TargetText != "Where is the train station?" {
		t.Errorf("unexpected pair: %+v", pairs[0])
	}
}

func TestParseTSV_FourColumnTatoebaExport(t *testing.T) {
	input := "1234\tGuten Morgen.\t5678\tGood morning.\n"
	pairs, dropped, err := ParseTSV(strings.NewReader(input), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 || dropped != 0 {
		t.Fatalf("got %d pairs, %d dropped", len(pairs), dropped)
	}
	if pairs[0].SourceText != "Guten Morgen." || pairs[0].TargetText != "Good morning." {
		t.Errorf("unexpected pair: %+v", pairs[0])
	}
	// Export IDs are ignored; ordinals keep index alignment.
	if pairs[0].ID != 0 {
		t.Errorf("ID = %d, want ordinal 0", pairs[0].ID)
	}
}

func TestParseTSV_DropsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"Guten Morgen.\tGood morning.",
		"nur eine Spalte",
		"\tmissing source",
		"missing target\t",
		"a\tb\tc",
		"Danke.\tThank you.",
	}, "\n") + "\n"
	pairs, dropped, err := ParseTSV(strings.NewReader(input), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 {
		t.Errorf("got %d pairs, want 2", len(pairs))
	}
	if dropped != 4 {
		t.Errorf("dropped = %d, want 4", dropped)
	}
}

func TestParseTSV_Limit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Satz.\tSentence.\n")
	}
	pairs, _, err := ParseTSV(strings.NewReader(b.String()), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 5 {
		t.Errorf("limit not applied: got %d pairs", len(pairs))
	}
}

func TestParseTSV_Empty(t *testing.T) {
	pairs, dropped, err := ParseTSV(strings.NewReader(""), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 0 || dropped != 0 {
		t.Errorf("empty input: %d pairs, %d dropped", len(pairs), dropped)
	}
}
