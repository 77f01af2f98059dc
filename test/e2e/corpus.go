// Package e2e provides end-to-end tests over a generated parallel corpus.
package e2e

import (
	"fmt"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
)

// QueryTestCase defines a query and the pair ID that must be ranked first.
// With the deterministic mock embedder, querying a corpus sentence verbatim
// makes that sentence its own nearest neighbor.
type QueryTestCase struct {
	Query          string
	ExpectedPairID int64
	Description    string
}

// Corpus holds sentence pairs and query test cases for E2E tests.
type Corpus struct {
	Pairs     []*models.SentencePair
	TestCases []QueryTestCase
}

// seedPairs are hand-written pairs covering everyday phrasebook territory.
// Generated filler pairs are appended to reach the requested corpus size.
var seedPairs = [][2]string{
	{"Wo ist der Bahnhof?", "Where is the train station?"},
	{"Guten Morgen.", "Good morning."},
	{"Ich habe Hunger.", "I am hungry."},
	{"Wie viel kostet das?", "How much does that cost?"},
	{"Ich verstehe nicht.", "I do not understand."},
	{"Können Sie mir helfen?", "Can you help me?"},
	{"Das Wetter ist heute schön.", "The weather is nice today."},
	{"Ich hätte gern einen Kaffee.", "I would like a coffee."},
	{"Wann fährt der nächste Zug?", "When does the next train leave?"},
	{"Es tut mir leid.", "I am sorry."},
}

// BuildCorpus returns a corpus of n sentence pairs with query test cases.
// IDs are ordinal, matching the loader's positional assignment.
func BuildCorpus(n int) *Corpus {
	pairs := make([]*models.SentencePair, 0, n)
	for i := 0; i < n; i++ {
		var source, target string
		if i < len(seedPairs) {
			source, target = seedPairs[i][0], seedPairs[i][1]
		} else {
			source = fmt.Sprintf("Der %d. Satz steht hier.", i)
			target = fmt.Sprintf("Sentence number %d goes here.", i)
		}
		pairs = append(pairs, &models.SentencePair{
			ID:         int64(i),
			SourceText: source,
			TargetText: target,
		})
	}

	cases := make([]QueryTestCase, 0, len(seedPairs))
	for i, seed := range seedPairs {
		if i >= n {
			break
		}
		cases = append(cases, QueryTestCase{
			Query:          seed[0],
			ExpectedPairID: int64(i),
			Description:    fmt.Sprintf("verbatim sentence %d is its own nearest neighbor", i),
		})
	}
	return &Corpus{Pairs: pairs, TestCases: cases}
}
