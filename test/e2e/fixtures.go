// Package e2e provides end-to-end tests; this file serves the corpus over HTTP
// in the two TSV layouts the loader accepts.
package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
)

// RenderTSV renders pairs as two-column source<TAB>target lines.
func RenderTSV(pairs []*models.SentencePair) string {
	var sb strings.Builder
	for _, pair := range pairs {
		sb.WriteString(pair.SourceText)
		sb.WriteByte('\t')
		sb.WriteString(pair.TargetText)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RenderTatoebaTSV renders pairs in the four-column Tatoeba export layout
// (sentence id, sentence, translation id, translation).
func RenderTatoebaTSV(pairs []*models.SentencePair) string {
	var sb strings.Builder
	for i, pair := range pairs {
		fmt.Fprintf(&sb, "%d\t%s\t%d\t%s\n", 1000+i, pair.SourceText, 2000+i, pair.TargetText)
	}
	return sb.String()
}

// ServeCorpus starts a test HTTP server that responds to every request with
// the given TSV body. The server is closed when the test finishes.
func ServeCorpus(t *testing.T, tsv string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tsv))
	}))
	t.Cleanup(server.Close)
	return server
}
