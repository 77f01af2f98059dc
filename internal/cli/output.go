// Package cli provides output formatting for the kreuzsuche command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
	"github.com/kreuzlingo/kreuzsuche/pkg/utils"
)

// OutputFormat selects how search results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\n%d result(s) in %dms for %q\n\n", response.Total, response.QueryTime, response.Query)
	for _, result := range response.Results {
		fmt.Fprintf(w, "%2d. [%.4f] %s\n", result.Rank, result.Distance, utils.Truncate(result.Pair.SourceText, 200))
		fmt.Fprintf(w, "    → %s\n\n", utils.Truncate(result.Pair.TargetText, 200))
	}
}
