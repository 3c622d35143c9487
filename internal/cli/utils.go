// Package cli provides CLI utilities for Kotae.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// AskOutputFormat is the format for answer output.
type AskOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText AskOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON AskOutputFormat = "json"
)

// WriteAskResponse writes an answer to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAskResponse(w io.Writer, response *models.AskResponse, format AskOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeAskResponseText(w, response)
		return nil
	}
}

func writeAskResponseText(w io.Writer, response *models.AskResponse) {
	fmt.Fprintf(w, "\n=== Answer ===\n%s\n", response.Answer)
	if response.Degraded {
		fmt.Fprintln(w, "(retrieval degraded: embedding provider unavailable)")
	}
	fmt.Fprintf(w, "\n=== Sources ===\n")
	for _, src := range response.Sources {
		line := src.URL
		if src.Title != "" {
			line = fmt.Sprintf("%s (%s)", src.URL, utils.Truncate(src.Title, 60))
		}
		fmt.Fprintf(w, "- %s [%.4f]\n", line, src.Score)
	}
	fmt.Fprintf(w, "\nAnswered in %dms\n", response.QueryTime)
}

// PrintAskResponse prints an answer to stdout in text format.
func PrintAskResponse(response *models.AskResponse) {
	_ = WriteAskResponse(os.Stdout, response, OutputText)
}
