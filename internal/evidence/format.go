package evidence

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/foresight/internal/model"
)

// FormatEvidence renders evidence as human-readable text.
func FormatEvidence(items []model.Evidence) string {
	if len(items) == 0 {
		return "No evidence found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d item(s):\n\n", len(items)))
	for i, e := range items {
		sb.WriteString(fmt.Sprintf("--- Evidence %d (relevance: %.4f) ---\n", i+1, e.RelevanceScore))
		sb.WriteString(fmt.Sprintf("Source: %s\n\n", e.Source))
		sb.WriteString(e.Snippet)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
