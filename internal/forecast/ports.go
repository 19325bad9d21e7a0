// Package forecast turns an event, retrieved evidence and an ensemble of
// doctrine agents into a bounded probability forecast, and persists
// forecasts and their outcomes.
package forecast

import (
	"context"

	"github.com/ziadkadry99/foresight/internal/model"
)

// LLMClient sends a single prompt to a language model and returns its text.
// systemPrompt may be empty.
type LLMClient interface {
	Call(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// DoctrineAgent analyzes a question through the lens of one strategic
// doctrine. ID must be stable across calls.
type DoctrineAgent interface {
	ID() string
	Analyze(ctx context.Context, question string, evidence []model.Evidence) (string, error)
}

// EvidenceRetriever returns up to topK evidence items relevant to query.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]model.Evidence, error)
}
