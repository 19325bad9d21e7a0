package evidence

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ziadkadry99/foresight/internal/model"
)

const snippetLength = 500

// Retriever turns passage search results into forecast evidence.
type Retriever struct {
	store Store
}

func NewRetriever(store Store) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to topK evidence items for query. Sources are
// "<doctrine> (<source>)" for doctrine passages and snippets are capped at
// 500 characters.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]model.Evidence, error) {
	results, err := r.store.Search(ctx, query, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("searching evidence: %w", err)
	}
	evidence := make([]model.Evidence, len(results))
	for i, res := range results {
		evidence[i] = toEvidence(res)
	}
	return evidence, nil
}

// SearchDoctrine returns the content of up to limit passages ingested for
// the given doctrine.
func (r *Retriever) SearchDoctrine(ctx context.Context, doctrineID, query string, limit int) ([]string, error) {
	results, err := r.store.Search(ctx, query, limit, &Filter{DoctrineID: &doctrineID})
	if err != nil {
		return nil, fmt.Errorf("searching doctrine passages: %w", err)
	}
	passages := make([]string, len(results))
	for i, res := range results {
		passages[i] = truncate(res.Passage.Content, snippetLength)
	}
	return passages, nil
}

func toEvidence(res SearchResult) model.Evidence {
	md := res.Passage.Metadata
	source := md.Source
	if source == "" {
		source = "unknown"
	}
	if md.DoctrineID != "" {
		source = fmt.Sprintf("%s (%s)", md.DoctrineID, source)
	}
	return model.Evidence{
		Source:         source,
		Snippet:        truncate(res.Passage.Content, snippetLength),
		RelevanceScore: clamp01(float64(res.Similarity)),
	}
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
