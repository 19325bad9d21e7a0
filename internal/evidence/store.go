// Package evidence indexes source passages in a vector store and retrieves
// them as forecast evidence.
package evidence

import (
	"context"
	"time"
)

// Passage is one chunk of an ingested source document.
type Passage struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Metadata describes where a passage came from.
type Metadata struct {
	Source      string
	DoctrineID  string
	Chunk       int
	ContentHash string
	IngestedAt  time.Time
}

// SearchResult pairs a passage with its cosine similarity to the query.
type SearchResult struct {
	Passage    Passage
	Similarity float32
}

// Filter narrows a search by metadata. Nil fields match everything.
type Filter struct {
	DoctrineID *string
	Source     *string
}

// Store indexes passages for semantic search.
type Store interface {
	// Add adds or replaces passages.
	Add(ctx context.Context, passages []Passage) error

	// Search returns up to limit passages closest to query.
	Search(ctx context.Context, query string, limit int, filter *Filter) ([]SearchResult, error)

	// DeleteBySource removes every passage ingested from source.
	DeleteBySource(ctx context.Context, source string) error

	// Persist saves the index under dir.
	Persist(ctx context.Context, dir string) error

	// Load restores an index saved by Persist.
	Load(ctx context.Context, dir string) error

	Count() int
}
