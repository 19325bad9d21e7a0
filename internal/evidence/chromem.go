package evidence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/foresight/internal/embeddings"
)

const (
	collectionName = "evidence"
	indexFile      = "evidence.gob.gz"
)

// ChromemStore implements Store using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{db: db, collection: col, embedFunc: ef}, nil
}

func (s *ChromemStore) Add(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:       p.ID,
			Content:  p.Content,
			Metadata: metadataToMap(p.Metadata),
		}
	}
	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *Filter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)

	results, err := s.collection.Query(ctx, query, limit, buildWhere(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Passage: Passage{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	return s.collection.Delete(ctx, map[string]string{"source": source}, nil)
}

func (s *ChromemStore) Persist(_ context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, indexFile), true, "")
}

// Load restores a persisted index. A missing index file is not an error; the
// store simply stays empty.
func (s *ChromemStore) Load(_ context.Context, dir string) error {
	path := filepath.Join(dir, indexFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"source":       m.Source,
		"doctrine_id":  m.DoctrineID,
		"chunk":        strconv.Itoa(m.Chunk),
		"content_hash": m.ContentHash,
		"ingested_at":  m.IngestedAt.Format(time.RFC3339),
	}
}

func mapToMetadata(m map[string]string) Metadata {
	chunk, _ := strconv.Atoi(m["chunk"])
	ingested, _ := time.Parse(time.RFC3339, m["ingested_at"])
	return Metadata{
		Source:      m["source"],
		DoctrineID:  m["doctrine_id"],
		Chunk:       chunk,
		ContentHash: m["content_hash"],
		IngestedAt:  ingested,
	}
}

func buildWhere(filter *Filter) map[string]string {
	if filter == nil {
		return nil
	}
	where := make(map[string]string)
	if filter.DoctrineID != nil {
		where["doctrine_id"] = *filter.DoctrineID
	}
	if filter.Source != nil {
		where["source"] = *filter.Source
	}
	if len(where) == 0 {
		return nil
	}
	return where
}
