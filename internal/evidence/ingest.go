package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultChunkSize is the target passage length in characters.
const DefaultChunkSize = 1000

// DefaultInclude lists the file patterns ingested when none are given.
var DefaultInclude = []string{"**/*.txt", "**/*.md"}

// IngestOptions controls which files are read and how they are chunked.
type IngestOptions struct {
	Include    []string
	Exclude    []string
	DoctrineID string
	ChunkSize  int
	// OnFile is called after each file is indexed. It may be nil.
	OnFile func(path string, chunks int)
}

// IngestStats summarizes an ingestion run.
type IngestStats struct {
	Files    int
	Passages int
}

// Ingest reads matching text files under root, splits them into passages and
// adds them to store. Re-ingesting a file replaces its earlier passages.
func Ingest(ctx context.Context, store Store, root string, opts IngestOptions) (IngestStats, error) {
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	paths, err := matchFiles(root, include, opts.Exclude)
	if err != nil {
		return IngestStats{}, err
	}

	var stats IngestStats
	now := time.Now().UTC()
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", rel, err)
		}

		source := filepath.ToSlash(rel)
		if err := store.DeleteBySource(ctx, source); err != nil {
			return stats, fmt.Errorf("clearing %s: %w", source, err)
		}

		chunks := Chunk(string(data), size)
		passages := make([]Passage, len(chunks))
		for i, c := range chunks {
			sum := sha256.Sum256([]byte(c))
			hash := hex.EncodeToString(sum[:])
			passages[i] = Passage{
				ID:      fmt.Sprintf("%s#%d", source, i),
				Content: c,
				Metadata: Metadata{
					Source:      source,
					DoctrineID:  opts.DoctrineID,
					Chunk:       i,
					ContentHash: hash,
					IngestedAt:  now,
				},
			}
		}
		if err := store.Add(ctx, passages); err != nil {
			return stats, fmt.Errorf("indexing %s: %w", source, err)
		}

		stats.Files++
		stats.Passages += len(passages)
		if opts.OnFile != nil {
			opts.OnFile(source, len(passages))
		}
	}
	return stats, nil
}

func matchFiles(root string, include, exclude []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchesAny(exclude, rel) || !matchesAny(include, rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Chunk splits text into passages of at most size characters, breaking on
// paragraph boundaries where possible. Paragraphs longer than size are split
// on whitespace, and words longer than size are cut.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}
	add := func(piece, sep string) {
		n := utf8.RuneCountInString(piece)
		if curLen > 0 && curLen+utf8.RuneCountInString(sep)+n > size {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += utf8.RuneCountInString(sep)
		}
		cur.WriteString(piece)
		curLen += n
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			add(para, "\n\n")
			continue
		}
		flush()
		for _, word := range strings.Fields(para) {
			for utf8.RuneCountInString(word) > size {
				r := []rune(word)
				add(string(r[:size]), " ")
				word = string(r[size:])
			}
			add(word, " ")
		}
		flush()
	}
	flush()
	return chunks
}
