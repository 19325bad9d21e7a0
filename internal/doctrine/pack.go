// Package doctrine loads doctrine packs and adapts them into council agents.
package doctrine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/foresight/internal/model"
)

// ErrInvalidPack is returned for pack files that cannot be read or decoded.
var ErrInvalidPack = errors.New("invalid doctrine pack")

const packPattern = "**/*.{json,yaml,yml}"

// packFile is the on-disk shape of a pack. The id comes from the file name.
type packFile struct {
	Name             string   `json:"name" yaml:"name"`
	Principles       []string `json:"principles" yaml:"principles"`
	Heuristics       []string `json:"heuristics" yaml:"heuristics"`
	FailureModes     []string `json:"failure_modes" yaml:"failure_modes"`
	RecommendedTools []string `json:"recommended_tools" yaml:"recommended_tools"`
	DomainFit        []string `json:"domain_fit" yaml:"domain_fit"`
}

// LoadPack reads a JSON or YAML pack. The pack id is the file name without
// extension and the name defaults to the id in title case. Unknown domain_fit
// values are dropped.
func LoadPack(path string) (model.DoctrinePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DoctrinePack{}, fmt.Errorf("%w: %s: %v", ErrInvalidPack, path, err)
	}

	var raw packFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return model.DoctrinePack{}, fmt.Errorf("%w: %s: %v", ErrInvalidPack, path, err)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := raw.Name
	if name == "" {
		name = titleCase(id)
	}

	var domains []model.Domain
	for _, d := range raw.DomainFit {
		if parsed, err := model.ParseDomain(strings.ToLower(strings.TrimSpace(d))); err == nil {
			domains = append(domains, parsed)
		}
	}

	return model.DoctrinePack{
		DoctrineID:       id,
		Name:             name,
		Principles:       orEmpty(raw.Principles),
		Heuristics:       orEmpty(raw.Heuristics),
		FailureModes:     orEmpty(raw.FailureModes),
		RecommendedTools: orEmpty(raw.RecommendedTools),
		DomainFit:        domains,
	}, nil
}

// LoadDir loads every pack under dir in path order. Invalid packs are logged
// and skipped, and a missing directory yields no packs.
func LoadDir(dir string, logger *slog.Logger) ([]model.DoctrinePack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		logger.Warn("doctrine directory not found", "dir", dir)
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), packPattern)
	if err != nil {
		return nil, fmt.Errorf("globbing doctrine packs: %w", err)
	}
	sort.Strings(matches)

	var packs []model.DoctrinePack
	for _, m := range matches {
		pack, err := LoadPack(filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			logger.Warn("skipping invalid doctrine pack", "path", m, "error", err)
			continue
		}
		packs = append(packs, pack)
	}
	logger.Info("loaded doctrine packs", "count", len(packs))
	return packs, nil
}

// Select returns the packs named by ids in the order given. An empty ids
// list selects every pack.
func Select(packs []model.DoctrinePack, ids []string) ([]model.DoctrinePack, error) {
	if len(ids) == 0 {
		return packs, nil
	}
	byID := make(map[string]model.DoctrinePack, len(packs))
	for _, p := range packs {
		byID[p.DoctrineID] = p
	}
	selected := make([]model.DoctrinePack, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown doctrine %q", id)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// ForDomain returns the packs that declare fit for d.
func ForDomain(packs []model.DoctrinePack, d model.Domain) []model.DoctrinePack {
	var out []model.DoctrinePack
	for _, p := range packs {
		if p.Fits(d) {
			out = append(out, p)
		}
	}
	return out
}

func titleCase(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
