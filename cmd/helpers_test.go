package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer event description", 10, "a longe..."},
		{"Überschreitung der Grenze", 8, "Übers..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestLoadEvidence(t *testing.T) {
	items, err := loadEvidence("")
	if err != nil || items != nil {
		t.Fatalf("empty path: got %v, %v", items, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "evidence.json")
	data := `[{"source":"wire","snippet":"troops massing","relevance_score":0.8}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err = loadEvidence(path)
	if err != nil {
		t.Fatalf("loadEvidence: %v", err)
	}
	if len(items) != 1 || items[0].Source != "wire" || items[0].RelevanceScore != 0.8 {
		t.Errorf("items = %+v", items)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	if _, err := loadEvidence(bad); err == nil {
		t.Error("expected a decode error")
	}
	if _, err := loadEvidence(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected a read error")
	}
}

func TestPluralY(t *testing.T) {
	if pluralY(1) != "y" || pluralY(0) != "ies" || pluralY(2) != "ies" {
		t.Error("unexpected plural suffix")
	}
}
