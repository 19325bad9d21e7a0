package doctrine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/foresight/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadPackJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sun_tzu.json")
	writeFile(t, path, `{"principles":["Know the enemy"],"domain_fit":["Military","maritime","GEOPOLITICS"]}`)

	p, err := LoadPack(path)
	require.NoError(t, err)
	assert.Equal(t, "sun_tzu", p.DoctrineID)
	assert.Equal(t, "Sun Tzu", p.Name)
	assert.Equal(t, []string{"Know the enemy"}, p.Principles)
	assert.Equal(t, []string{}, p.Heuristics)
	assert.Equal(t, []model.Domain{model.DomainMilitary, model.DomainGeopolitics}, p.DomainFit)
}

func TestLoadPackYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mahan.yaml")
	writeFile(t, path, "name: Mahan on Sea Power\nheuristics:\n  - Control chokepoints\ndomain_fit: [military]\n")

	p, err := LoadPack(path)
	require.NoError(t, err)
	assert.Equal(t, "Mahan on Sea Power", p.Name)
	assert.Equal(t, []string{"Control chokepoints"}, p.Heuristics)
}

func TestLoadPackInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{not json`)
	_, err := LoadPack(bad)
	assert.ErrorIs(t, err, ErrInvalidPack)

	_, err = LoadPack(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrInvalidPack)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_doctrine.json"), `{"name":"B"}`)
	writeFile(t, filepath.Join(dir, "a_doctrine.yml"), "name: A\n")
	writeFile(t, filepath.Join(dir, "nested", "c.yaml"), "name: C\n")
	writeFile(t, filepath.Join(dir, "broken.json"), `[`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	packs, err := LoadDir(dir, quietLogger())
	require.NoError(t, err)
	var ids []string
	for _, p := range packs {
		ids = append(ids, p.DoctrineID)
	}
	assert.Equal(t, []string{"a_doctrine", "b_doctrine", "c"}, ids)

	packs, err = LoadDir(filepath.Join(dir, "nope"), quietLogger())
	require.NoError(t, err)
	assert.Empty(t, packs)
}

func TestSelectAndForDomain(t *testing.T) {
	packs := []model.DoctrinePack{
		{DoctrineID: "a", DomainFit: []model.Domain{model.DomainCyber}},
		{DoctrineID: "b", DomainFit: []model.Domain{model.DomainEconomic}},
	}

	all, err := Select(packs, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sel, err := Select(packs, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, "b", sel[0].DoctrineID)

	_, err = Select(packs, []string{"zzz"})
	assert.Error(t, err)

	cyber := ForDomain(packs, model.DomainCyber)
	require.Len(t, cyber, 1)
	assert.Equal(t, "a", cyber[0].DoctrineID)
}

type recordingLLM struct {
	prompt string
	err    error
}

func (r *recordingLLM) Call(_ context.Context, prompt, _ string) (string, error) {
	r.prompt = prompt
	return "analysis", r.err
}

type fakePassages struct {
	passages []string
	err      error
	gotID    string
}

func (f *fakePassages) SearchDoctrine(_ context.Context, doctrineID, _ string, _ int) ([]string, error) {
	f.gotID = doctrineID
	return f.passages, f.err
}

func TestAgentPrompt(t *testing.T) {
	pack := model.DoctrinePack{
		DoctrineID: "clausewitz",
		Name:       "Clausewitz",
		Principles: []string{"p1", "p2", "p3", "p4", "p5", "p6"},
	}
	llm := &recordingLLM{}
	passages := &fakePassages{passages: []string{"War is the continuation of policy."}}
	agent := NewAgent(llm, pack, passages, quietLogger())

	assert.Equal(t, "clausewitz", agent.ID())
	out, err := agent.Analyze(context.Background(), "- Will they escalate?", []model.Evidence{{Snippet: "troops massing"}})
	require.NoError(t, err)
	assert.Equal(t, "analysis", out)
	assert.Equal(t, "clausewitz", passages.gotID)

	assert.True(t, strings.HasPrefix(llm.prompt, "You are analyzing through the lens of Clausewitz.\n\n"))
	assert.Contains(t, llm.prompt, "- p5")
	assert.NotContains(t, llm.prompt, "- p6")
	assert.Contains(t, llm.prompt, "Evidence:\n- troops massing\n")
	assert.Contains(t, llm.prompt, "Source doctrine passages:\nWar is the continuation of policy.\n")
	assert.Contains(t, llm.prompt, "Question: - Will they escalate?")
}

func TestAgentPromptDefaultsAndPassageFailure(t *testing.T) {
	llm := &recordingLLM{}
	agent := NewAgent(llm, model.DoctrinePack{DoctrineID: "x", Name: "X"},
		&fakePassages{err: errors.New("index down")}, quietLogger())

	_, err := agent.Analyze(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Contains(t, llm.prompt, "No specific principles.")
	assert.Contains(t, llm.prompt, "No evidence provided.")
	assert.NotContains(t, llm.prompt, "Source doctrine passages")
}

func TestAgentPropagatesLLMError(t *testing.T) {
	boom := errors.New("timeout")
	agents := NewAgents(&recordingLLM{err: boom}, []model.DoctrinePack{{DoctrineID: "x"}}, nil, quietLogger())
	require.Len(t, agents, 1)
	_, err := agents[0].Analyze(context.Background(), "q", nil)
	assert.ErrorIs(t, err, boom)
}
