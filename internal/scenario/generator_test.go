package scenario

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/foresight/internal/model"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Call(_ context.Context, prompt, _ string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newGen(llm *fakeLLM) *Generator {
	return NewGenerator(llm,
		WithGeneratorLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithGeneratorClock(func() time.Time { return fixedNow }))
}

const threeScenarios = `## Negotiated settlement
Talks resume under mediation. Probability weight: 0.6
Key assumptions:
- Both sides face economic pressure
- Mediator remains credible
Early warning signals:
- prisoner exchange
- envoy visit

# Frozen conflict
Lines stabilize with sporadic shelling.

- Escalation
Major offensive in spring.`

func TestGenerateParsesSections(t *testing.T) {
	domain := model.DomainMilitary
	llm := &fakeLLM{reply: threeScenarios}

	got, err := newGen(llm).Generate(context.Background(), Request{Topic: "Border war", Domain: &domain, Count: 4})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Negotiated settlement", got[0].Title)
	assert.Equal(t, "Frozen conflict", got[1].Title)
	assert.Equal(t, "Escalation", got[2].Title)

	for _, sc := range got {
		assert.Equal(t, 0.25, sc.ProbabilityWeight, "model-stated weight must be ignored")
		assert.Equal(t, model.ScenarioActive, sc.Status)
		assert.Equal(t, model.DomainMilitary, *sc.Domain)
		assert.True(t, strings.HasPrefix(sc.ID, "sc_20261017_"))
	}
	assert.True(t, strings.HasPrefix(got[0].Narrative, "## Negotiated settlement"))

	assert.Equal(t, []string{"Both sides face economic pressure", "Mediator remains credible"}, got[0].KeyAssumptions)
	assert.Equal(t, []string{"prisoner exchange", "envoy visit"}, got[0].EarlyWarnings)
	require.Len(t, got[0].Signposts, 2)
	sp := got[0].Signposts[1]
	assert.Equal(t, "envoy visit", sp.Indicator)
	assert.Equal(t, got[0].ID, sp.ScenarioID)
	assert.Equal(t, model.SignpostNotSeen, sp.CurrentStatus)
	assert.Equal(t, model.NewSignpostID(got[0].ID, 2), sp.ID)

	assert.Empty(t, got[1].Signposts)
}

func TestGenerateTakesFirstNSections(t *testing.T) {
	llm := &fakeLLM{reply: "A one\n\n\n\nB two\n\nC three"}
	got, err := newGen(llm).Generate(context.Background(), Request{Topic: "t", Count: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A one", got[0].Title)
	assert.Equal(t, "B two", got[1].Title)
	assert.Equal(t, 0.5, got[0].ProbabilityWeight)
}

func TestGenerateFallback(t *testing.T) {
	llm := &fakeLLM{reply: "  \n\n  "}
	got, err := newGen(llm).Generate(context.Background(), Request{Topic: "Strait closure"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Baseline: Strait closure", got[0].Title)
	assert.Equal(t, 1.0, got[0].ProbabilityWeight)
	assert.Equal(t, "Status quo continues with no major disruption.", got[0].Narrative)
	assert.Nil(t, got[0].Domain)
}

func TestGeneratePrompt(t *testing.T) {
	llm := &fakeLLM{reply: "x"}
	ev := make([]model.Evidence, 10)
	for i := range ev {
		ev[i] = model.Evidence{Snippet: "fact"}
	}
	_, err := newGen(llm).Generate(context.Background(), Request{Topic: "T", Evidence: ev})
	require.NoError(t, err)
	assert.Contains(t, llm.prompt, "Generate 4 plausible future scenarios")
	assert.Equal(t, 8, strings.Count(llm.prompt, "- fact"))

	_, err = newGen(llm).Generate(context.Background(), Request{Topic: "T"})
	require.NoError(t, err)
	assert.Contains(t, llm.prompt, "No evidence provided.")
}

func TestGenerateErrors(t *testing.T) {
	_, err := newGen(&fakeLLM{}).Generate(context.Background(), Request{Topic: " "})
	assert.Error(t, err)

	boom := errors.New("rate limited")
	_, err = newGen(&fakeLLM{err: boom}).Generate(context.Background(), Request{Topic: "T"})
	assert.ErrorIs(t, err, boom)
}
