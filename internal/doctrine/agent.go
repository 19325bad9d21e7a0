package doctrine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
)

const (
	promptPrinciples = 5
	promptEvidence   = 5
	passageLimit     = 3
)

// PassageSearcher finds source passages ingested for one doctrine.
type PassageSearcher interface {
	SearchDoctrine(ctx context.Context, doctrineID, query string, limit int) ([]string, error)
}

// Agent analyzes questions through one doctrine pack with an LLM.
type Agent struct {
	llm      forecast.LLMClient
	pack     model.DoctrinePack
	passages PassageSearcher
	logger   *slog.Logger
}

// NewAgent creates an agent for pack. passages may be nil.
func NewAgent(llm forecast.LLMClient, pack model.DoctrinePack, passages PassageSearcher, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{llm: llm, pack: pack, passages: passages, logger: logger}
}

// NewAgents builds one agent per pack, in order.
func NewAgents(llm forecast.LLMClient, packs []model.DoctrinePack, passages PassageSearcher, logger *slog.Logger) []forecast.DoctrineAgent {
	agents := make([]forecast.DoctrineAgent, len(packs))
	for i, p := range packs {
		agents[i] = NewAgent(llm, p, passages, logger)
	}
	return agents
}

func (a *Agent) ID() string {
	return a.pack.DoctrineID
}

// Analyze prompts the model with the pack's principles, the evidence and any
// matching doctrine passages.
func (a *Agent) Analyze(ctx context.Context, question string, evidence []model.Evidence) (string, error) {
	resp, err := a.llm.Call(ctx, a.prompt(question, evidence, a.sourcePassages(ctx, question)), "")
	if err != nil {
		return "", fmt.Errorf("doctrine %s: %w", a.pack.DoctrineID, err)
	}
	return resp, nil
}

func (a *Agent) sourcePassages(ctx context.Context, question string) string {
	if a.passages == nil {
		return ""
	}
	found, err := a.passages.SearchDoctrine(ctx, a.pack.DoctrineID, question, passageLimit)
	if err != nil {
		a.logger.Warn("doctrine passage search failed", "agent", a.pack.DoctrineID, "error", err)
		return ""
	}
	return strings.TrimSpace(strings.Join(found, "\n\n"))
}

func bulletList(items []string, limit int, empty string) string {
	lines := make([]string, 0, limit)
	for i, it := range items {
		if i == limit {
			break
		}
		lines = append(lines, "- "+it)
	}
	if len(lines) == 0 {
		return empty
	}
	return strings.Join(lines, "\n")
}

func (a *Agent) prompt(question string, evidence []model.Evidence, passages string) string {
	snippets := make([]string, 0, len(evidence))
	for _, e := range evidence {
		snippets = append(snippets, e.Snippet)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are analyzing through the lens of %s.\n\n", a.pack.Name)
	fmt.Fprintf(&b, "Core principles:\n%s\n\n", bulletList(a.pack.Principles, promptPrinciples, "No specific principles."))
	fmt.Fprintf(&b, "Evidence:\n%s\n", bulletList(snippets, promptEvidence, "No evidence provided."))
	if passages != "" {
		fmt.Fprintf(&b, "\nSource doctrine passages:\n%s\n", passages)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n\n", question)
	b.WriteString("Provide a concise analysis (3-5 sentences) with specific references to evidence " +
		"and doctrine sources. Identify key risks and opportunities.")
	return b.String()
}
