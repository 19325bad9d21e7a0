// Package scenario generates weighted scenario sets for a topic and keeps
// their weights current as new evidence arrives.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
)

const (
	// DefaultCount is the number of scenarios requested when none is given.
	DefaultCount = 4

	promptEvidenceLimit = 8
	fallbackNarrative   = "Status quo continues with no major disruption."
	maxHeadingLength    = 40
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Request describes the scenario set to generate.
type Request struct {
	Topic    string           `json:"topic"`
	Evidence []model.Evidence `json:"evidence,omitempty"`
	Domain   *model.Domain    `json:"domain,omitempty"`
	Count    int              `json:"count,omitempty"`
}

// Generator asks a model for a scenario set in one call.
type Generator struct {
	llm    forecast.LLMClient
	logger *slog.Logger
	now    func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(llm forecast.LLMClient, opts ...GeneratorOption) *Generator {
	g := &Generator{llm: llm, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns up to req.Count active scenarios, each weighted
// 1/req.Count. Weights stated by the model are ignored. If the reply has no
// usable sections a single baseline scenario with weight 1 is returned.
func (g *Generator) Generate(ctx context.Context, req Request) ([]model.Scenario, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	count := req.Count
	if count <= 0 {
		count = DefaultCount
	}

	raw, err := g.llm.Call(ctx, scenarioPrompt(req.Topic, req.Evidence, count), "")
	if err != nil {
		return nil, fmt.Errorf("generating scenarios: %w", err)
	}

	now := g.now().UTC()
	scenarios := parseScenarios(raw, count, req.Domain, now)
	if len(scenarios) == 0 {
		g.logger.Warn("scenario reply had no usable sections, using baseline", "topic", req.Topic)
		return []model.Scenario{baseline(req.Topic, req.Domain, now)}, nil
	}
	g.logger.Debug("scenarios generated", "topic", req.Topic, "count", len(scenarios))
	return scenarios, nil
}

func scenarioPrompt(topic string, evidence []model.Evidence, count int) string {
	lines := make([]string, 0, promptEvidenceLimit)
	for i, e := range evidence {
		if i == promptEvidenceLimit {
			break
		}
		lines = append(lines, "- "+e.Snippet)
	}
	evidenceText := strings.Join(lines, "\n")
	if evidenceText == "" {
		evidenceText = "No evidence provided."
	}

	return fmt.Sprintf("You are a strategic scenario planner using Shell International's methodology.\n\n"+
		"Topic: %s\n\n"+
		"Evidence:\n%s\n\n"+
		"Generate %d plausible future scenarios. For each scenario provide:\n"+
		"1. Title (one line)\n"+
		"2. Narrative (2-3 sentences)\n"+
		"3. Probability weight (0.0-1.0, should roughly sum to 1)\n"+
		"4. Key assumptions (2-3 bullet points)\n"+
		"5. Early warning signals (2-3 observable indicators)\n\n"+
		"Format each scenario clearly with headers.", topic, evidenceText, count)
}

func parseScenarios(raw string, count int, domain *model.Domain, now time.Time) []model.Scenario {
	weight := math.RoundToEven(100/float64(count)) / 100

	var scenarios []model.Scenario
	for _, section := range blankLine.Split(strings.ReplaceAll(raw, "\r\n", "\n"), -1) {
		if len(scenarios) == count {
			break
		}
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		lines := strings.Split(section, "\n")
		id := model.NewScenarioID(now)
		assumptions, warnings := parseSectionLists(lines[1:])
		sc := model.Scenario{
			ID:                id,
			Title:             strings.TrimLeft(strings.TrimSpace(lines[0]), "#- "),
			Narrative:         section,
			ProbabilityWeight: weight,
			KeyAssumptions:    assumptions,
			EarlyWarnings:     warnings,
			Signposts:         signpostsFor(id, warnings, now),
			Domain:            cloneDomain(domain),
			Status:            model.ScenarioActive,
			CreatedAt:         now,
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios
}

type listKind int

const (
	listNone listKind = iota
	listAssumptions
	listWarnings
)

// parseSectionLists collects bullet items under assumption and
// warning/signal/indicator headings.
func parseSectionLists(lines []string) (assumptions, warnings []string) {
	assumptions, warnings = []string{}, []string{}
	kind := listNone
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if item, ok := bulletItem(trimmed); ok && !isHeading(item) {
			switch kind {
			case listAssumptions:
				assumptions = append(assumptions, item)
			case listWarnings:
				warnings = append(warnings, item)
			}
			continue
		}
		if looksLikeHeading(trimmed) {
			kind = headingKind(trimmed)
		} else {
			kind = listNone
		}
	}
	return assumptions, warnings
}

// bulletItem strips a leading "-", "*", "•" or "1." style marker.
func bulletItem(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return "", false
}

func isHeading(text string) bool {
	t := strings.TrimSpace(strings.Trim(text, "*#"))
	return strings.HasSuffix(t, ":") && headingKind(t) != listNone
}

func looksLikeHeading(line string) bool {
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**") {
		return true
	}
	t := strings.TrimSpace(strings.Trim(line, "*"))
	return strings.HasSuffix(t, ":") || utf8.RuneCountInString(t) <= maxHeadingLength
}

func headingKind(line string) listKind {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "assumption"):
		return listAssumptions
	case strings.Contains(l, "warning"), strings.Contains(l, "signal"), strings.Contains(l, "indicator"):
		return listWarnings
	}
	return listNone
}

func signpostsFor(scenarioID string, warnings []string, now time.Time) []model.Signpost {
	signposts := make([]model.Signpost, len(warnings))
	for i, w := range warnings {
		signposts[i] = model.Signpost{
			ID:            model.NewSignpostID(scenarioID, i+1),
			Description:   w,
			ScenarioID:    scenarioID,
			Indicator:     w,
			CurrentStatus: model.SignpostNotSeen,
			LastChecked:   now,
		}
	}
	return signposts
}

func baseline(topic string, domain *model.Domain, now time.Time) model.Scenario {
	return model.Scenario{
		ID:                model.NewScenarioID(now),
		Title:             "Baseline: " + topic,
		Narrative:         fallbackNarrative,
		ProbabilityWeight: 1.0,
		Signposts:         []model.Signpost{},
		KeyAssumptions:    []string{},
		EarlyWarnings:     []string{},
		Domain:            cloneDomain(domain),
		Status:            model.ScenarioActive,
		CreatedAt:         now,
	}
}

func cloneDomain(d *model.Domain) *model.Domain {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
