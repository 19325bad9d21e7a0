// Package report renders forecasts, calibration results and scenario sets
// as Markdown and HTML.
package report

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ziadkadry99/foresight/internal/diagrams"
	"github.com/ziadkadry99/foresight/internal/model"
)

// CalibrationMarkdown renders a calibration report. decomp may be nil when
// no decomposition could be computed.
func CalibrationMarkdown(r model.CalibrationReport, decomp *model.BrierDecomposition) string {
	var b strings.Builder
	b.WriteString("# Calibration Report\n\n")

	if decomp != nil {
		b.WriteString("## Brier Decomposition\n\n")
		b.WriteString("| Component | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Reliability | %.4f |\n", decomp.Reliability)
		fmt.Fprintf(&b, "| Resolution | %.4f |\n", decomp.Resolution)
		fmt.Fprintf(&b, "| Uncertainty | %.4f |\n", decomp.Uncertainty)
		fmt.Fprintf(&b, "| **Overall** | **%.4f** |\n\n", decomp.Overall)
	}

	b.WriteString("## Reliability Bins\n\n")
	if len(r.Bins) == 0 {
		b.WriteString("No resolved forecasts yet.\n\n")
	} else {
		b.WriteString("| Bin | Predicted | Observed | Count | Gap |\n|---|---|---|---|---|\n")
		for _, bin := range r.Bins {
			fmt.Fprintf(&b, "| %.2f | %.4f | %.4f | %d | %+.4f |\n",
				bin.BinCenter, bin.PredictedAvg, bin.HitRate, bin.Count, bin.HitRate-bin.PredictedAvg)
		}
		b.WriteString("\n")

		points := make([]diagrams.Point, len(r.Bins))
		for i, bin := range r.Bins {
			points[i] = diagrams.Point{Center: bin.BinCenter, Predicted: bin.PredictedAvg, Observed: bin.HitRate}
		}
		if chart := diagrams.Fence(diagrams.Reliability("Reliability", points)); chart != "" {
			b.WriteString(chart)
			b.WriteString("\n")
		}
	}

	writeScores(&b, "Brier Score by Domain", "Domain", r.DomainScores)
	writeScores(&b, "Brier Score by Doctrine Agent", "Agent", r.AgentScores)
	return b.String()
}

func writeScores(b *strings.Builder, title, column string, scores map[string]float64) {
	if len(scores) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n| %s | Brier |\n|---|---|\n", title, column)
	for _, k := range slices.Sorted(maps.Keys(scores)) {
		fmt.Fprintf(b, "| %s | %.4f |\n", k, scores[k])
	}
	b.WriteString("\n")
}

// ForecastMarkdown renders a single forecast card, with its outcome when
// one has been recorded.
func ForecastMarkdown(f model.Forecast, outcome *model.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Event)

	fmt.Fprintf(&b, "- **ID:** `%s`\n", f.ID)
	fmt.Fprintf(&b, "- **Probability:** %.0f%%\n", f.Probability*100)
	fmt.Fprintf(&b, "- **Horizon:** %s\n", f.Horizon)
	fmt.Fprintf(&b, "- **Domain:** %s\n", f.Domain)
	if f.EventCategory != nil {
		fmt.Fprintf(&b, "- **Event category:** %s\n", f.EventCategory.Label())
	}
	if f.BaseRate != nil {
		fmt.Fprintf(&b, "- **Base rate:** %.0f%%\n", *f.BaseRate*100)
	}
	fmt.Fprintf(&b, "- **Status:** %s\n", f.Status)
	fmt.Fprintf(&b, "- **Created:** %s\n\n", f.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))

	if outcome != nil {
		verdict := "did not occur"
		if outcome.Resolved {
			verdict = "occurred"
		}
		fmt.Fprintf(&b, "## Outcome\n\nThe event %s (resolved %s).", verdict, outcome.ResolutionDate)
		if outcome.Notes != "" {
			fmt.Fprintf(&b, " %s", outcome.Notes)
		}
		b.WriteString("\n\n")
	}

	writeList(&b, "Key Drivers", f.KeyDrivers)
	writeList(&b, "Disconfirming Evidence", f.DisconfirmingEvidence)
	writeList(&b, "Update Triggers", f.UpdateTriggers)
	writeList(&b, "Doctrine Agents", f.DoctrineAgentsUsed)

	if len(f.Evidence) > 0 {
		b.WriteString("## Evidence\n\n")
		for _, ev := range f.Evidence {
			fmt.Fprintf(&b, "- *%s* (relevance %.2f): %s\n", ev.Source, ev.RelevanceScore, oneLine(ev.Snippet))
		}
		b.WriteString("\n")
	}

	if raw, err := json.MarshalIndent(f, "", "  "); err == nil {
		b.WriteString("## Record\n\n```json\n")
		b.Write(raw)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// ScenarioMarkdown renders a scenario set with its current alerts.
func ScenarioMarkdown(topic string, scenarios []model.Scenario, alerts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Scenarios: %s\n\n", topic)

	if len(alerts) > 0 {
		b.WriteString("> **Alerts**\n>\n")
		for _, a := range alerts {
			fmt.Fprintf(&b, "> - %s\n", a)
		}
		b.WriteString("\n")
	}

	b.WriteString("| Scenario | Weight | Confirmed | Emerging |\n|---|---|---|---|\n")
	for _, s := range scenarios {
		fmt.Fprintf(&b, "| %s | %.2f | %d | %d |\n", s.Title, s.ProbabilityWeight,
			s.CountSignposts(model.SignpostConfirmed), s.CountSignposts(model.SignpostEmerging))
	}
	b.WriteString("\n")

	wedges := make([]diagrams.Slice, len(scenarios))
	for i, s := range scenarios {
		wedges[i] = diagrams.Slice{Label: s.Title, Value: s.ProbabilityWeight}
	}
	if chart := diagrams.Fence(diagrams.Pie("Scenario weights", wedges)); chart != "" {
		b.WriteString(chart)
		b.WriteString("\n")
	}

	for _, s := range scenarios {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Narrative)
		writeList(&b, "Key Assumptions", s.KeyAssumptions)
		if len(s.Signposts) > 0 {
			b.WriteString("### Signposts\n\n")
			for _, sp := range s.Signposts {
				fmt.Fprintf(&b, "- [%s] %s\n", sp.CurrentStatus, sp.Indicator)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", oneLine(it))
	}
	b.WriteString("\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
