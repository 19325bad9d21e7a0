package scenario

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ziadkadry99/foresight/internal/model"
)

const (
	// DefaultSignalThreshold is the mean relevance at which a signpost is
	// confirmed.
	DefaultSignalThreshold = 0.5

	confirmedBoost = 0.05
	emergingBoost  = 0.02
	minWeight      = 0.01
	maxWeight      = 0.99
	dominantWeight = 0.5
)

// Monitor re-evaluates signposts and scenario weights against a batch of
// evidence. The zero value uses DefaultSignalThreshold and the wall clock.
type Monitor struct {
	Threshold float64
	Now       func() time.Time

	// exact disables the default for a non-positive Threshold.
	exact bool
}

func (m Monitor) threshold() float64 {
	if m.Threshold <= 0 && !m.exact {
		return DefaultSignalThreshold
	}
	return m.Threshold
}

func (m Monitor) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

// UpdateSignpost recomputes the signpost's status from evidence whose snippet
// contains the indicator, ignoring its previous status. With no matching
// evidence the signpost is returned unchanged, timestamp included.
func (m Monitor) UpdateSignpost(sp model.Signpost, evidence []model.Evidence) model.Signpost {
	indicator := strings.ToLower(sp.Indicator)
	var sum float64
	var n int
	for _, e := range evidence {
		if strings.Contains(strings.ToLower(e.Snippet), indicator) {
			sum += e.RelevanceScore
			n++
		}
	}
	if n == 0 {
		return sp
	}
	return sp.WithStatus(statusFor(sum/float64(n), m.threshold()), m.now())
}

func statusFor(meanRelevance, threshold float64) model.SignpostStatus {
	switch {
	case meanRelevance >= threshold:
		return model.SignpostConfirmed
	case meanRelevance >= threshold*0.5:
		return model.SignpostEmerging
	default:
		return model.SignpostNotSeen
	}
}

// UpdateWeights refreshes every signpost, nudges each scenario's weight up by
// its confirmed and emerging signposts and renormalizes the whole set to sum
// to 1. The input scenarios are not modified.
func (m Monitor) UpdateWeights(scenarios []model.Scenario, evidence []model.Evidence) []model.Scenario {
	updated := make([]model.Scenario, len(scenarios))
	for i, sc := range scenarios {
		signposts := make([]model.Signpost, len(sc.Signposts))
		for j, sp := range sc.Signposts {
			signposts[j] = m.UpdateSignpost(sp, evidence)
		}
		next := sc.WithSignposts(signposts)
		adj := confirmedBoost*float64(next.CountSignposts(model.SignpostConfirmed)) +
			emergingBoost*float64(next.CountSignposts(model.SignpostEmerging))
		w := math.Max(minWeight, math.Min(maxWeight, sc.ProbabilityWeight+adj))
		next.ProbabilityWeight = round4(w)
		updated[i] = next
	}
	return normalize(updated)
}

func normalize(scenarios []model.Scenario) []model.Scenario {
	if len(scenarios) == 0 {
		return scenarios
	}
	var total float64
	for _, sc := range scenarios {
		total += sc.ProbabilityWeight
	}
	for i := range scenarios {
		if total == 0 {
			scenarios[i].ProbabilityWeight = round4(1 / float64(len(scenarios)))
		} else {
			scenarios[i].ProbabilityWeight = round4(scenarios[i].ProbabilityWeight / total)
		}
	}
	return scenarios
}

func round4(x float64) float64 {
	return math.RoundToEven(x*1e4) / 1e4
}

// UpdateSignpost is Monitor.UpdateSignpost with the given threshold and the
// wall clock. A threshold of 0 confirms any matching signpost.
func UpdateSignpost(sp model.Signpost, evidence []model.Evidence, threshold float64) model.Signpost {
	return Monitor{Threshold: threshold, exact: true}.UpdateSignpost(sp, evidence)
}

// UpdateScenarioWeights is Monitor.UpdateWeights with the given threshold and
// the wall clock.
func UpdateScenarioWeights(scenarios []model.Scenario, evidence []model.Evidence, threshold float64) []model.Scenario {
	return Monitor{Threshold: threshold, exact: true}.UpdateWeights(scenarios, evidence)
}

// CheckScenarioAlerts reports dominant scenarios and scenarios with confirmed
// signposts. It keeps no state between calls.
func CheckScenarioAlerts(scenarios []model.Scenario) []string {
	alerts := []string{}
	for _, sc := range scenarios {
		if sc.ProbabilityWeight > dominantWeight {
			alerts = append(alerts, fmt.Sprintf("Scenario '%s' is dominant (P=%.0f%%)", sc.Title, sc.ProbabilityWeight*100))
		}
		if n := sc.CountSignposts(model.SignpostConfirmed); n > 0 {
			alerts = append(alerts, fmt.Sprintf("Scenario '%s' has %d confirmed signpost(s)", sc.Title, n))
		}
	}
	return alerts
}
