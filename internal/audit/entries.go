package audit

import (
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/foresight/internal/model"
)

// ForecastCreated describes a newly saved forecast.
func ForecastCreated(actor Actor, fc *model.Forecast) Entry {
	return Entry{
		Actor:     actor,
		Action:    ActionForecastCreated,
		Subject:   SubjectForecast,
		SubjectID: fc.ID,
		Summary:   fmt.Sprintf("Forecast %.0f%% by %s: %s", fc.Probability*100, fc.Horizon, fc.Event),
		NewValue:  fmt.Sprintf("%.4f", fc.Probability),
	}
}

// OutcomeRecorded describes a resolution moving a forecast from its
// previous status to the one implied by the outcome.
func OutcomeRecorded(actor Actor, o model.Outcome, previous model.ForecastStatus) Entry {
	status := model.ForecastResolvedFalse
	verdict := "did not occur"
	if o.Resolved {
		status = model.ForecastResolvedTrue
		verdict = "occurred"
	}
	return Entry{
		Actor:         actor,
		Action:        ActionOutcomeRecorded,
		Subject:       SubjectForecast,
		SubjectID:     o.ForecastID,
		Summary:       fmt.Sprintf("Event %s (resolved %s)", verdict, o.ResolutionDate),
		PreviousValue: string(previous),
		NewValue:      string(status),
	}
}

// ForecastsExpired describes an expiry sweep.
func ForecastsExpired(actor Actor, asOf model.Date, n int) Entry {
	return Entry{
		Actor:    actor,
		Action:   ActionForecastsExpired,
		Subject:  SubjectForecast,
		Summary:  fmt.Sprintf("Expired %d forecast(s) with a horizon before %s", n, asOf),
		NewValue: string(model.ForecastExpired),
	}
}

// ScenarioCreated describes a new scenario set at revision 1.
func ScenarioCreated(actor Actor, setID, topic string, scenarios []model.Scenario) Entry {
	return Entry{
		Actor:     actor,
		Action:    ActionScenarioCreated,
		Subject:   SubjectScenarioSet,
		SubjectID: setID,
		Summary:   fmt.Sprintf("Generated %d scenario(s) for %q", len(scenarios), topic),
		NewValue:  weights(scenarios),
	}
}

// ScenarioMonitored describes a monitoring pass from the previous revision's
// weights to the new revision's.
func ScenarioMonitored(actor Actor, setID string, revision int, previous, current []model.Scenario) Entry {
	return Entry{
		Actor:         actor,
		Action:        ActionScenarioMonitored,
		Subject:       SubjectScenarioSet,
		SubjectID:     setID,
		Summary:       fmt.Sprintf("Monitoring pass saved revision %d", revision),
		PreviousValue: weights(previous),
		NewValue:      weights(current),
	}
}

// weights encodes scenario weights keyed by title.
func weights(scenarios []model.Scenario) string {
	if len(scenarios) == 0 {
		return ""
	}
	m := make(map[string]float64, len(scenarios))
	for _, s := range scenarios {
		m[s.Title] = s.ProbabilityWeight
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
