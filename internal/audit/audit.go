// Package audit keeps an append-only trail of changes made to forecasts and
// scenario sets, whether they came from the CLI or the HTTP API.
package audit

import (
	"context"
	"time"
)

// Actor identifies the surface that made a change.
type Actor string

const (
	ActorCLI Actor = "cli"
	ActorAPI Actor = "api"
)

// Action describes what was done.
type Action string

const (
	ActionForecastCreated   Action = "forecast_created"
	ActionOutcomeRecorded   Action = "outcome_recorded"
	ActionForecastsExpired  Action = "forecasts_expired"
	ActionScenarioCreated   Action = "scenario_created"
	ActionScenarioMonitored Action = "scenario_monitored"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionForecastCreated, ActionOutcomeRecorded, ActionForecastsExpired,
		ActionScenarioCreated, ActionScenarioMonitored:
		return true
	}
	return false
}

// Subject is the kind of record an entry is about.
type Subject string

const (
	SubjectForecast    Subject = "forecast"
	SubjectScenarioSet Subject = "scenario_set"
)

// Entry is a single audit trail record. PreviousValue and NewValue hold the
// changed state as JSON when the action changes one.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Actor         Actor     `json:"actor"`
	Action        Action    `json:"action"`
	Subject       Subject   `json:"subject"`
	SubjectID     string    `json:"subject_id,omitempty"`
	Summary       string    `json:"summary"`
	PreviousValue string    `json:"previous_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
}

// Recorder appends entries to the trail. *Store implements it.
type Recorder interface {
	Log(ctx context.Context, e Entry) error
}
