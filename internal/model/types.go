package model

import (
	"slices"
	"time"
)

// Evidence is a retrieved passage bearing on a forecast question.
type Evidence struct {
	Source         string  `json:"source"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Forecast is a scored probability for a discrete future event.
type Forecast struct {
	ID                    string         `json:"id"`
	Event                 string         `json:"event"`
	Horizon               Date           `json:"horizon"`
	Probability           float64        `json:"probability"`
	ConfidenceInterval    [2]float64     `json:"confidence_interval"`
	KeyDrivers            []string       `json:"key_drivers"`
	DisconfirmingEvidence []string       `json:"disconfirming_evidence"`
	UpdateTriggers        []string       `json:"update_triggers"`
	Evidence              []Evidence     `json:"evidence"`
	Sources               []string       `json:"sources"`
	Domain                Domain         `json:"domain"`
	EventCategory         *EventCategory `json:"event_category,omitempty"`
	DoctrineAgentsUsed    []string       `json:"doctrine_agents_used"`
	BaseRate              *float64       `json:"base_rate,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             *time.Time     `json:"updated_at,omitempty"`
	Status                ForecastStatus `json:"status"`
}

// DefaultConfidenceInterval is the interval assigned when none is elicited.
var DefaultConfidenceInterval = [2]float64{0, 1}

// Outcome records how a forecast's event actually resolved.
type Outcome struct {
	ForecastID     string `json:"forecast_id"`
	Resolved       bool   `json:"resolved"`
	ResolutionDate Date   `json:"resolution_date"`
	Notes          string `json:"notes"`
}

// Signpost is an observable indicator tracked against a scenario.
type Signpost struct {
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	ScenarioID    string         `json:"scenario_id"`
	Indicator     string         `json:"indicator"`
	CurrentStatus SignpostStatus `json:"current_status"`
	LastChecked   time.Time      `json:"last_checked"`
}

// WithStatus returns a copy of the signpost with a new status and check time.
func (s Signpost) WithStatus(status SignpostStatus, checked time.Time) Signpost {
	s.CurrentStatus = status
	s.LastChecked = checked
	return s
}

// Scenario is one weighted narrative branch of possible futures.
type Scenario struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Narrative         string         `json:"narrative"`
	ProbabilityWeight float64        `json:"probability_weight"`
	Signposts         []Signpost     `json:"signposts"`
	KeyAssumptions    []string       `json:"key_assumptions"`
	EarlyWarnings     []string       `json:"early_warnings"`
	Domain            *Domain        `json:"domain,omitempty"`
	Status            ScenarioStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Clone returns a deep copy whose slices share no backing arrays with s.
func (s Scenario) Clone() Scenario {
	s.Signposts = slices.Clone(s.Signposts)
	s.KeyAssumptions = slices.Clone(s.KeyAssumptions)
	s.EarlyWarnings = slices.Clone(s.EarlyWarnings)
	if s.Domain != nil {
		d := *s.Domain
		s.Domain = &d
	}
	return s
}

// WithWeight returns a copy of the scenario with a new probability weight.
func (s Scenario) WithWeight(w float64) Scenario {
	c := s.Clone()
	c.ProbabilityWeight = w
	return c
}

// WithSignposts returns a copy of the scenario owning the given signposts.
func (s Scenario) WithSignposts(signposts []Signpost) Scenario {
	c := s.Clone()
	c.Signposts = slices.Clone(signposts)
	return c
}

// CountSignposts returns how many of the scenario's signposts have the given status.
func (s Scenario) CountSignposts(status SignpostStatus) int {
	n := 0
	for _, sp := range s.Signposts {
		if sp.CurrentStatus == status {
			n++
		}
	}
	return n
}

// DoctrinePack is the static principles/heuristics bundle a doctrine agent
// draws on. Packs are loaded once and shared read-only.
type DoctrinePack struct {
	DoctrineID       string   `json:"doctrine_id" yaml:"doctrine_id"`
	Name             string   `json:"name" yaml:"name"`
	Principles       []string `json:"principles" yaml:"principles"`
	Heuristics       []string `json:"heuristics" yaml:"heuristics"`
	FailureModes     []string `json:"failure_modes" yaml:"failure_modes"`
	RecommendedTools []string `json:"recommended_tools" yaml:"recommended_tools"`
	DomainFit        []Domain `json:"domain_fit" yaml:"domain_fit"`
}

// Fits reports whether the pack declares fit for the given domain.
func (p DoctrinePack) Fits(d Domain) bool {
	for _, fit := range p.DomainFit {
		if fit == d {
			return true
		}
	}
	return false
}

// BrierDecomposition is the Murphy decomposition of a mean Brier score:
// Overall = Reliability - Resolution + Uncertainty.
type BrierDecomposition struct {
	Reliability float64 `json:"reliability"`
	Resolution  float64 `json:"resolution"`
	Uncertainty float64 `json:"uncertainty"`
	Overall     float64 `json:"overall"`
}

// CalibrationBin compares stated and realized frequency within one
// probability bucket.
type CalibrationBin struct {
	BinCenter    float64 `json:"bin_center"`
	PredictedAvg float64 `json:"predicted_avg"`
	HitRate      float64 `json:"hit_rate"`
	Count        int     `json:"count"`
}

// CalibrationReport summarizes forecaster calibration over resolved forecasts.
type CalibrationReport struct {
	Bins         []CalibrationBin   `json:"bins"`
	DomainScores map[string]float64 `json:"domain_scores"`
	AgentScores  map[string]float64 `json:"agent_scores"`
}
