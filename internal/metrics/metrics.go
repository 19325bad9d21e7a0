// Package metrics holds the Prometheus collectors for the forecasting
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for forecasting, scenario monitoring and
// the LLM layer.
type Metrics struct {
	// Forecasts produced, by domain
	ForecastsTotal *prometheus.CounterVec

	// End-to-end forecast pipeline latency
	ForecastDuration prometheus.Histogram

	// Doctrine agents excluded from a council, by agent id
	CouncilAgentFailures *prometheus.CounterVec

	EvidenceRetrievalFailures prometheus.Counter
	ProbabilityParseFailures  prometheus.Counter
	ScenarioMonitorPasses     prometheus.Counter

	// LLM response cache lookups by result: "hit" or "miss"
	LLMCacheLookups *prometheus.CounterVec

	// LLM tokens by provider and direction: "input" or "output"
	LLMTokens *prometheus.CounterVec
}

// New registers all collectors with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ForecastsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_forecasts_total",
			Help: "Total forecasts produced by domain",
		}, []string{"domain"}),

		ForecastDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "foresight_forecast_duration_seconds",
			Help:    "Duration of the full forecast pipeline",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 120, 300},
		}),

		CouncilAgentFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_council_agent_failures_total",
			Help: "Doctrine agents that failed, panicked or timed out during a council",
		}, []string{"agent"}),

		EvidenceRetrievalFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "foresight_evidence_retrieval_failures_total",
			Help: "Evidence retrievals that failed and were replaced by empty evidence",
		}),

		ProbabilityParseFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "foresight_probability_parse_failures_total",
			Help: "LLM probability replies that could not be parsed",
		}),

		ScenarioMonitorPasses: f.NewCounter(prometheus.CounterOpts{
			Name: "foresight_scenario_monitor_passes_total",
			Help: "Scenario monitoring passes applied to stored scenario sets",
		}),

		LLMCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_llm_cache_lookups_total",
			Help: "LLM response cache lookups by result",
		}, []string{"result"}),

		LLMTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "foresight_llm_tokens_total",
			Help: "LLM tokens consumed by provider and direction",
		}, []string{"provider", "direction"}),
	}
}

// IncForecast records a completed forecast.
func (m *Metrics) IncForecast(domain string) {
	if m != nil {
		m.ForecastsTotal.WithLabelValues(domain).Inc()
	}
}

// ObserveForecastDuration records the pipeline latency.
func (m *Metrics) ObserveForecastDuration(d time.Duration) {
	if m != nil {
		m.ForecastDuration.Observe(d.Seconds())
	}
}

// IncAgentFailure records a doctrine agent excluded from a council.
func (m *Metrics) IncAgentFailure(agent string) {
	if m != nil {
		m.CouncilAgentFailures.WithLabelValues(agent).Inc()
	}
}

func (m *Metrics) IncEvidenceFailure() {
	if m != nil {
		m.EvidenceRetrievalFailures.Inc()
	}
}

func (m *Metrics) IncProbabilityParseFailure() {
	if m != nil {
		m.ProbabilityParseFailures.Inc()
	}
}

func (m *Metrics) IncMonitorPass() {
	if m != nil {
		m.ScenarioMonitorPasses.Inc()
	}
}

// IncCacheLookup records a response cache hit or miss.
func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LLMCacheLookups.WithLabelValues(result).Inc()
}

// AddTokens records token usage for one LLM call.
func (m *Metrics) AddTokens(provider string, input, output int) {
	if m != nil {
		m.LLMTokens.WithLabelValues(provider, "input").Add(float64(input))
		m.LLMTokens.WithLabelValues(provider, "output").Add(float64(output))
	}
}
