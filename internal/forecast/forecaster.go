package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ziadkadry99/foresight/internal/metrics"
	"github.com/ziadkadry99/foresight/internal/model"
)

const (
	keyDriverCount    = 5
	triggerMinLength  = 50
	triggerSnippet    = 80
	maxUpdateTriggers = 5
	tracerName        = "github.com/ziadkadry99/foresight/internal/forecast"
)

// Options tunes the forecast pipeline.
type Options struct {
	EvidenceTopK       int
	MaxQuestions       int
	CouncilConcurrency int
	AgentTimeout       time.Duration
	EvidenceTimeout    time.Duration
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		EvidenceTopK:       10,
		MaxQuestions:       8,
		CouncilConcurrency: 4,
		AgentTimeout:       90 * time.Second,
		EvidenceTimeout:    20 * time.Second,
	}
}

// Request describes the event to forecast.
type Request struct {
	Event         string               `json:"event"`
	Horizon       model.Date           `json:"horizon"`
	Domain        model.Domain         `json:"domain"`
	EventCategory *model.EventCategory `json:"event_category,omitempty"`
	BaseRate      *float64             `json:"base_rate,omitempty"`
}

// Validate checks the request fields the pipeline depends on.
func (r Request) Validate() error {
	if r.Event == "" {
		return fmt.Errorf("%w: event is required", ErrInvalidRequest)
	}
	if r.Horizon.IsZero() {
		return fmt.Errorf("%w: horizon is required", ErrInvalidRequest)
	}
	if !r.Domain.Valid() {
		return fmt.Errorf("%w: unknown domain %q", ErrInvalidRequest, r.Domain)
	}
	if r.EventCategory != nil && !r.EventCategory.Valid() {
		return fmt.Errorf("%w: unknown event category %q", ErrInvalidRequest, *r.EventCategory)
	}
	if r.BaseRate != nil && (*r.BaseRate < 0 || *r.BaseRate > 1) {
		return fmt.Errorf("%w: base rate must be in [0, 1]", ErrInvalidRequest)
	}
	return nil
}

// Forecaster runs the evidence, question, council and elicitation stages.
// It holds no per-request state and is safe for concurrent use.
type Forecaster struct {
	llm      LLMClient
	evidence EvidenceRetriever
	agents   []DoctrineAgent
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures a Forecaster.
type Option func(*Forecaster)

func WithLogger(l *slog.Logger) Option {
	return func(f *Forecaster) { f.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Forecaster) { f.metrics = m }
}

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) { f.now = now }
}

func WithOptions(o Options) Option {
	return func(f *Forecaster) { f.opts = o }
}

// NewForecaster builds a Forecaster. evidence may be nil, in which case every
// forecast runs without evidence.
func NewForecaster(llm LLMClient, evidence EvidenceRetriever, agents []DoctrineAgent, opts ...Option) *Forecaster {
	f := &Forecaster{
		llm:      llm,
		evidence: evidence,
		agents:   agents,
		opts:     DefaultOptions(),
		logger:   slog.Default(),
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// AgentIDs returns the ids of the council members in order.
func (f *Forecaster) AgentIDs() []string {
	ids := make([]string, len(f.agents))
	for i, a := range f.agents {
		ids[i] = a.ID()
	}
	return ids
}

// Forecast produces a probability for req.Event. Evidence, question and agent
// failures degrade the forecast and are logged. Only a failed or unparsable
// probability reply returns an error.
func (f *Forecaster) Forecast(ctx context.Context, req Request) (*model.Forecast, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	ctx, span := f.tracer.Start(ctx, "forecast.Forecast",
		trace.WithAttributes(attribute.String("domain", string(req.Domain))))
	defer span.End()

	evidence := f.retrieveEvidence(ctx, req.Event)
	questions := f.generateQuestions(ctx, req.Event, evidence)

	cctx, cspan := f.tracer.Start(ctx, "forecast.council",
		trace.WithAttributes(attribute.Int("agents", len(f.agents))))
	council := RunCouncil(cctx, questions, evidence, f.agents, CouncilOptions{
		Concurrency:  f.opts.CouncilConcurrency,
		AgentTimeout: f.opts.AgentTimeout,
		Logger:       f.logger,
		Metrics:      f.metrics,
	})
	cspan.SetAttributes(attribute.Int("succeeded", len(council.Analyses)))
	cspan.End()

	probability, err := f.elicitProbability(ctx, req, council.Synthesis)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probability elicitation failed")
		return nil, err
	}

	fc := f.assemble(req, probability, evidence, questions, council)
	f.metrics.IncForecast(string(req.Domain))
	f.metrics.ObserveForecastDuration(time.Since(start))
	f.logger.Info("forecast produced",
		"id", fc.ID, "probability", fc.Probability,
		"agents_ok", len(council.Analyses), "agents", len(f.agents),
		"duration", time.Since(start))
	return fc, nil
}

func (f *Forecaster) retrieveEvidence(ctx context.Context, event string) []model.Evidence {
	if f.evidence == nil {
		return nil
	}
	ctx, span := f.tracer.Start(ctx, "forecast.evidence")
	defer span.End()
	if f.opts.EvidenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.EvidenceTimeout)
		defer cancel()
	}

	evidence, err := f.evidence.Retrieve(ctx, event, f.opts.EvidenceTopK)
	if err != nil {
		f.logger.Warn("evidence retrieval failed", "stage", "evidence", "error", err)
		f.metrics.IncEvidenceFailure()
		span.RecordError(err)
		return nil
	}
	span.SetAttributes(attribute.Int("items", len(evidence)))
	f.logger.Debug("evidence retrieved", "items", len(evidence))
	return evidence
}

func (f *Forecaster) generateQuestions(ctx context.Context, event string, evidence []model.Evidence) []string {
	ctx, span := f.tracer.Start(ctx, "forecast.questions")
	defer span.End()

	questions, err := GenerateQuestions(ctx, f.llm, event, evidence, f.opts.MaxQuestions)
	if err != nil {
		f.logger.Warn("question generation failed", "stage", "questions", "error", err)
		span.RecordError(err)
		return nil
	}
	span.SetAttributes(attribute.Int("questions", len(questions)))
	f.logger.Debug("questions generated", "count", len(questions))
	return questions
}

func (f *Forecaster) elicitProbability(ctx context.Context, req Request, synthesis string) (float64, error) {
	ctx, span := f.tracer.Start(ctx, "forecast.probability")
	defer span.End()

	raw, err := f.llm.Call(ctx, probabilityPrompt(req.Event, synthesis, req.BaseRate), "")
	if err != nil {
		return 0, fmt.Errorf("eliciting probability: %w", err)
	}
	p, err := ParseProbability(raw)
	if err != nil {
		f.metrics.IncProbabilityParseFailure()
		return 0, err
	}
	return p, nil
}

func (f *Forecaster) assemble(req Request, probability float64, evidence []model.Evidence, questions []string, council CouncilResult) *model.Forecast {
	now := f.now().UTC()

	drivers := questions[:min(keyDriverCount, len(questions))]
	disconfirming := []string{}
	if len(questions) > keyDriverCount {
		for _, q := range questions[keyDriverCount:] {
			if q != "" {
				disconfirming = append(disconfirming, q)
			}
		}
	}

	sources := make([]string, len(evidence))
	for i, e := range evidence {
		sources[i] = e.Source
	}
	if evidence == nil {
		evidence = []model.Evidence{}
	}

	return &model.Forecast{
		ID:                    model.NewForecastID(now),
		Event:                 req.Event,
		Horizon:               req.Horizon,
		Probability:           probability,
		ConfidenceInterval:    model.DefaultConfidenceInterval,
		KeyDrivers:            append([]string{}, drivers...),
		DisconfirmingEvidence: disconfirming,
		UpdateTriggers:        updateTriggers(council.Analyses),
		Evidence:              evidence,
		Sources:               sources,
		Domain:                req.Domain,
		EventCategory:         req.EventCategory,
		DoctrineAgentsUsed:    f.AgentIDs(),
		BaseRate:              req.BaseRate,
		CreatedAt:             now,
		Status:                model.ForecastOpen,
	}
}

func updateTriggers(analyses []Analysis) []string {
	triggers := []string{}
	for _, a := range analyses {
		if len(triggers) == maxUpdateTriggers {
			break
		}
		if runeLen(a.Response) > triggerMinLength {
			triggers = append(triggers, fmt.Sprintf("[%s] watch for: %s...", a.AgentID, truncate(a.Response, triggerSnippet)))
		}
	}
	return triggers
}
