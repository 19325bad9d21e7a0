package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/config"
	"github.com/ziadkadry99/foresight/internal/db"
	"github.com/ziadkadry99/foresight/internal/doctrine"
	"github.com/ziadkadry99/foresight/internal/embeddings"
	"github.com/ziadkadry99/foresight/internal/evidence"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/llm"
	"github.com/ziadkadry99/foresight/internal/metrics"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/notifications"
	"github.com/ziadkadry99/foresight/internal/scenario"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `foresight init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// workspace bundles the collaborators a command needs. Pieces are built
// lazily so read-only commands never touch an LLM provider.
type workspace struct {
	cfg     *config.Config
	db      *db.DB
	metrics *metrics.Metrics

	client   *llm.Client
	cache    *llm.RedisCache
	evidence *evidence.ChromemStore
}

// openWorkspace loads the config and opens the database. registerer may be
// nil, in which case metrics go to a private registry.
func openWorkspace(registerer prometheus.Registerer) (*workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	return &workspace{cfg: cfg, db: database, metrics: metrics.New(registerer)}, nil
}

func (w *workspace) Close() {
	if w.cache != nil {
		w.cache.Close()
	}
	w.db.Close()
}

func (w *workspace) forecastStore() *forecast.Store { return forecast.NewStore(w.db) }

func (w *workspace) scenarioStore() *scenario.Store { return scenario.NewStore(w.db) }

// llmClient builds the provider chain: provider, rate limiter, optional
// Redis response cache, then the Client that tracks usage.
func (w *workspace) llmClient(ctx context.Context) (*llm.Client, error) {
	if w.client != nil {
		return w.client, nil
	}
	provider, err := llm.NewProvider(string(w.cfg.Provider), w.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	provider = llm.NewRateLimitedProvider(provider, w.cfg.RateLimitRPM)

	if w.cfg.Cache.RedisURL != "" {
		cache, err := llm.NewRedisCache(ctx, w.cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("LLM response cache disabled", "error", err)
		} else {
			w.cache = cache
			provider = llm.NewCachedProvider(provider, cache, w.cfg.Cache.TTL, w.metrics, logger)
		}
	}

	w.client = llm.NewClient(provider, w.cfg.Model, llm.ClientOptions{
		Timeout: w.cfg.Forecast.LLMTimeout,
		Metrics: w.metrics,
		Logger:  logger,
	})
	return w.client, nil
}

// evidenceStore opens the persisted evidence index. A missing index loads
// as empty.
func (w *workspace) evidenceStore(ctx context.Context) (*evidence.ChromemStore, error) {
	if w.evidence != nil {
		return w.evidence, nil
	}
	embedModel := w.cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = config.GetPreset(w.cfg.Provider, w.cfg.Quality).EmbeddingModel
	}
	embedder, err := embeddings.New(string(w.cfg.EmbeddingProvider), embedModel)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := evidence.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating evidence store: %w", err)
	}
	if err := store.Load(ctx, w.cfg.EvidenceDir()); err != nil {
		return nil, fmt.Errorf("loading evidence index: %w", err)
	}
	w.evidence = store
	return store, nil
}

// retriever returns the evidence retriever, or nil when no index can be
// opened. Forecasts then run without evidence.
func (w *workspace) retriever(ctx context.Context) *evidence.Retriever {
	store, err := w.evidenceStore(ctx)
	if err != nil {
		logger.Warn("evidence retrieval disabled", "error", err)
		return nil
	}
	return evidence.NewRetriever(store)
}

// forecaster wires the LLM client, evidence retriever and doctrine council.
func (w *workspace) forecaster(ctx context.Context) (*forecast.Forecaster, error) {
	client, err := w.llmClient(ctx)
	if err != nil {
		return nil, err
	}

	packs, err := doctrine.LoadDir(w.cfg.DoctrineDir, logger)
	if err != nil {
		return nil, fmt.Errorf("loading doctrine packs: %w", err)
	}
	packs, err = doctrine.Select(packs, w.cfg.Doctrines)
	if err != nil {
		return nil, err
	}

	var (
		passages doctrine.PassageSearcher
		ev       forecast.EvidenceRetriever
	)
	if r := w.retriever(ctx); r != nil {
		passages, ev = r, r
	}
	agents := doctrine.NewAgents(client, packs, passages, logger)
	logger.Debug("doctrine council assembled", "agents", len(agents))

	fc := w.cfg.Forecast
	return forecast.NewForecaster(client, ev, agents,
		forecast.WithLogger(logger),
		forecast.WithMetrics(w.metrics),
		forecast.WithOptions(forecast.Options{
			EvidenceTopK:       fc.EvidenceTopK,
			MaxQuestions:       fc.MaxQuestions,
			CouncilConcurrency: fc.CouncilConcurrency,
			AgentTimeout:       fc.AgentTimeout,
			EvidenceTimeout:    fc.EvidenceTimeout,
		}),
	), nil
}

func (w *workspace) auditStore() *audit.Store { return audit.NewStore(w.db) }

// record appends a CLI change to the audit trail.
func (w *workspace) record(ctx context.Context, e audit.Entry) {
	audit.Record(ctx, w.auditStore(), logger, e)
}

// auditedSaver saves batch forecasts and records each one.
type auditedSaver struct {
	ws    *workspace
	store *forecast.Store
}

func (s auditedSaver) Save(ctx context.Context, fc *model.Forecast) error {
	if err := s.store.Save(ctx, fc); err != nil {
		return err
	}
	s.ws.record(ctx, audit.ForecastCreated(audit.ActorCLI, fc))
	return nil
}

func (w *workspace) notifier() *notifications.Dispatcher {
	return notifications.NewDispatcher(notifications.NewStore(w.db), w.cfg.Alerts.WebhookURLs, logger)
}

func (w *workspace) scenarioMonitor() scenario.Monitor {
	return scenario.Monitor{Threshold: w.cfg.Scenario.SignalThreshold}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
