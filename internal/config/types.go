package config

import (
	"path/filepath"
	"time"
)

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderOpenRouter ProviderType = "openrouter"
)

// Config is the top-level foresight configuration, corresponding to .foresight.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	Quality           QualityTier  `yaml:"quality" koanf:"quality"`

	// DataDir holds the SQLite database and the persisted evidence index.
	// Doctrines selects pack ids; empty means every loaded pack.
	DataDir      string   `yaml:"data_dir" koanf:"data_dir"`
	DoctrineDir  string   `yaml:"doctrine_dir" koanf:"doctrine_dir"`
	Doctrines    []string `yaml:"doctrines" koanf:"doctrines"`
	RateLimitRPM int      `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`

	Forecast    ForecastConfig    `yaml:"forecast" koanf:"forecast"`
	Scenario    ScenarioConfig    `yaml:"scenario" koanf:"scenario"`
	Calibration CalibrationConfig `yaml:"calibration" koanf:"calibration"`
	Cache       CacheConfig       `yaml:"cache" koanf:"cache"`
	Server      ServerConfig      `yaml:"server" koanf:"server"`
	Alerts      AlertsConfig      `yaml:"alerts" koanf:"alerts"`
}

// ForecastConfig tunes the forecasting pipeline.
type ForecastConfig struct {
	EvidenceTopK       int           `yaml:"evidence_top_k" koanf:"evidence_top_k"`
	MaxQuestions       int           `yaml:"max_questions" koanf:"max_questions"`
	CouncilConcurrency int           `yaml:"council_concurrency" koanf:"council_concurrency"`
	AgentTimeout       time.Duration `yaml:"agent_timeout" koanf:"agent_timeout"`
	EvidenceTimeout    time.Duration `yaml:"evidence_timeout" koanf:"evidence_timeout"`
	LLMTimeout         time.Duration `yaml:"llm_timeout" koanf:"llm_timeout"`
}

// ScenarioConfig tunes scenario generation and monitoring.
type ScenarioConfig struct {
	Count           int     `yaml:"count" koanf:"count"`
	SignalThreshold float64 `yaml:"signal_threshold" koanf:"signal_threshold"`
}

type CalibrationConfig struct {
	NumBins int `yaml:"num_bins" koanf:"num_bins"`
}

// CacheConfig enables the Redis LLM response cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" koanf:"redis_url"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
}

type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// AlertsConfig lists the webhooks that receive scenario alerts after each
// monitoring pass.
type AlertsConfig struct {
	WebhookURLs []string `yaml:"webhook_urls" koanf:"webhook_urls"`
}

// DBPath returns the SQLite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "foresight.db")
}

// EvidenceDir returns the directory holding the persisted evidence index.
func (c *Config) EvidenceDir() string {
	return filepath.Join(c.DataDir, "evidence")
}
