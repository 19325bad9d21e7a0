package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider %q, got %q", ProviderAnthropic, cfg.Provider)
	}
	if cfg.DataDir != ".foresight" {
		t.Errorf("expected default data_dir %q, got %q", ".foresight", cfg.DataDir)
	}
	if cfg.Forecast.EvidenceTopK != 10 || cfg.Forecast.MaxQuestions != 8 {
		t.Errorf("unexpected forecast defaults: %+v", cfg.Forecast)
	}
	if cfg.Scenario.Count != 4 || cfg.Scenario.SignalThreshold != 0.5 {
		t.Errorf("unexpected scenario defaults: %+v", cfg.Scenario)
	}
	if cfg.Calibration.NumBins != 10 {
		t.Errorf("expected 10 calibration bins, got %d", cfg.Calibration.NumBins)
	}
	if got := cfg.DBPath(); got != filepath.Join(".foresight", "foresight.db") {
		t.Errorf("unexpected db path %q", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.foresight.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Quality = QualityMax
	original.Doctrines = []string{"sun_tzu", "clausewitz"}
	original.Forecast.AgentTimeout = 45 * time.Second
	original.Scenario.SignalThreshold = 0.65
	original.Cache.RedisURL = "redis://localhost:6379/0"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider || loaded.Model != original.Model || loaded.Quality != original.Quality {
		t.Errorf("provider/model/quality mismatch: %+v", loaded)
	}
	if loaded.Forecast.AgentTimeout != 45*time.Second {
		t.Errorf("agent_timeout: got %v", loaded.Forecast.AgentTimeout)
	}
	if loaded.Forecast.LLMTimeout != 120*time.Second {
		t.Errorf("llm_timeout: got %v", loaded.Forecast.LLMTimeout)
	}
	if loaded.Scenario.SignalThreshold != 0.65 {
		t.Errorf("signal_threshold: got %v", loaded.Scenario.SignalThreshold)
	}
	if loaded.Cache.RedisURL != original.Cache.RedisURL {
		t.Errorf("redis_url: got %q", loaded.Cache.RedisURL)
	}
	if len(loaded.Doctrines) != 2 || loaded.Doctrines[1] != "clausewitz" {
		t.Errorf("doctrines: got %v", loaded.Doctrines)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("FORESIGHT_PROVIDER", "openai")
	t.Setenv("FORESIGHT_FORECAST__MAX_QUESTIONS", "5")
	t.Setenv("FORESIGHT_FORECAST__AGENT_TIMEOUT", "30s")
	t.Setenv("FORESIGHT_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Forecast.MaxQuestions != 5 {
		t.Errorf("nested int override failed: got %d", loaded.Forecast.MaxQuestions)
	}
	if loaded.Forecast.AgentTimeout != 30*time.Second {
		t.Errorf("duration override failed: got %v", loaded.Forecast.AgentTimeout)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server port override failed: got %d", loaded.Server.Port)
	}
	if loaded.Forecast.EvidenceTopK != 10 {
		t.Errorf("untouched keys must keep defaults, got %d", loaded.Forecast.EvidenceTopK)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("FORESIGHT_CACHE__REDIS_URL"); got != "cache.redis_url" {
		t.Errorf("envKey = %q", got)
	}
	if got := envKey("FORESIGHT_RATE_LIMIT_RPM"); got != "rate_limit_rpm" {
		t.Errorf("envKey = %q", got)
	}
}

func TestValidateValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "minimax" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"google embeddings", func(c *Config) { c.EmbeddingProvider = ProviderGoogle }},
		{"unknown quality", func(c *Config) { c.Quality = "ultra" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"negative rpm", func(c *Config) { c.RateLimitRPM = -1 }},
		{"zero top k", func(c *Config) { c.Forecast.EvidenceTopK = 0 }},
		{"zero max questions", func(c *Config) { c.Forecast.MaxQuestions = 0 }},
		{"zero concurrency", func(c *Config) { c.Forecast.CouncilConcurrency = 0 }},
		{"negative timeout", func(c *Config) { c.Forecast.EvidenceTimeout = -time.Second }},
		{"zero scenarios", func(c *Config) { c.Scenario.Count = 0 }},
		{"zero threshold", func(c *Config) { c.Scenario.SignalThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.Scenario.SignalThreshold = 1.5 }},
		{"zero bins", func(c *Config) { c.Calibration.NumBins = 0 }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Minute }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"webhook without scheme", func(c *Config) { c.Alerts.WebhookURLs = []string{"hooks.example.com/x"} }},
		{"non-http webhook", func(c *Config) { c.Alerts.WebhookURLs = []string{"ftp://hooks.example.com"} }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestValidateAcceptsWebhook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alerts.WebhookURLs = []string{"https://hooks.example.com/foresight"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("https webhook should be valid: %v", err)
	}
}

func TestValidateAcceptsThresholdOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenario.SignalThreshold = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("threshold 1 should be valid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	if p := GetPreset(ProviderAnthropic, QualityLite); p.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("expected haiku model, got %q", p.Model)
	}
	if p := GetPreset(ProviderOllama, QualityNormal); p.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("expected nomic embeddings, got %q", p.EmbeddingModel)
	}
	if p := GetPreset("unknown", QualityLite); p.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("expected fallback to sonnet, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		if got := APIKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" sun_tzu , clausewitz ", []string{"sun_tzu", "clausewitz"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
