package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to foresight! Let's configure your workspace.")
	fmt.Println()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"anthropic", "openai", "google", "openrouter", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   - fast and cheap",
			"normal - balanced",
			"max    - highest quality",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	quality := []QualityTier{QualityLite, QualityNormal, QualityMax}[qualityIdx]
	preset := GetPreset(provider, quality)

	modelPrompt := promptui.Prompt{Label: "Model", Default: preset.Model}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	cfg := DefaultConfig()

	doctrinePrompt := promptui.Prompt{Label: "Doctrine pack directory", Default: cfg.DoctrineDir}
	doctrineDir, err := doctrinePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("doctrine dir: %w", err)
	}

	selectPrompt := promptui.Prompt{
		Label:   "Doctrine ids to use (comma-separated, blank for all)",
		Default: "",
	}
	selected, err := selectPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("doctrine selection: %w", err)
	}

	cfg.Provider = provider
	cfg.Model = strings.TrimSpace(model)
	cfg.Quality = quality
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.DoctrineDir = strings.TrimSpace(doctrineDir)
	cfg.Doctrines = splitAndTrim(selected)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running foresight forecast.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all hosted providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

// splitAndTrim splits a comma-separated string, dropping blank entries.
func splitAndTrim(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
