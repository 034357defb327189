package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai", "groq":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, groq, anthropic, gemini, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.Config to llm.Config
func ConfigFromModel(cfg model.Config) Config {
	return Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	}
}
