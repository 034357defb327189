package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers with no text
var ErrEmptyResponse = errors.New("empty response from provider")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a system instruction plus a user prompt and returns the reply text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for a single chat completion
type CompletionRequest struct {
	// System is the instruction sent ahead of the prompt
	System string

	// Prompt is the user message
	Prompt string

	// JSON asks the provider for a JSON object response where supported
	JSON bool
}

// CompletionResponse contains the provider's reply
type CompletionResponse struct {
	// Text is the raw reply text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "groq", "anthropic", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (Groq, Ollama, proxies)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Sampling defaults
	Temperature float64
	TopP        float64

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     60,
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   2048,
	}
}

// resolve fills the model and token limit from defaults when unset
func (c Config) resolve(defaultModel string) (model string, maxTokens int, temperature, topP float64) {
	model = c.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens = c.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	return model, maxTokens, c.Temperature, c.TopP
}
