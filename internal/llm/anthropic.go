package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ppiankov/verisense/internal/util"
)

// AnthropicDefaultModel is used when no model is configured
const AnthropicDefaultModel = "claude-3-5-sonnet-20241022"

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	client anthropic.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0), // Every upstream call is attempted once
		option.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.Complete(ctx, CompletionRequest{
		Prompt: "Hi",
	})
	if err != nil {
		slog.Warn("Anthropic API check failed", "error", err)
		return false
	}
	return true
}

// Complete sends one message to the Messages API
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, maxTokens, temperature, topP := p.config.resolve(AnthropicDefaultModel)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(temperature),
	}
	if topP > 0 && topP < 1 {
		params.TopP = anthropic.Float(topP)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		}
	}

	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	return &CompletionResponse{
		Text:       reply,
		Model:      string(message.Model),
		TokensUsed: int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}, nil
}

func wrapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401:
			return fmt.Errorf("anthropic authentication failed: check API key (%d): %w", apiErr.StatusCode, err)
		case 429:
			return fmt.Errorf("anthropic rate limit exceeded: %w", err)
		default:
			return fmt.Errorf("anthropic API error (%d): %w", apiErr.StatusCode, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("anthropic request timeout: %w", err)
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
