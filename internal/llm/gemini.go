package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// GeminiDefaultModel is used when no model is configured
const GeminiDefaultModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.Complete(ctx, CompletionRequest{Prompt: "Hi"})
	if err != nil {
		slog.Warn("Gemini API check failed", "error", err)
		return false
	}
	return true
}

// Complete generates content. Gemini has no system role, so the system
// instruction is prepended to the prompt.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, maxTokens, temperature, topP := p.config.resolve(GeminiDefaultModel)

	prompt := req.Prompt
	if req.System != "" {
		prompt = fmt.Sprintf("System: %s\n\nUser: %s", req.System, req.Prompt)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if topP > 0 {
		genConfig.TopP = genai.Ptr(float32(topP))
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &CompletionResponse{
		Text:       text,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}
