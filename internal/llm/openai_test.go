package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAIProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var req openai.ChatCompletionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "qwen/qwen3-32b" {
			t.Errorf("Expected model qwen/qwen3-32b, got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("Expected system + user messages, got %+v", req.Messages)
		}
		if req.MaxCompletionTokens != 2048 {
			t.Errorf("Expected max_completion_tokens 2048, got %d", req.MaxCompletionTokens)
		}
		if req.TopP != 0.9 {
			t.Errorf("Expected top_p 0.9, got %v", req.TopP)
		}

		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: 1677652288,
			Model:   "qwen/qwen3-32b",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: `  {"verdict":"True","reasoning":"ok","confidence":0.9}  `,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 100},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		Provider:    "groq",
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Model:       "qwen/qwen3-32b",
		Timeout:     5,
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   2048,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.Name() != "groq" {
		t.Errorf("Expected name groq, got %s", provider.Name())
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "You are a factual reasoning assistant.",
		Prompt: "Claim: test",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"verdict":"True","reasoning":"ok","confidence":0.9}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Expected 100 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_GroqDefaultBaseURL(t *testing.T) {
	provider, err := NewOpenAIProvider(Config{Provider: "groq", APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.config.BaseURL != GroqBaseURL {
		t.Errorf("Expected Groq base URL, got %s", provider.config.BaseURL)
	}
}

func TestOpenAIProvider_MissingKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestOpenAIProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected wrapped *openai.APIError, got %T: %v", err, err)
	}
	if apiErr.HTTPStatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", apiErr.HTTPStatusCode)
	}
}

func TestOpenAIProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "x"})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIProvider_Complete_JSONMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Errorf("Expected json_object response format, got %+v", req.ResponseFormat)
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "{}"}}},
		})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "x", JSON: true}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}
