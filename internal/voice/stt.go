// Package voice wraps speech-to-text and text-to-speech and runs uploaded
// audio through the verification pipeline.
package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Transcriber converts an audio file on disk to text
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// OpenAITranscriber uses the Whisper transcription endpoint
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates a transcriber on a shared client
func NewOpenAITranscriber(client *openai.Client, model string) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{client: client, model: model}
}

// Transcribe uploads the file and returns the recognized text
func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// NewClient builds the OpenAI client shared by the voice adapters
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
