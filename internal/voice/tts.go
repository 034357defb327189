package voice

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/verisense/internal/cache"
)

// Synthesizer renders text to an audio file and returns its servable name
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// OpenAISynthesizer uses the speech endpoint and keeps results in a FileStore
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	voice  string
	store  *cache.FileStore
}

// NewOpenAISynthesizer creates a synthesizer writing MP3 files into store
func NewOpenAISynthesizer(client *openai.Client, model, voice string, store *cache.FileStore) *OpenAISynthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAISynthesizer{client: client, model: model, voice: voice, store: store}
}

// Synthesize streams the generated speech into a new store file
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	defer func() { _ = resp.Close() }()

	name, f, err := s.store.Create()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp); err != nil {
		_ = f.Close()
		s.store.Discard(name)
		return "", fmt.Errorf("write speech: %w", err)
	}
	if err := f.Close(); err != nil {
		s.store.Discard(name)
		return "", fmt.Errorf("write speech: %w", err)
	}

	s.store.Commit(name)
	return name, nil
}
