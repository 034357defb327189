package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
)

const (
	// DefaultClosingUtterance is spoken back once all claims are processed
	DefaultClosingUtterance = "All claims processed. Check the dashboard for details."

	unintelligibleAudio = "Could not understand the audio. Please speak more clearly."
)

// Verifier runs the claim pipeline over text
type Verifier interface {
	Process(ctx context.Context, text string) pipeline.Outcome
}

// Result is the response to one uploaded clip
type Result struct {
	Transcript string                      `json:"transcript"`
	Results    []model.VerifiedClaimRecord `json:"results"`
	SpeechFile string                      `json:"speech_file"`
}

// Processor handles an uploaded clip end to end
type Processor struct {
	transcriber Transcriber
	synthesizer Synthesizer
	verifier    Verifier
	closing     string
	logger      *slog.Logger
}

// NewProcessor wires the voice flow
func NewProcessor(t Transcriber, s Synthesizer, v Verifier, closing string, logger *slog.Logger) *Processor {
	if closing == "" {
		closing = DefaultClosingUtterance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		transcriber: t,
		synthesizer: s,
		verifier:    v,
		closing:     closing,
		logger:      logger,
	}
}

// Process saves the upload to a temp file, transcribes it, verifies the
// transcript and synthesizes the closing utterance. A failed or empty
// transcription is reported in the transcript text and nothing is verified;
// a failed synthesis leaves SpeechFile empty.
func (p *Processor) Process(ctx context.Context, upload io.Reader, filename string) (*Result, error) {
	path, err := p.saveUpload(upload, filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(path) }()

	records := []model.VerifiedClaimRecord{}
	transcript, err := p.transcriber.Transcribe(ctx, path)
	switch {
	case err != nil:
		p.logger.Warn("transcription failed", "file", filename, "error", err)
		transcript = fmt.Sprintf("Speech API error. Check your network or API limits: %v", err)
	case strings.TrimSpace(transcript) == "":
		transcript = unintelligibleAudio
	default:
		records = p.verifier.Process(ctx, transcript).Records
	}

	speechFile, err := p.synthesizer.Synthesize(ctx, p.closing)
	if err != nil {
		p.logger.Warn("speech synthesis failed", "error", err)
		speechFile = ""
	}

	return &Result{
		Transcript: transcript,
		Results:    records,
		SpeechFile: speechFile,
	}, nil
}

func (p *Processor) saveUpload(upload io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filepath.Base(filename))
	f, err := os.CreateTemp("", "verisense-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}
	if _, err := io.Copy(f, upload); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("save upload: %w", err)
	}
	return f.Name(), nil
}
