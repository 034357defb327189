package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
)

// Verifier runs the claim pipeline over one input text
type Verifier interface {
	Process(ctx context.Context, text string) pipeline.Outcome
}

// ClaimJob verifies one input line
type ClaimJob struct {
	Index    int
	Text     string
	Verifier Verifier
}

// Execute runs the pipeline for the job's text
func (j *ClaimJob) Execute(ctx context.Context) Result {
	return &ClaimResult{
		Index:   j.Index,
		Input:   j.Text,
		Outcome: j.Verifier.Process(ctx, j.Text),
	}
}

// ClaimResult is the pipeline outcome for one input line
type ClaimResult struct {
	Index   int
	Input   string
	Outcome pipeline.Outcome
}

// Position returns the input line's index
func (r *ClaimResult) Position() int {
	return r.Index
}

// Err returns the pipeline error, if any
func (r *ClaimResult) Err() error {
	return r.Outcome.Err
}

// Records returns the verified records for the input
func (r *ClaimResult) Records() []model.VerifiedClaimRecord {
	return r.Outcome.Records
}

// BatchProcessor verifies many texts concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessTexts verifies every text and returns results in input order
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*ClaimResult {
	if len(texts) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range texts {
		if !pool.Submit(&ClaimJob{Index: i, Text: text, Verifier: b.verifier}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*ClaimResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*ClaimResult))
	}
	return out
}

// ProcessFile reads texts from path ("-" for stdin) and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*ClaimResult, error) {
	texts, err := ReadTextsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessTexts(ctx, texts), nil
}

// ReadTextsFromFile reads one claim per line from path, or stdin when path is "-"
func ReadTextsFromFile(path string) ([]string, error) {
	if path == "-" {
		return ReadTexts(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadTexts(file)
}

// ReadTexts reads one claim per line, skipping blanks, comments and duplicates
func ReadTexts(r io.Reader) ([]string, error) {
	var texts []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			texts = append(texts, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return texts, nil
}
