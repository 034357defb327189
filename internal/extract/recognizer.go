package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"google.golang.org/api/language/v1"
	"google.golang.org/api/option"
)

// ErrRecognizerUnavailable is returned when the entity model cannot be reached at startup
var ErrRecognizerUnavailable = errors.New("entity recognizer unavailable")

// Entity is a recognized entity mention inside a sentence
type Entity struct {
	Text string
	Type string
}

// Sentence is one sentence as segmented by the recognizer
type Sentence struct {
	Text     string
	Offset   int
	Entities []Entity
}

// EntityRecognizer segments text into sentences and tags entity mentions
type EntityRecognizer interface {
	Analyze(ctx context.Context, text string) ([]Sentence, error)
	Name() string
}

// GoogleRecognizerOptions configures the Cloud Natural Language adapter
type GoogleRecognizerOptions struct {
	APIKey     string
	Endpoint   string // Optional, used by tests
	HTTPClient *http.Client
}

// GoogleRecognizer uses Cloud Natural Language for sentence and entity analysis
type GoogleRecognizer struct {
	svc *language.Service
}

// NewGoogleRecognizer builds the recognizer once per process.
func NewGoogleRecognizer(ctx context.Context, opts GoogleRecognizerOptions) (*GoogleRecognizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: nlp api key is required", ErrRecognizerUnavailable)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	svc, err := language.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognizerUnavailable, err)
	}
	return &GoogleRecognizer{svc: svc}, nil
}

// Name returns the recognizer name
func (g *GoogleRecognizer) Name() string {
	return "google-nl"
}

// Analyze runs syntax analysis for sentence boundaries and entity analysis for
// mentions, then attaches each mention to the sentence that contains it.
func (g *GoogleRecognizer) Analyze(ctx context.Context, text string) ([]Sentence, error) {
	doc := &language.Document{Content: text, Type: "PLAIN_TEXT"}

	syntax, err := g.svc.Documents.AnalyzeSyntax(&language.AnalyzeSyntaxRequest{
		Document:     doc,
		EncodingType: "UTF8",
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("analyze syntax: %w", err)
	}

	entities, err := g.svc.Documents.AnalyzeEntities(&language.AnalyzeEntitiesRequest{
		Document:     doc,
		EncodingType: "UTF8",
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("analyze entities: %w", err)
	}

	var sentences []Sentence
	for _, s := range syntax.Sentences {
		if s == nil || s.Text == nil {
			continue
		}
		sentences = append(sentences, Sentence{
			Text:   s.Text.Content,
			Offset: int(s.Text.BeginOffset),
		})
	}
	sort.SliceStable(sentences, func(i, j int) bool { return sentences[i].Offset < sentences[j].Offset })

	for _, e := range entities.Entities {
		if e == nil {
			continue
		}
		for _, m := range e.Mentions {
			if m == nil || m.Text == nil {
				continue
			}
			idx := sentenceAt(sentences, int(m.Text.BeginOffset))
			if idx < 0 {
				continue
			}
			sentences[idx].Entities = append(sentences[idx].Entities, Entity{
				Text: m.Text.Content,
				Type: e.Type,
			})
		}
	}

	return sentences, nil
}

// sentenceAt returns the index of the last sentence starting at or before offset
func sentenceAt(sentences []Sentence, offset int) int {
	idx := sort.Search(len(sentences), func(i int) bool { return sentences[i].Offset > offset })
	return idx - 1
}
