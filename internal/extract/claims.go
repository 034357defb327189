package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// DefaultEntityTypes are the entity categories that make a sentence a claim
var DefaultEntityTypes = []string{"PERSON", "ORGANIZATION", "LOCATION", "DATE", "EVENT"}

// ClaimExtractor turns free text into candidate claims
type ClaimExtractor struct {
	recognizer EntityRecognizer
	allowed    map[string]bool
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(recognizer EntityRecognizer) *ClaimExtractor {
	allowed := make(map[string]bool, len(DefaultEntityTypes))
	for _, t := range DefaultEntityTypes {
		allowed[t] = true
	}
	return &ClaimExtractor{
		recognizer: recognizer,
		allowed:    allowed,
	}
}

// Extract returns the sentences that mention at least one allowed entity.
// Empty input yields no claims; input with no matching sentence yields the
// trimmed input as the only claim.
func (e *ClaimExtractor) Extract(ctx context.Context, text string) ([]model.Claim, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []model.Claim{}, nil
	}

	sentences, err := e.recognizer.Analyze(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("recognize entities: %w", err)
	}

	var claims []model.Claim
	for i, s := range sentences {
		entities := e.matching(s.Entities)
		if len(entities) == 0 {
			continue
		}
		sentence := strings.TrimSpace(s.Text)
		if sentence == "" {
			continue
		}
		claims = append(claims, model.Claim{
			Text:     sentence,
			Sentence: i,
			Entities: entities,
		})
	}

	if len(claims) == 0 {
		return []model.Claim{{Text: trimmed}}, nil
	}
	return claims, nil
}

// matching returns "TYPE:text" labels for entities in the allow-list
func (e *ClaimExtractor) matching(entities []Entity) []string {
	var out []string
	for _, ent := range entities {
		if e.allowed[ent.Type] {
			out = append(out, ent.Type+":"+ent.Text)
		}
	}
	return out
}
