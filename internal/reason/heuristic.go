package reason

import (
	"context"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// complexClaimWords is the word count above which a claim needs an expert
const complexClaimWords = 50

// HeuristicReasoner is the last-resort strategy. It only ever answers
// Needs Review, with confidence reflecting how much there was to go on.
type HeuristicReasoner struct{}

// NewHeuristicReasoner creates a heuristic reasoner
func NewHeuristicReasoner() *HeuristicReasoner {
	return &HeuristicReasoner{}
}

// Reason inspects only evidence presence and claim length
func (h *HeuristicReasoner) Reason(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ReasoningResult{}, err
	}

	result := model.ReasoningResult{
		Verdict:  model.VerdictNeedsReview,
		Strategy: StrategyHeuristic,
	}

	switch {
	case !hasEvidence(evidence):
		result.Confidence = 0.3
		result.Reasoning = []string{"No supporting evidence provided. Manual verification required."}
	case len(strings.Fields(claim)) > complexClaimWords:
		result.Confidence = 0.4
		result.Reasoning = []string{"Complex claim requires expert evaluation."}
	default:
		result.Confidence = 0.5
		result.Reasoning = []string{"Reasoning model unavailable. Requires manual fact-checking."}
	}
	return result, nil
}

func hasEvidence(evidence []string) bool {
	for _, e := range evidence {
		if strings.TrimSpace(e) != "" {
			return true
		}
	}
	return false
}
