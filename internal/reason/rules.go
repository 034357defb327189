package reason

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/ppiankov/verisense/internal/model"
)

var (
	falseKeywords = []string{"false", "misleading", "fake", "hoax", "unproven"}
	trueKeywords  = []string{"true", "accurate", "correct"}
)

// RuleReasoner is the deterministic keyword strategy. Negative keywords are
// checked across all evidence before positive ones.
type RuleReasoner struct{}

// NewRuleReasoner creates a rule-based reasoner
func NewRuleReasoner() *RuleReasoner {
	return &RuleReasoner{}
}

// Reason applies the keyword rules in priority order
func (r *RuleReasoner) Reason(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ReasoningResult{}, err
	}

	if line, kw, ok := r.firstMatch(evidence, falseKeywords); ok {
		return ruleResult(model.VerdictFalse, 0.95, fmt.Sprintf("Evidence %q is rated %q.", line, kw)), nil
	}
	if line, kw, ok := r.firstMatch(evidence, trueKeywords); ok {
		return ruleResult(model.VerdictTrue, 0.90, fmt.Sprintf("Evidence %q is rated %q.", line, kw)), nil
	}
	if len(evidence) > 0 {
		return ruleResult(model.VerdictNeedsReview, 0.60, "Evidence carries no decisive rating."), nil
	}
	return ruleResult(model.VerdictUnverified, 0.50, "No evidence available."), nil
}

func (r *RuleReasoner) firstMatch(evidence, keywords []string) (string, string, bool) {
	// Casers carry state, so each call gets its own
	fold := cases.Fold()
	for _, line := range evidence {
		folded := fold.String(line)
		for _, kw := range keywords {
			if strings.Contains(folded, kw) {
				return line, kw, true
			}
		}
	}
	return "", "", false
}

func ruleResult(v model.Verdict, confidence float64, line string) model.ReasoningResult {
	return model.ReasoningResult{
		Verdict:    v,
		Confidence: confidence,
		Reasoning:  []string{line},
		Strategy:   StrategyRules,
	}
}
