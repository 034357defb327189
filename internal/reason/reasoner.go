// Package reason turns a claim and its evidence lines into a verdict.
package reason

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/verisense/internal/llm"
	"github.com/ppiankov/verisense/internal/model"
)

// Strategy names
const (
	StrategyLLM       = "llm"
	StrategyRules     = "rules"
	StrategyHeuristic = "heuristic"
)

// Reasoner decides a verdict for a claim given only its evidence lines.
// Upstream failures are recovered into a result; the error return is
// reserved for cancellation of ctx.
type Reasoner interface {
	Reason(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error)
}

// ReasonerFunc adapts a function to the Reasoner interface
type ReasonerFunc func(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error)

// Reason calls f
func (f ReasonerFunc) Reason(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
	return f(ctx, claim, evidence)
}

// New builds the reasoner selected by mode. In "llm" mode a nil provider
// degrades to the fallback for every call.
func New(mode, fallback string, provider llm.Provider, logger *slog.Logger) (Reasoner, error) {
	switch strings.ToLower(mode) {
	case StrategyRules:
		return NewRuleReasoner(), nil
	case StrategyHeuristic:
		return NewHeuristicReasoner(), nil
	case StrategyLLM, "":
		fb, err := newFallback(fallback)
		if err != nil {
			return nil, err
		}
		return NewLLMReasoner(provider, fb, logger), nil
	default:
		return nil, fmt.Errorf("unknown reasoner mode: %s (supported: llm, rules, heuristic)", mode)
	}
}

func newFallback(name string) (Reasoner, error) {
	switch strings.ToLower(name) {
	case StrategyHeuristic, "":
		return NewHeuristicReasoner(), nil
	case StrategyRules:
		return NewRuleReasoner(), nil
	default:
		return nil, fmt.Errorf("unknown reasoner fallback: %s (supported: heuristic, rules)", name)
	}
}
