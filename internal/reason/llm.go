package reason

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ppiankov/verisense/internal/llm"
	"github.com/ppiankov/verisense/internal/model"
)

// SystemPrompt constrains the model to a single JSON verdict object
const SystemPrompt = `You are a factual reasoning assistant with advanced reasoning capabilities.
Analyze the claim and evidence carefully, then respond with ONLY a valid JSON object in this exact format:
{"verdict": "True" or "False" or "Needs Review", "reasoning": "Brief but thorough explanation", "confidence": 0.95}

Do not include any text outside the JSON object.`

const noEvidenceText = "No evidence provided."

// BuildPrompt renders the user message for a claim and its evidence lines
func BuildPrompt(claim string, evidence []string) string {
	evidenceText := strings.Join(evidence, "\n")
	if len(evidence) == 0 {
		evidenceText = noEvidenceText
	}
	return fmt.Sprintf("Claim: \"%s\"\n\nEvidence:\n%s\n\nAnalyze this claim using step-by-step reasoning and respond with only the JSON object.", claim, evidenceText)
}

// LLMReasoner asks a chat model for a structured verdict and falls back to
// another strategy when the call fails.
type LLMReasoner struct {
	provider llm.Provider
	fallback Reasoner
	logger   *slog.Logger
}

// NewLLMReasoner creates an LLM-backed reasoner
func NewLLMReasoner(provider llm.Provider, fallback Reasoner, logger *slog.Logger) *LLMReasoner {
	if fallback == nil {
		fallback = NewHeuristicReasoner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMReasoner{provider: provider, fallback: fallback, logger: logger}
}

// Reason sends one completion request; an unparseable reply is recovered by
// ExtractJSON, a failed call by the fallback strategy.
func (r *LLMReasoner) Reason(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
	if r.provider == nil {
		return r.fallback.Reason(ctx, claim, evidence)
	}

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		System: SystemPrompt,
		Prompt: BuildPrompt(claim, evidence),
		JSON:   true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.ReasoningResult{}, ctxErr
		}
		r.logger.Warn("reasoning model failed, using fallback", "provider", r.provider.Name(), "claim", claim, "error", err)
		return r.fallback.Reason(ctx, claim, evidence)
	}

	obj, ok := extractObject(resp.Text)
	if !ok {
		r.logger.Warn("reasoning model returned unparseable output", "provider", r.provider.Name(), "claim", claim)
	}
	return fromObject(obj), nil
}

// fromObject applies field defaults to a parsed verdict object
func fromObject(obj map[string]any) model.ReasoningResult {
	verdict := model.VerdictNeedsReview
	if s, ok := obj["verdict"].(string); ok {
		switch v := model.ParseVerdict(s); v {
		case model.VerdictTrue, model.VerdictFalse:
			verdict = v
		}
	}

	confidence := 0.5
	switch c := obj["confidence"].(type) {
	case float64:
		confidence = c
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil {
			confidence = f
		}
	}

	reasoning := model.DefaultReasoning
	switch v := obj["reasoning"].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			reasoning = v
		}
	case []any:
		var parts []string
		for _, p := range v {
			if s, ok := p.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			reasoning = strings.Join(parts, " ")
		}
	}

	return model.ReasoningResult{
		Verdict:    verdict,
		Confidence: model.ClampConfidence(confidence),
		Reasoning:  []string{reasoning},
		Strategy:   StrategyLLM,
	}
}
