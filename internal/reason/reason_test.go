package reason

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verisense/internal/llm"
	"github.com/ppiankov/verisense/internal/model"
)

type fakeProvider struct {
	text string
	err  error
	last llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

func TestRuleReasoner(t *testing.T) {
	tests := []struct {
		name       string
		evidence   []string
		verdict    model.Verdict
		confidence float64
	}{
		{"false before true", []string{"FALSE - PolitiFact", "True - Snopes"}, model.VerdictFalse, 0.95},
		{"true before false still false", []string{"True - Snopes", "Misleading - AFP"}, model.VerdictFalse, 0.95},
		{"hoax", []string{"Hoax - Reuters"}, model.VerdictFalse, 0.95},
		{"accurate", []string{"Accurate - AP"}, model.VerdictTrue, 0.90},
		{"no keyword", []string{"Half-baked - Someone"}, model.VerdictNeedsReview, 0.60},
		{"empty", []string{}, model.VerdictUnverified, 0.50},
		{"nil", nil, model.VerdictUnverified, 0.50},
	}

	r := NewRuleReasoner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Reason(context.Background(), "claim", tt.evidence)
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, got.Verdict)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Len(t, got.Reasoning, 1)
		})
	}
}

func TestHeuristicReasoner(t *testing.T) {
	long := strings.Repeat("word ", 51)
	tests := []struct {
		name       string
		claim      string
		evidence   []string
		confidence float64
		line       string
	}{
		{"no evidence", "short", nil, 0.3, "No supporting evidence provided. Manual verification required."},
		{"blank evidence", "short", []string{"  ", ""}, 0.3, "No supporting evidence provided. Manual verification required."},
		{"long claim", long, []string{"x"}, 0.4, "Complex claim requires expert evaluation."},
		{"default", "short claim", []string{"x"}, 0.5, "Reasoning model unavailable. Requires manual fact-checking."},
	}

	h := NewHeuristicReasoner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Reason(context.Background(), tt.claim, tt.evidence)
			require.NoError(t, err)
			assert.Equal(t, model.VerdictNeedsReview, got.Verdict)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, []string{tt.line}, got.Reasoning)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		verdict string
	}{
		{"whole", `{"verdict":"False","confidence":0.8,"reasoning":"x"}`, "False"},
		{"prefix suffix", `prefix {"verdict":"True","confidence":0.7,"reasoning":"ok"} suffix`, "True"},
		{"fenced", "```json\n{\"verdict\":\"True\"}\n```", "True"},
		{"think block", "<think>weighing {options}</think>\n{\"verdict\":\"False\"}", "False"},
		{"garbage", "I cannot answer that.", "Needs Review"},
		{"broken", `{"verdict": "True",`, "Needs Review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := ExtractJSON(tt.input)
			assert.Equal(t, tt.verdict, obj["verdict"])
		})
	}
}

func TestExtractJSON_PrefixSuffixObject(t *testing.T) {
	obj := ExtractJSON(`prefix {"verdict":"True","confidence":0.7,"reasoning":"ok"} suffix`)
	assert.Equal(t, map[string]any{"verdict": "True", "confidence": 0.7, "reasoning": "ok"}, obj)
}

func TestExtractJSON_Template(t *testing.T) {
	obj := ExtractJSON("nothing here")
	assert.Equal(t, "Could not parse structured response", obj["reasoning"])
	assert.Equal(t, 0.3, obj["confidence"])
}

func TestLLMReasoner_Success(t *testing.T) {
	p := &fakeProvider{text: `Sure! {"verdict":"True","confidence":0.82,"reasoning":"Multiple outlets agree."}`}
	r := NewLLMReasoner(p, nil, nil)

	got, err := r.Reason(context.Background(), "The sky is blue", []string{"True - A", "Correct - B"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictTrue, got.Verdict)
	assert.Equal(t, 0.82, got.Confidence)
	assert.Equal(t, []string{"Multiple outlets agree."}, got.Reasoning)

	assert.Equal(t, SystemPrompt, p.last.System)
	assert.Contains(t, p.last.Prompt, `Claim: "The sky is blue"`)
	assert.Contains(t, p.last.Prompt, "True - A\nCorrect - B")
	assert.True(t, p.last.JSON, "verdict requests ask for a JSON object")
}

func TestLLMReasoner_NoEvidencePrompt(t *testing.T) {
	p := &fakeProvider{text: `{"verdict":"False"}`}
	_, err := NewLLMReasoner(p, nil, nil).Reason(context.Background(), "c", nil)
	require.NoError(t, err)
	assert.Contains(t, p.last.Prompt, "Evidence:\nNo evidence provided.")
}

func TestLLMReasoner_MissingFieldsDefault(t *testing.T) {
	p := &fakeProvider{text: `{}`}
	got, err := NewLLMReasoner(p, nil, nil).Reason(context.Background(), "c", nil)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNeedsReview, got.Verdict)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, []string{"No reasoning provided."}, got.Reasoning)
}

func TestLLMReasoner_Unparseable(t *testing.T) {
	p := &fakeProvider{text: "The claim appears to be accurate."}
	got, err := NewLLMReasoner(p, nil, nil).Reason(context.Background(), "c", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNeedsReview, got.Verdict)
	assert.Equal(t, 0.3, got.Confidence)
	assert.Equal(t, []string{"Could not parse structured response"}, got.Reasoning)
}

func TestLLMReasoner_ClampsAndCoerces(t *testing.T) {
	p := &fakeProvider{text: `{"verdict":"mixed","confidence":"1.7","reasoning":["a","b"]}`}
	got, err := NewLLMReasoner(p, nil, nil).Reason(context.Background(), "c", nil)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNeedsReview, got.Verdict)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, []string{"a b"}, got.Reasoning)
}

func TestLLMReasoner_ProviderFailureUsesFallback(t *testing.T) {
	p := &fakeProvider{err: errors.New("503 upstream")}

	got, err := NewLLMReasoner(p, NewHeuristicReasoner(), nil).Reason(context.Background(), "short claim", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNeedsReview, got.Verdict)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, StrategyHeuristic, got.Strategy)

	got, err = NewLLMReasoner(p, NewRuleReasoner(), nil).Reason(context.Background(), "c", []string{"False - X"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictFalse, got.Verdict)
	assert.Equal(t, StrategyRules, got.Strategy)
}

func TestLLMReasoner_NilProvider(t *testing.T) {
	got, err := NewLLMReasoner(nil, nil, nil).Reason(context.Background(), "c", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.3, got.Confidence)
}

func TestLLMReasoner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{err: context.Canceled}
	_, err := NewLLMReasoner(p, nil, nil).Reason(ctx, "c", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	r, err := New("rules", "", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &RuleReasoner{}, r)

	r, err = New("llm", "rules", &fakeProvider{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LLMReasoner{}, r)

	_, err = New("oracle", "", nil, nil)
	assert.Error(t, err)

	_, err = New("llm", "coin-flip", nil, nil)
	assert.Error(t, err)
}
