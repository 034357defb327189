package model

import "time"

// ReasoningResult is the Reasoner's verdict for a claim and its evidence
type ReasoningResult struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning"`
	Strategy   string   `json:"-"` // llm, rules, heuristic
}

// VerifiedClaimRecord is the final pipeline output unit, one per extracted claim
type VerifiedClaimRecord struct {
	Claim      string    `json:"claim"`
	Verdict    Verdict   `json:"verdict"`
	Confidence float64   `json:"confidence"`
	Sources    []string  `json:"sources"`
	Evidence   []string  `json:"evidence"`
	Reasoning  string    `json:"reasoning"`
	Timestamp  time.Time `json:"timestamp"`
}

// DefaultReasoning is used when the reasoner produced no explanation
const DefaultReasoning = "No reasoning provided."

// Normalize replaces nil sequences with empty ones and clamps confidence,
// so records never serialize a null list.
func (r VerifiedClaimRecord) Normalize() VerifiedClaimRecord {
	if r.Sources == nil {
		r.Sources = []string{}
	}
	if r.Evidence == nil {
		r.Evidence = []string{}
	}
	r.Confidence = ClampConfidence(r.Confidence)
	return r
}

// Normalize applies the same sequence guarantees to a reasoning result
func (r ReasoningResult) Normalize() ReasoningResult {
	if r.Reasoning == nil {
		r.Reasoning = []string{}
	}
	r.Confidence = ClampConfidence(r.Confidence)
	return r
}
