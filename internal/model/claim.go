package model

import "strings"

// Claim represents a candidate factual assertion extracted from input text
type Claim struct {
	Text     string   `json:"text"`               // The claim sentence itself
	Sentence int      `json:"sentence"`           // Sentence index in source (0-based)
	Entities []string `json:"entities,omitempty"` // Entity categories that qualified the sentence (e.g., "PERSON")
}

// ClaimTexts flattens claims to their text, preserving order
func ClaimTexts(claims []Claim) []string {
	texts := make([]string, 0, len(claims))
	for _, c := range claims {
		texts = append(texts, c.Text)
	}
	return texts
}

// Verdict is the credibility label attached to a claim
type Verdict string

const (
	VerdictTrue        Verdict = "True"
	VerdictFalse       Verdict = "False"
	VerdictMixed       Verdict = "Mixed"
	VerdictUnverified  Verdict = "Unverified"
	VerdictNeedsReview Verdict = "Needs Review"
	VerdictError       Verdict = "Error"
)

// ParseVerdict maps free text from an upstream service onto a known verdict.
// Matching ignores case; anything unrecognized becomes VerdictNeedsReview.
func ParseVerdict(s string) Verdict {
	s = strings.TrimSpace(s)
	for _, v := range []Verdict{VerdictTrue, VerdictFalse, VerdictMixed, VerdictUnverified, VerdictNeedsReview, VerdictError} {
		if strings.EqualFold(s, string(v)) {
			return v
		}
	}
	return VerdictNeedsReview
}

// ClampConfidence forces a confidence value into [0, 1]
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
