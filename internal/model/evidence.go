package model

// Review is a single rated claim review returned by the fact-check service
type Review struct {
	Text   string `json:"text"`   // Text of the matched claim
	Source string `json:"source"` // Publisher name ("Unknown" when absent)
	Rating string `json:"rating"` // Textual rating ("Unrated" when absent)
	URL    string `json:"url"`
}

// EvidenceBundle is the per-claim result of evidence gathering
type EvidenceBundle struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`  // Publisher names, parallel to Evidence
	Evidence   []string `json:"evidence"` // "{rating} - {source}" strings in review order
	Reviews    []Review `json:"reviews,omitempty"`
}

// NewUnverifiedBundle builds the degraded bundle used when no usable evidence exists
func NewUnverifiedBundle(confidence float64, reason string) EvidenceBundle {
	return EvidenceBundle{
		Verdict:    VerdictUnverified,
		Confidence: confidence,
		Sources:    []string{},
		Evidence:   []string{reason},
	}
}
