package evidence

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/ppiankov/verisense/internal/model"
)

var (
	positiveMarkers = []string{"true", "correct"}
	negativeMarkers = []string{"false", "fake"}
)

// ContainsAnyFold reports whether s contains any of the (lower-case) keywords, ignoring case.
func ContainsAnyFold(s string, keywords []string) bool {
	folded := cases.Fold().String(s)
	for _, k := range keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// Tally counts positive and negative ratings. A rating may count on both sides.
func Tally(reviews []model.Review) (positive, negative int) {
	for _, r := range reviews {
		if ContainsAnyFold(r.Rating, positiveMarkers) {
			positive++
		}
		if ContainsAnyFold(r.Rating, negativeMarkers) {
			negative++
		}
	}
	return positive, negative
}

// Classify derives a provisional verdict from the rating majority.
func Classify(reviews []model.Review) (model.Verdict, float64) {
	positive, negative := Tally(reviews)
	switch {
	case positive > negative:
		return model.VerdictTrue, 0.8
	case negative > positive:
		return model.VerdictFalse, 0.9
	default:
		return model.VerdictMixed, 0.6
	}
}

// Bundle builds the evidence bundle for a non-empty review list.
func Bundle(reviews []model.Review) model.EvidenceBundle {
	verdict, confidence := Classify(reviews)

	sources := make([]string, 0, len(reviews))
	texts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		sources = append(sources, r.Source)
		texts = append(texts, r.Rating+" - "+r.Source)
	}

	return model.EvidenceBundle{
		Verdict:    verdict,
		Confidence: confidence,
		Sources:    sources,
		Evidence:   texts,
		Reviews:    reviews,
	}
}
