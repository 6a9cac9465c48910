package semantic

import (
	"context"
)

// FindingKind classifies a calibration finding
type FindingKind string

const (
	FindingVocabulary  FindingKind = "vocabulary"
	FindingSemantic    FindingKind = "semantic"
	FindingCollocation FindingKind = "collocation"
	FindingIdiom       FindingKind = "idiom"
)

// Finding is one vocabulary or semantic issue reported by the calibrator
type Finding struct {
	Kind       FindingKind `json:"kind"`
	Word       string      `json:"word"`
	Issue      string      `json:"issue"`
	Suggestion string      `json:"suggestion,omitempty"`
	Confidence float64     `json:"confidence"`
}

// Calibrator judges vocabulary fit and semantic coherence of learner text.
// Implementations are network-backed; callers apply their own timeout and
// treat failures as detector unavailability.
type Calibrator interface {
	// Calibrate analyzes text for a learner at the given proficiency and
	// returns vocabulary/semantic findings. A nil slice with nil error means
	// the text is clean.
	Calibrate(ctx context.Context, text string, proficiency string) ([]Finding, error)

	// Ready reports whether the calibrator is configured and usable
	Ready() bool
}
