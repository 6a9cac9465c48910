package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/fluentive/fluentive/internal/services/semantic"
)

// VocabularyDetector wraps the semantic calibrator as a detector. It is the
// only network-backed detector; the registry's per-call timeout bounds it,
// and a failed or slow call degrades coverage rather than failing the
// pipeline.
type VocabularyDetector struct {
	calibrator semantic.Calibrator
}

// NewVocabularyDetector creates a vocabulary detector over a calibrator.
// A nil calibrator yields a permanently unavailable detector.
func NewVocabularyDetector(calibrator semantic.Calibrator) *VocabularyDetector {
	return &VocabularyDetector{calibrator: calibrator}
}

// Name identifies the detector
func (d *VocabularyDetector) Name() string { return "vocabulary-calibrator" }

// IsAvailable reports whether the calibrator is configured
func (d *VocabularyDetector) IsAvailable() bool {
	return d.calibrator != nil && d.calibrator.Ready()
}

// Confidence is the static trust weight for calibrator findings
func (d *VocabularyDetector) Confidence() float64 { return 0.7 }

// Detect asks the calibrator for vocabulary and semantic findings
func (d *VocabularyDetector) Detect(ctx context.Context, text string, cfg Config) ([]models.ErrorDetail, error) {
	if !d.IsAvailable() {
		return nil, fmt.Errorf("vocabulary calibrator unavailable")
	}

	findings, err := d.calibrator.Calibrate(ctx, text, cfg.Proficiency)
	if err != nil {
		return nil, fmt.Errorf("calibration failed: %w", err)
	}

	var out []models.ErrorDetail
	for _, f := range findings {
		issueType := findingErrorType(f.Kind)
		pos := locateWord(text, f.Word)
		out = append(out, models.ErrorDetail{
			Type:       issueType,
			Category:   models.ErrorCategoryClarity,
			Message:    f.Issue,
			Severity:   ClassifySeverity(issueType, f.Issue),
			Suggestion: f.Suggestion,
			Confidence: f.Confidence,
			Position:   pos,
		})
	}
	return out, nil
}

func findingErrorType(kind semantic.FindingKind) models.ErrorType {
	switch kind {
	case semantic.FindingSemantic:
		return models.ErrorTypeSemantic
	case semantic.FindingCollocation:
		return models.ErrorTypeCollocation
	case semantic.FindingIdiom:
		return models.ErrorTypeIdiom
	default:
		return models.ErrorTypeVocabulary
	}
}

// locateWord best-effort positions a calibrator finding within the text
func locateWord(text, word string) models.Position {
	if word == "" {
		return models.Position{}
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(word))
	if idx < 0 {
		return models.Position{Word: word}
	}
	end := idx + len(word)
	return models.Position{
		Start:   idx,
		End:     end,
		Word:    word,
		Context: surrounding(text, idx, end),
	}
}
