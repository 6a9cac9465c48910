package scoring

import (
	"math"

	"github.com/fluentive/fluentive/internal/models"
)

// severityWeights are penalty units per finding, not percentages
var severityWeights = map[models.Severity]float64{
	models.SeverityCritical:   10,
	models.SeverityMajor:      6,
	models.SeverityHigh:       6,
	models.SeverityMedium:     3,
	models.SeverityLow:        1,
	models.SeveritySuggestion: 0,
}

// pointsPerPenaltyUnit converts penalty units into score points subtracted
// from the 100 baseline
const pointsPerPenaltyUnit = 2.5

const (
	shortMessageWords = 10
	longMessageWords  = 50

	shortMessageModifier = 0.95
	longMessageModifier  = 1.05
	questionModifier     = 1.02
)

// Input is everything the scorer needs for one message
type Input struct {
	Text        string
	Errors      []models.ErrorDetail
	Tier        models.Tier
	Proficiency string
}

// Scorer converts detected errors plus text statistics into category scores
// and a weighted overall. Stateless and safe for concurrent use.
type Scorer struct {
	profiles map[string]WeightProfile
}

// NewScorer creates a scorer over the given weight profiles
func NewScorer(profiles map[string]WeightProfile) *Scorer {
	if profiles == nil {
		profiles = BuiltinProfiles()
	}
	return &Scorer{profiles: profiles}
}

// Score computes per-category scores and the weighted overall.
//
// Empty text scores 100 everywhere: no evidence of error means no penalty.
// Single-word messages skip fluency and coherence (insufficient signal) and
// those weights drop out of the normalization denominator. Categories the
// tier does not analyze hold a neutral 100 placeholder in the score map but
// are likewise excluded from the overall's denominator so they neither drag
// nor inflate it.
func (s *Scorer) Score(in Input) models.CategoryScores {
	scores := make(map[models.Category]float64, len(models.AllCategories))

	wordCount := CountWords(in.Text)
	if wordCount == 0 {
		for _, c := range models.AllCategories {
			scores[c] = 100
		}
		return models.CategoryScores{Scores: scores, Overall: 100}
	}

	skipped := s.skippedCategories(in.Tier, wordCount)

	penalties := make(map[models.Category]float64)
	for i := range in.Errors {
		c := in.Errors[i].ScoringCategory()
		penalties[c] += severityWeights[in.Errors[i].Severity]
	}

	for _, c := range models.AllCategories {
		if skipped[c] {
			scores[c] = 100
			continue
		}
		scores[c] = clampScore(100 - penalties[c]*pointsPerPenaltyUnit)
	}

	overall := s.weightedOverall(scores, skipped, in)
	return models.CategoryScores{Scores: scores, Overall: overall}
}

// ApplyPenalties merges deferred penalty units (from the correction
// extractor) into existing category scores in a single step and recomputes
// the overall. The input scores are not mutated.
func (s *Scorer) ApplyPenalties(cs models.CategoryScores, penalties map[models.Category]float64, in Input) models.CategoryScores {
	if len(penalties) == 0 {
		return cs
	}

	merged := make(map[models.Category]float64, len(cs.Scores))
	for c, v := range cs.Scores {
		merged[c] = v
	}
	for c, units := range penalties {
		merged[c] = clampScore(merged[c] - units*pointsPerPenaltyUnit)
	}

	skipped := s.skippedCategories(in.Tier, CountWords(in.Text))
	overall := s.weightedOverall(merged, skipped, in)
	return models.CategoryScores{Scores: merged, Overall: overall}
}

// skippedCategories returns the categories excluded from the overall:
// tier-gated ones plus fluency/coherence for single-word messages
func (s *Scorer) skippedCategories(tier models.Tier, wordCount int) map[models.Category]bool {
	skipped := make(map[models.Category]bool)
	for _, c := range models.AllCategories {
		if !tier.AnalyzesCategory(c) {
			skipped[c] = true
		}
	}
	if wordCount == 1 {
		skipped[models.CategoryFluency] = true
		skipped[models.CategoryCoherence] = true
	}
	return skipped
}

// weightedOverall computes the weighted sum over non-skipped categories,
// renormalizing the weights, then applies context modifiers
func (s *Scorer) weightedOverall(scores map[models.Category]float64, skipped map[models.Category]bool, in Input) float64 {
	profile, ok := s.profiles[ProfileForProficiency(in.Proficiency)]
	if !ok {
		profile = s.profiles[ProfileDefault]
	}

	var sum, weightSum float64
	for _, c := range models.AllCategories {
		if skipped[c] {
			continue
		}
		w := profile.Weights[c]
		sum += scores[c] * w
		weightSum += w
	}

	overall := 100.0
	if weightSum > 0 {
		overall = sum / weightSum
	}

	overall *= lengthModifier(CountWords(in.Text))
	if IsQuestion(in.Text) {
		overall *= questionModifier
	}

	return clampScore(overall)
}

// lengthModifier buckets the message length: short messages carry a mild
// penalty, long ones a mild bonus
func lengthModifier(wordCount int) float64 {
	switch {
	case wordCount < shortMessageWords:
		return shortMessageModifier
	case wordCount > longMessageWords:
		return longMessageModifier
	default:
		return 1.0
	}
}

func clampScore(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
