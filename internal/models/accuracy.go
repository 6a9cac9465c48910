package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one linguistic scoring dimension
type Category string

const (
	CategoryGrammar        Category = "grammar"
	CategoryVocabulary     Category = "vocabulary"
	CategorySpelling       Category = "spelling"
	CategoryFluency        Category = "fluency"
	CategoryPunctuation    Category = "punctuation"
	CategoryCapitalization Category = "capitalization"
	CategorySyntax         Category = "syntax"
	CategoryCoherence      Category = "coherence"
)

// AllCategories lists every scoring category in display order
var AllCategories = []Category{
	CategoryGrammar,
	CategoryVocabulary,
	CategorySpelling,
	CategoryFluency,
	CategoryPunctuation,
	CategoryCapitalization,
	CategorySyntax,
	CategoryCoherence,
}

// CategoryScores maps each category to a 0-100 score plus the weighted
// overall. Produced fresh per message; never mutated after return.
type CategoryScores struct {
	Scores  map[Category]float64 `json:"scores"`
	Overall float64              `json:"overall"`
}

// Get returns the score for a category, defaulting to a neutral 100
// when the category was not computed.
func (cs *CategoryScores) Get(c Category) float64 {
	if cs.Scores == nil {
		return 100
	}
	if v, ok := cs.Scores[c]; ok {
		return v
	}
	return 100
}

// TextStatistics summarizes the analyzed text and its findings
type TextStatistics struct {
	WordCount        int              `json:"word_count"`
	SentenceCount    int              `json:"sentence_count"`
	ErrorCount       int              `json:"error_count"`
	ErrorsByCategory map[Category]int `json:"errors_by_category,omitempty"`
	ErrorsBySeverity map[Severity]int `json:"errors_by_severity,omitempty"`
}

// ResultMetadata carries internal observability fields for a single analysis
type ResultMetadata struct {
	ProcessingTime   time.Duration `json:"processing_time"`
	Confidence       float64       `json:"confidence"`
	DetectionSources []string      `json:"detection_sources"`
	CacheHit         bool          `json:"cache_hit"`
}

// AccuracyResult is the full per-message analysis output. Created once per
// message; persisted as a historical append via the cumulative merge, never
// edited retroactively.
type AccuracyResult struct {
	UserID          uuid.UUID           `json:"user_id"`
	Scores          CategoryScores      `json:"scores"`
	AdjustedOverall float64             `json:"adjusted_overall"`
	Errors          []ErrorDetail       `json:"errors,omitempty"`
	Statistics      TextStatistics      `json:"statistics"`
	Corrections     *CorrectionAnalysis `json:"corrections,omitempty"`
	XP              *XPCalculation      `json:"xp,omitempty"`
	Metadata        ResultMetadata      `json:"metadata"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CumulativeAccuracy is a user's running average per category. Each merged
// message increments CalculationCount by exactly one; category values are
// the count-weighted average of every contribution so far, rounded to an
// integer after each merge.
type CumulativeAccuracy struct {
	UserID           uuid.UUID        `json:"user_id"`
	Scores           map[Category]int `json:"scores"`
	Overall          int              `json:"overall"`
	CalculationCount int              `json:"calculation_count"`
	LastCalculated   time.Time        `json:"last_calculated"`
}

// SkillsUpdate mirrors cumulative scores under the field names downstream
// consumers read. Accuracy and OverallAccuracy are duplicated deliberately:
// both names are live in consumers.
type SkillsUpdate struct {
	Accuracy        int `json:"accuracy"`
	OverallAccuracy int `json:"overallAccuracy"`
	Grammar         int `json:"grammar"`
	Vocabulary      int `json:"vocabulary"`
	Fluency         int `json:"fluency"`
}
