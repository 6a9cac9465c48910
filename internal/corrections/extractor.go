package corrections

import (
	"regexp"
	"strings"

	"github.com/fluentive/fluentive/internal/models"
	"go.uber.org/zap"
)

// Matching is intentionally strict: only explicit, structurally-marked
// corrections count. Free-text hints ("mistake", "incorrect") are logged but
// never counted, so conversational praise can't produce false penalties.
var (
	bracketMarker = regexp.MustCompile(`(?i)\[CORRECTION:\s*"([^"]+)"\s*(?:->|→)\s*"([^"]+)"\s*\]`)
	quotedArrow   = regexp.MustCompile(`"([^"]+)"\s*(?:->|→|⇒)\s*"([^"]+)"`)
	pairedBlock   = regexp.MustCompile(`(?im)^[ \t]*(?:original|you said|you wrote)[ \t]*:[ \t]*"?([^"\n]+?)"?[ \t]*$\n[ \t]*(?:improved|better|corrected|correction)[ \t]*:[ \t]*"?([^"\n]+?)"?[ \t]*$`)

	noCorrectionsSignal = regexp.MustCompile(`(?i)\bno corrections? (?:are )?needed\b|\bnothing to correct\b`)
	softHintWords       = regexp.MustCompile(`(?i)\b(mistake|incorrect|error|wrong)\b`)
)

const (
	// unitsPerCorrection is the penalty weight of one confirmed correction
	unitsPerCorrection = 2.0
	// maxUnitsPerCategory caps penalty units per category; marginal signal
	// diminishes past a handful of corrections
	maxUnitsPerCategory = 5.0

	// Triviality thresholds for paired original/improved blocks: a rewrite
	// counts only when Jaccard similarity < jaccardThreshold OR normalized
	// edit ratio > editRatioThreshold
	jaccardThreshold   = 0.8
	editRatioThreshold = 0.15
)

// Extractor scans AI replies for explicit correction markers and computes
// deferred penalty adjustments. Penalties are recorded, not applied: the
// orchestrator merges them into category scores in a single later step.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a correction extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract analyzes the AI's reply (not the user's message). An explicit
// "no corrections needed" signal is noted in the result but must not
// suppress independently-detected penalties; that suppression never happens
// here because the extractor only ever adds penalties.
func (e *Extractor) Extract(aiResponse string) *models.CorrectionAnalysis {
	analysis := &models.CorrectionAnalysis{
		Penalties: make(map[models.Category]float64),
	}

	remaining := aiResponse

	for _, m := range bracketMarker.FindAllStringSubmatch(remaining, -1) {
		e.record(analysis, m[1], m[2], "bracket")
	}
	remaining = bracketMarker.ReplaceAllString(remaining, "")

	for _, m := range quotedArrow.FindAllStringSubmatch(remaining, -1) {
		e.record(analysis, m[1], m[2], "arrow")
	}
	remaining = quotedArrow.ReplaceAllString(remaining, "")

	for _, m := range pairedBlock.FindAllStringSubmatch(remaining, -1) {
		original, improved := m[1], m[2]
		if !isNonTrivialRewrite(original, improved) {
			continue
		}
		e.record(analysis, original, improved, "paired")
	}

	if noCorrectionsSignal.MatchString(aiResponse) {
		analysis.NoCorrectionsNeeded = true
	}

	if hints := softHintWords.FindAllString(aiResponse, -1); len(hints) > 0 {
		analysis.SoftHints = len(hints)
		e.logger.Debug("soft correction hints present but not counted",
			zap.Int("hints", len(hints)),
		)
	}

	// Cap after counting: marginal signal diminishes
	for c, units := range analysis.Penalties {
		if units > maxUnitsPerCategory {
			analysis.Penalties[c] = maxUnitsPerCategory
		}
	}

	return analysis
}

func (e *Extractor) record(analysis *models.CorrectionAnalysis, original, improved, marker string) {
	original = normalize(original)
	improved = normalize(improved)
	if original == "" || improved == "" || original == improved {
		return
	}

	category := classifyCorrection(original, improved)
	analysis.Corrections = append(analysis.Corrections, models.ExtractedCorrection{
		Original:   original,
		Suggestion: improved,
		Category:   category,
		Marker:     marker,
	})
	analysis.DetectedCorrections++
	analysis.Penalties[category] += unitsPerCorrection
}

// isNonTrivialRewrite filters copy-edits that don't indicate a genuine error
// fix. Both measures are cheap approximations; either one flagging a real
// difference is enough.
func isNonTrivialRewrite(original, improved string) bool {
	return JaccardSimilarity(original, improved) < jaccardThreshold ||
		LevenshteinRatio(strings.ToLower(original), strings.ToLower(improved)) > editRatioThreshold
}

// classifyCorrection maps a correction pair onto the category it penalizes
func classifyCorrection(original, improved string) models.Category {
	origWords := strings.Fields(original)
	imprWords := strings.Fields(improved)

	if len(origWords) == 1 && len(imprWords) == 1 {
		if LevenshteinRatio(original, improved) <= 0.4 {
			return models.CategorySpelling
		}
		return models.CategoryVocabulary
	}

	// Heavily rewritten sentences point at fluency rather than a single
	// grammatical slot
	if JaccardSimilarity(original, improved) < 0.3 {
		return models.CategoryFluency
	}
	return models.CategoryGrammar
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
