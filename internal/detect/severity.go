package detect

import (
	"regexp"
	"strings"

	"github.com/fluentive/fluentive/internal/models"
)

// severityRule maps a native issue description onto the fixed severity scale.
// Rules are evaluated in order: category-specific critical patterns first,
// then major, then high, then the default-by-type table. Specific structural
// grammar problems always outrank generic style or typographical flags.
type severityRule struct {
	pattern  *regexp.Regexp
	severity models.Severity
}

var severityRules = []severityRule{
	// Critical: structural grammar the learner must fix
	{regexp.MustCompile(`subject[- ]verb`), models.SeverityCritical},
	{regexp.MustCompile(`double negat`), models.SeverityCritical},
	{regexp.MustCompile(`word order`), models.SeverityCritical},
	{regexp.MustCompile(`\badverbial\b`), models.SeverityCritical},

	// Major: tense and verb-form problems
	{regexp.MustCompile(`\btense\b`), models.SeverityMajor},
	{regexp.MustCompile(`verb form`), models.SeverityMajor},
	{regexp.MustCompile(`irregular verb`), models.SeverityMajor},

	// High: pronoun and preposition misuse
	{regexp.MustCompile(`\bpronoun\b`), models.SeverityHigh},
	{regexp.MustCompile(`\bpreposition\b`), models.SeverityHigh},
	{regexp.MustCompile(`\barticle\b`), models.SeverityHigh},
}

// defaultSeverityByType is the fallback when no pattern rule matches
var defaultSeverityByType = map[models.ErrorType]models.Severity{
	models.ErrorTypeGrammar:        models.SeverityMedium,
	models.ErrorTypeSpelling:       models.SeverityMedium,
	models.ErrorTypeVocabulary:     models.SeverityMedium,
	models.ErrorTypeSyntax:         models.SeverityMedium,
	models.ErrorTypeSemantic:       models.SeverityMedium,
	models.ErrorTypeFluency:        models.SeverityLow,
	models.ErrorTypePunctuation:    models.SeverityLow,
	models.ErrorTypeCapitalization: models.SeverityLow,
	models.ErrorTypeTextspeak:      models.SeverityLow,
	models.ErrorTypeIdiom:          models.SeverityLow,
	models.ErrorTypeCollocation:    models.SeverityLow,
	models.ErrorTypeCoherence:      models.SeverityLow,
	models.ErrorTypeStyle:          models.SeveritySuggestion,
}

// ClassifySeverity maps a detector's native issue description onto the fixed
// severity scale using the ordered pattern rules, falling back to the
// default-by-type table.
func ClassifySeverity(issueType models.ErrorType, description string) models.Severity {
	desc := strings.ToLower(description)
	for _, rule := range severityRules {
		if rule.pattern.MatchString(desc) {
			return rule.severity
		}
	}
	if sev, ok := defaultSeverityByType[issueType]; ok {
		return sev
	}
	return models.SeverityMedium
}
