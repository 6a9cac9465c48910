package detect

import (
	"context"
	"regexp"
	"strings"

	"github.com/fluentive/fluentive/internal/models"
)

// languageRule is one pattern the rule detector checks. The message doubles
// as the native issue description fed to ClassifySeverity.
type languageRule struct {
	id         string
	pattern    *regexp.Regexp
	issueType  models.ErrorType
	category   models.ErrorCategory
	message    string
	suggestion string
}

var defaultLanguageRules = []languageRule{
	{
		id:        "subject_verb_agreement",
		pattern:   regexp.MustCompile(`(?i)\b(he|she|it)\s+(go|do|have|say|want|need|like|make|get|know|eat|run|play)\b`),
		issueType: models.ErrorTypeGrammar,
		category:  models.ErrorCategoryCorrectness,
		message:   "subject-verb agreement: third-person singular subject requires -s form",
	},
	{
		id:         "irregular_past_form",
		pattern:    regexp.MustCompile(`(?i)\b(goed|runned|eated|buyed|taked|maked|writed|thinked|comed|teached|catched)\b`),
		issueType:  models.ErrorTypeGrammar,
		category:   models.ErrorCategoryCorrectness,
		message:    "irregular verb form: this verb does not take a regular -ed past",
		suggestion: "",
	},
	{
		id:        "did_plus_past",
		pattern:   regexp.MustCompile(`(?i)\bdid\s+(went|ate|ran|saw|took|made|wrote|thought|came|bought)\b`),
		issueType: models.ErrorTypeGrammar,
		category:  models.ErrorCategoryCorrectness,
		message:   "tense: auxiliary 'did' takes the base verb form, not the past",
	},
	{
		id:        "double_negative",
		pattern:   regexp.MustCompile(`(?i)\b(don't|doesn't|didn't|can't|won't|never)\b[^.!?]*\b(no|nothing|nobody|nowhere|none)\b`),
		issueType: models.ErrorTypeGrammar,
		category:  models.ErrorCategoryCorrectness,
		message:   "double negative: two negative markers cancel each other",
	},
	{
		id:        "article_a_before_vowel",
		pattern:   regexp.MustCompile(`\b[Aa]\s+[aeiouAEIOU]\w+`),
		issueType: models.ErrorTypeGrammar,
		category:  models.ErrorCategoryCorrectness,
		message:   "article choice: use 'an' before a vowel sound",
	},
	{
		id:        "preposition_weekday",
		pattern:   regexp.MustCompile(`(?i)\bin\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		issueType: models.ErrorTypeGrammar,
		category:  models.ErrorCategoryCorrectness,
		message:   "preposition: days of the week take 'on', not 'in'",
	},
	{
		id:         "everyday_adverbial",
		pattern:    regexp.MustCompile(`(?i)\b(go|goes|went|come|comes|practice|practices|study|studies)\b[^.!?]*\beveryday\b`),
		issueType:  models.ErrorTypeGrammar,
		category:   models.ErrorCategoryCorrectness,
		message:    "word choice: 'everyday' is an adjective; the adverbial is 'every day'",
		suggestion: "every day",
	},
	{
		id:         "lowercase_pronoun_i",
		pattern:    regexp.MustCompile(`(^|\s)i(\s|'|$)`),
		issueType:  models.ErrorTypeCapitalization,
		category:   models.ErrorCategoryDelivery,
		message:    "capitalization: the pronoun 'I' is always uppercase",
		suggestion: "I",
	},
	{
		id:        "repeated_punctuation",
		pattern:   regexp.MustCompile(`[!?]{2,}`),
		issueType: models.ErrorTypePunctuation,
		category:  models.ErrorCategoryDelivery,
		message:   "punctuation: repeated terminal punctuation",
	},
	{
		id:        "textspeak",
		pattern:   regexp.MustCompile(`(?i)\b(ur|thx|plz|gonna|wanna|gotta|lol|omg|idk|btw|imo)\b`),
		issueType: models.ErrorTypeTextspeak,
		category:  models.ErrorCategoryStyle,
		message:   "textspeak: informal abbreviation",
	},
}

// irregularPastCorrections maps common over-regularized pasts to their forms
var irregularPastCorrections = map[string]string{
	"goed":    "went",
	"runned":  "ran",
	"eated":   "ate",
	"buyed":   "bought",
	"taked":   "took",
	"maked":   "made",
	"writed":  "wrote",
	"thinked": "thought",
	"comed":   "came",
	"teached": "taught",
	"catched": "caught",
}

// RuleDetector is the built-in language-rule checker. It is always
// available and runs locally with no I/O.
type RuleDetector struct {
	rules []languageRule
}

// NewRuleDetector creates a rule detector with the default rule set
func NewRuleDetector() *RuleDetector {
	return &RuleDetector{rules: defaultLanguageRules}
}

// Name identifies the detector
func (d *RuleDetector) Name() string { return "language-rules" }

// IsAvailable reports whether the detector can run; the rule detector always can
func (d *RuleDetector) IsAvailable() bool { return true }

// Confidence is the static trust weight for rule-based findings
func (d *RuleDetector) Confidence() float64 { return 0.85 }

// Detect scans text against every rule and returns one finding per match
func (d *RuleDetector) Detect(ctx context.Context, text string, cfg Config) ([]models.ErrorDetail, error) {
	var found []models.ErrorDetail

	for _, rule := range d.rules {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			word := text[loc[0]:loc[1]]
			suggestion := rule.suggestion
			if rule.id == "irregular_past_form" {
				if fix, ok := irregularPastCorrections[strings.ToLower(strings.TrimSpace(word))]; ok {
					suggestion = fix
				}
			}
			found = append(found, models.ErrorDetail{
				Type:       rule.issueType,
				Category:   rule.category,
				Message:    rule.message,
				Severity:   ClassifySeverity(rule.issueType, rule.message),
				Suggestion: suggestion,
				Confidence: d.Confidence(),
				Position: models.Position{
					Start:   loc[0],
					End:     loc[1],
					Word:    strings.TrimSpace(word),
					Context: surrounding(text, loc[0], loc[1]),
				},
			})
		}
	}

	found = append(found, d.repeatedWords(text)...)

	return found, nil
}

// repeatedWords flags immediately doubled words ("the the"). Backreferences
// are not expressible in RE2, so this runs as a token scan.
func (d *RuleDetector) repeatedWords(text string) []models.ErrorDetail {
	var found []models.ErrorDetail
	toks := tokenize(text)
	for i := 1; i < len(toks); i++ {
		prev, cur := toks[i-1], toks[i]
		if !strings.EqualFold(prev.word, cur.word) {
			continue
		}
		// Only adjacent repeats separated by whitespace count; "no, no" is
		// legitimate emphasis
		if strings.TrimSpace(text[prev.end:cur.start]) != "" {
			continue
		}
		found = append(found, models.ErrorDetail{
			Type:       models.ErrorTypeFluency,
			Category:   models.ErrorCategoryClarity,
			Message:    "fluency: repeated word",
			Severity:   ClassifySeverity(models.ErrorTypeFluency, "fluency: repeated word"),
			Confidence: d.Confidence(),
			Position: models.Position{
				Start:   prev.start,
				End:     cur.end,
				Word:    text[prev.start:cur.end],
				Context: surrounding(text, prev.start, cur.end),
			},
		})
	}
	return found
}

// surrounding returns up to 30 characters of context on each side of a match
func surrounding(text string, start, end int) string {
	const pad = 30
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
