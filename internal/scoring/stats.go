package scoring

import (
	"strings"
	"unicode"

	"github.com/fluentive/fluentive/internal/models"
)

// CountWords counts whitespace-separated word tokens
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	}))
}

// CountSentences counts sentences by terminal punctuation. Text without any
// terminal mark counts as one sentence when non-empty.
func CountSentences(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// IsQuestion reports whether the message's final sentence is a question
func IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasSuffix(trimmed, "?")
}

// BuildStatistics summarizes the text and its findings
func BuildStatistics(text string, errs []models.ErrorDetail) models.TextStatistics {
	stats := models.TextStatistics{
		WordCount:     CountWords(text),
		SentenceCount: CountSentences(text),
		ErrorCount:    len(errs),
	}
	if len(errs) == 0 {
		return stats
	}
	stats.ErrorsByCategory = make(map[models.Category]int)
	stats.ErrorsBySeverity = make(map[models.Severity]int)
	for i := range errs {
		stats.ErrorsByCategory[errs[i].ScoringCategory()]++
		stats.ErrorsBySeverity[errs[i].Severity]++
	}
	return stats
}
