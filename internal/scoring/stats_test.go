package scoring

import (
	"testing"

	"github.com/fluentive/fluentive/internal/models"
)

func TestCountWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \t\n  ", 0},
		{"single word", "hello", 1},
		{"simple sentence", "I went to school", 4},
		{"extra whitespace", "  I   went\tto\nschool  ", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CountWords(tt.text); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCountSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"no terminal punctuation", "hello there", 1},
		{"one sentence", "I went to school.", 1},
		{"mixed terminals", "I went to school. Did you go? Yes!", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CountSentences(tt.text); got != tt.want {
				t.Errorf("CountSentences(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsQuestion(t *testing.T) {
	t.Parallel()

	if !IsQuestion("How are you?") {
		t.Error("expected question")
	}
	if !IsQuestion("How are you?  ") {
		t.Error("trailing whitespace should not hide the question mark")
	}
	if IsQuestion("I am fine.") {
		t.Error("statement misclassified as question")
	}
	if IsQuestion("Why? Because.") {
		t.Error("only the final sentence decides")
	}
}

func TestBuildStatistics(t *testing.T) {
	t.Parallel()

	errs := []models.ErrorDetail{
		{Type: models.ErrorTypeGrammar, Severity: models.SeverityCritical},
		{Type: models.ErrorTypeSpelling, Severity: models.SeverityMedium},
		{Type: models.ErrorTypeTextspeak, Severity: models.SeverityLow},
	}

	stats := BuildStatistics("I goed to scool today.", errs)

	if stats.WordCount != 5 {
		t.Errorf("WordCount = %d, want 5", stats.WordCount)
	}
	if stats.SentenceCount != 1 {
		t.Errorf("SentenceCount = %d, want 1", stats.SentenceCount)
	}
	if stats.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3", stats.ErrorCount)
	}
	// Textspeak folds into the spelling category
	if stats.ErrorsByCategory[models.CategorySpelling] != 2 {
		t.Errorf("spelling errors = %d, want 2", stats.ErrorsByCategory[models.CategorySpelling])
	}
	if stats.ErrorsBySeverity[models.SeverityCritical] != 1 {
		t.Errorf("critical errors = %d, want 1", stats.ErrorsBySeverity[models.SeverityCritical])
	}
}

func TestBuildStatistics_NoErrors(t *testing.T) {
	t.Parallel()

	stats := BuildStatistics("All good here.", nil)
	if stats.ErrorsByCategory != nil || stats.ErrorsBySeverity != nil {
		t.Error("expected nil breakdown maps when there are no errors")
	}
}
