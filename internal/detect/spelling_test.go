package detect

import (
	"context"
	"testing"

	"github.com/fluentive/fluentive/internal/models"
)

func TestDictionaryDetector_ConfusionMap(t *testing.T) {
	t.Parallel()

	d := NewDictionaryDetector(nil)
	found, err := d.Detect(context.Background(), "I recieve teh letter", Config{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(found) != 2 {
		t.Fatalf("findings = %d, want 2", len(found))
	}
	if found[0].Suggestion != "receive" {
		t.Errorf("first suggestion = %q, want receive", found[0].Suggestion)
	}
	if found[1].Suggestion != "the" {
		t.Errorf("second suggestion = %q, want the", found[1].Suggestion)
	}
	for _, f := range found {
		if f.Type != models.ErrorTypeSpelling {
			t.Errorf("Type = %s, want spelling", f.Type)
		}
	}
}

func TestDictionaryDetector_UnknownWordWithDictionary(t *testing.T) {
	t.Parallel()

	d := NewDictionaryDetector([]string{"hello", "world", "school"})
	found, err := d.Detect(context.Background(), "helo world", Config{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(found) != 1 {
		t.Fatalf("findings = %d, want 1 (only the unknown token)", len(found))
	}
	if found[0].Position.Word != "helo" {
		t.Errorf("Word = %q, want helo", found[0].Position.Word)
	}

	gotNeighbour := false
	for _, alt := range found[0].Alternatives {
		if alt == "hello" {
			gotNeighbour = true
		}
	}
	if !gotNeighbour {
		t.Errorf("Alternatives = %v, want to include hello", found[0].Alternatives)
	}
}

func TestDictionaryDetector_SkipsShortAndNumericTokens(t *testing.T) {
	t.Parallel()

	d := NewDictionaryDetector([]string{"hello"})
	found, err := d.Detect(context.Background(), "ok 4ever", Config{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("findings = %v, want none for short and digit-bearing tokens", found)
	}
}

func TestDictionaryDetector_NoDictionaryOnlyConfusionMap(t *testing.T) {
	t.Parallel()

	d := NewDictionaryDetector(nil)
	found, err := d.Detect(context.Background(), "xylqz frobnicate", Config{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("findings = %v, want none without a loaded word list", found)
	}
}

func TestDictionaryDetector_UnavailableFromMissingFile(t *testing.T) {
	t.Parallel()

	d := NewDictionaryDetectorFromFile("/nonexistent/wordlist.txt")

	if d.IsAvailable() {
		t.Error("detector should be unavailable after a failed load")
	}
	if d.LoadError() == nil {
		t.Error("expected LoadError to be set")
	}
	if _, err := d.Detect(context.Background(), "anything", Config{}); err == nil {
		t.Error("Detect on an unavailable detector should fail")
	}
}

func TestWithinEditDistanceOne(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"hello", "hello", true},
		{"helo", "hello", true},
		{"abc", "abd", true},
		{"abc", "abcd", true},
		{"abc", "abcde", false},
		{"abc", "xyz", false},
		{"", "a", true},
	}

	for _, tt := range tests {
		if got := withinEditDistanceOne(tt.a, tt.b); got != tt.want {
			t.Errorf("withinEditDistanceOne(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	toks := tokenize("Hi, there! It's me")

	want := []token{
		{word: "Hi", start: 0, end: 2},
		{word: "there", start: 4, end: 9},
		{word: "It's", start: 11, end: 15},
		{word: "me", start: 16, end: 18},
	}
	if len(toks) != len(want) {
		t.Fatalf("tokens = %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, toks[i], want[i])
		}
	}
}
