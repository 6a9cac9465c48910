package detect

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/fluentive/fluentive/internal/models"
)

// commonMisspellings is the built-in confusion map, checked before any
// dictionary lookup so it works even without a word list loaded.
var commonMisspellings = map[string]string{
	"teh":       "the",
	"recieve":   "receive",
	"definately": "definitely",
	"seperate":  "separate",
	"occured":   "occurred",
	"untill":    "until",
	"wich":      "which",
	"becuase":   "because",
	"tommorow":  "tomorrow",
	"alot":      "a lot",
	"wierd":     "weird",
	"freind":    "friend",
	"beleive":   "believe",
	"grammer":   "grammar",
	"accross":   "across",
}

// DictionaryDetector is the spelling checker. When a word list is loaded it
// flags unknown tokens and suggests near neighbours; without one it still
// catches the built-in confusion map. A failed dictionary load leaves the
// detector in an unavailable state instead of failing startup.
type DictionaryDetector struct {
	words       map[string]struct{}
	unavailable bool
	loadErr     error
}

// NewDictionaryDetector creates a spelling detector over the given word list.
// An empty list disables full-dictionary checks but keeps the confusion map.
func NewDictionaryDetector(words []string) *DictionaryDetector {
	d := &DictionaryDetector{}
	if len(words) > 0 {
		d.words = make(map[string]struct{}, len(words))
		for _, w := range words {
			d.words[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
	return d
}

// NewDictionaryDetectorFromFile loads a newline-separated word list. On read
// failure the detector is returned in an unavailable state; the pipeline
// degrades coverage rather than crashing.
func NewDictionaryDetectorFromFile(path string) *DictionaryDetector {
	f, err := os.Open(path)
	if err != nil {
		return &DictionaryDetector{unavailable: true, loadErr: fmt.Errorf("dictionary load: %w", err)}
	}
	defer func() {
		_ = f.Close()
	}()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return &DictionaryDetector{unavailable: true, loadErr: fmt.Errorf("dictionary read: %w", err)}
	}
	return NewDictionaryDetector(words)
}

// Name identifies the detector
func (d *DictionaryDetector) Name() string { return "spelling" }

// IsAvailable reports whether the detector can run
func (d *DictionaryDetector) IsAvailable() bool { return !d.unavailable }

// Confidence is the static trust weight for spelling findings
func (d *DictionaryDetector) Confidence() float64 { return 0.9 }

// LoadError returns the dictionary load failure, if any
func (d *DictionaryDetector) LoadError() error { return d.loadErr }

// Detect scans tokens for known misspellings and, when a dictionary is
// loaded, for unknown words.
func (d *DictionaryDetector) Detect(ctx context.Context, text string, cfg Config) ([]models.ErrorDetail, error) {
	if d.unavailable {
		return nil, fmt.Errorf("spelling detector unavailable: %w", d.loadErr)
	}

	var found []models.ErrorDetail
	for _, tok := range tokenize(text) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lower := strings.ToLower(tok.word)
		if fix, ok := commonMisspellings[lower]; ok {
			found = append(found, d.finding(text, tok, fix, nil))
			continue
		}

		if d.words == nil || len(lower) < 3 || hasDigit(lower) {
			continue
		}
		if _, ok := d.words[lower]; ok {
			continue
		}
		found = append(found, d.finding(text, tok, "", d.nearNeighbours(lower, 3)))
	}
	return found, nil
}

func (d *DictionaryDetector) finding(text string, tok token, suggestion string, alternatives []string) models.ErrorDetail {
	return models.ErrorDetail{
		Type:         models.ErrorTypeSpelling,
		Category:     models.ErrorCategoryCorrectness,
		Message:      "spelling: unrecognized word",
		Severity:     ClassifySeverity(models.ErrorTypeSpelling, "spelling"),
		Suggestion:   suggestion,
		Alternatives: alternatives,
		Confidence:   d.Confidence(),
		Position: models.Position{
			Start:   tok.start,
			End:     tok.end,
			Word:    tok.word,
			Context: surrounding(text, tok.start, tok.end),
		},
	}
}

// nearNeighbours returns up to limit dictionary words within edit distance 1
func (d *DictionaryDetector) nearNeighbours(word string, limit int) []string {
	var out []string
	for candidate := range d.words {
		if len(out) >= limit {
			break
		}
		if withinEditDistanceOne(word, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// withinEditDistanceOne reports whether a and b differ by at most one
// substitution, insertion or deletion
func withinEditDistanceOne(a, b string) bool {
	la, lb := len(a), len(b)
	if la > lb {
		a, b, la, lb = b, a, lb, la
	}
	if lb-la > 1 {
		return false
	}
	i, j, edits := 0, 0, 0
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		edits++
		if edits > 1 {
			return false
		}
		if la == lb {
			i++
		}
		j++
	}
	if j < lb || i < la {
		edits++
	}
	return edits <= 1
}

type token struct {
	word  string
	start int
	end   int
}

// tokenize splits text into word tokens with their byte offsets,
// stripping surrounding punctuation
func tokenize(text string) []token {
	var toks []token
	start := -1
	for i, r := range text {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
		if isWord && start < 0 {
			start = i
		}
		if !isWord && start >= 0 {
			toks = append(toks, token{word: text[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		toks = append(toks, token{word: text[start:], start: start, end: len(text)})
	}
	return toks
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
