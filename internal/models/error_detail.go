package models

// ErrorType identifies the kind of linguistic issue a detector found
type ErrorType string

const (
	ErrorTypeGrammar        ErrorType = "grammar"
	ErrorTypeSpelling       ErrorType = "spelling"
	ErrorTypeVocabulary     ErrorType = "vocabulary"
	ErrorTypeFluency        ErrorType = "fluency"
	ErrorTypePunctuation    ErrorType = "punctuation"
	ErrorTypeCapitalization ErrorType = "capitalization"
	ErrorTypeSyntax         ErrorType = "syntax"
	ErrorTypeStyle          ErrorType = "style"
	ErrorTypeCoherence      ErrorType = "coherence"
	ErrorTypeIdiom          ErrorType = "idiom"
	ErrorTypeCollocation    ErrorType = "collocation"
	ErrorTypeSemantic       ErrorType = "semantic"
	ErrorTypeTextspeak      ErrorType = "textspeak"
)

// ErrorCategory is the coarse editorial grouping of an issue
type ErrorCategory string

const (
	ErrorCategoryCorrectness ErrorCategory = "correctness"
	ErrorCategoryClarity     ErrorCategory = "clarity"
	ErrorCategoryEngagement  ErrorCategory = "engagement"
	ErrorCategoryDelivery    ErrorCategory = "delivery"
	ErrorCategoryStyle       ErrorCategory = "style"
)

// Severity is the fixed severity scale detectors map their findings onto
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityMajor      Severity = "major"
	SeverityHigh       Severity = "high"
	SeverityMedium     Severity = "medium"
	SeverityLow        Severity = "low"
	SeveritySuggestion Severity = "suggestion"
)

// IsValid reports whether the severity is a known value
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityHigh, SeverityMedium, SeverityLow, SeveritySuggestion:
		return true
	default:
		return false
	}
}

// Position locates an issue within the analyzed text
type Position struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Word    string `json:"word,omitempty"`
	Context string `json:"context,omitempty"`
}

// ErrorDetail is one detected issue. Immutable once created; detectors return
// a fresh slice per analysis.
type ErrorDetail struct {
	Type         ErrorType     `json:"type"`
	Category     ErrorCategory `json:"category"`
	Message      string        `json:"message"`
	Position     Position      `json:"position"`
	Severity     Severity      `json:"severity"`
	Suggestion   string        `json:"suggestion,omitempty"`
	Alternatives []string      `json:"alternatives,omitempty"`
	Confidence   float64       `json:"confidence"`
	Source       string        `json:"source"`
}

// ScoringCategory maps the error type onto the category whose score it
// penalizes. Style-adjacent types fold into fluency; semantic and
// collocation issues fold into vocabulary.
func (e *ErrorDetail) ScoringCategory() Category {
	switch e.Type {
	case ErrorTypeGrammar:
		return CategoryGrammar
	case ErrorTypeSpelling, ErrorTypeTextspeak:
		return CategorySpelling
	case ErrorTypeVocabulary, ErrorTypeSemantic, ErrorTypeCollocation, ErrorTypeIdiom:
		return CategoryVocabulary
	case ErrorTypePunctuation:
		return CategoryPunctuation
	case ErrorTypeCapitalization:
		return CategoryCapitalization
	case ErrorTypeSyntax:
		return CategorySyntax
	case ErrorTypeCoherence:
		return CategoryCoherence
	default:
		return CategoryFluency
	}
}
