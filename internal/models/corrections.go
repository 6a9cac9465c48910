package models

// ExtractedCorrection is one explicit correction found in the AI reply
type ExtractedCorrection struct {
	Original   string   `json:"original"`
	Suggestion string   `json:"suggestion"`
	Category   Category `json:"category"`
	Marker     string   `json:"marker"`
}

// CorrectionAnalysis is the correction extractor's output. Penalties are
// deferred: they are recorded here and merged into the category scores by
// the orchestrator in a single later step.
type CorrectionAnalysis struct {
	DetectedCorrections int                   `json:"detected_corrections"`
	NoCorrectionsNeeded bool                  `json:"no_corrections_needed"`
	SoftHints           int                   `json:"soft_hints"`
	Corrections         []ExtractedCorrection `json:"corrections,omitempty"`
	Penalties           map[Category]float64  `json:"penalties,omitempty"`
}
