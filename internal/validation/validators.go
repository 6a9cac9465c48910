package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("tier", validateTier); err != nil {
		panic(fmt.Sprintf("failed to register tier validator: %v", err))
	}
	if err := Validate.RegisterValidation("severity", validateSeverity); err != nil {
		panic(fmt.Sprintf("failed to register severity validator: %v", err))
	}
	if err := Validate.RegisterValidation("proficiency", validateProficiency); err != nil {
		panic(fmt.Sprintf("failed to register proficiency validator: %v", err))
	}
}

// validateTier validates that a string is a valid Tier enum value
func validateTier(fl validator.FieldLevel) bool {
	return models.Tier(fl.Field().String()).IsValid()
}

// validateSeverity validates that a string is a valid Severity enum value
func validateSeverity(fl validator.FieldLevel) bool {
	return models.Severity(fl.Field().String()).IsValid()
}

// validateProficiency validates a proficiency level name. The accepted set
// mirrors the aliases scoring.ProfileForProficiency maps onto weight
// profiles.
func validateProficiency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "beginner", "elementary", "default", "intermediate", "advanced", "proficient":
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTier validates a Tier string value
func ValidateTier(value string) error {
	if !models.Tier(value).IsValid() {
		return fmt.Errorf("invalid tier: %s (must be 'free', 'pro', or 'premium')", value)
	}
	return nil
}

// ValidateSeverity validates a Severity string value
func ValidateSeverity(value string) error {
	if !models.Severity(value).IsValid() {
		return fmt.Errorf("invalid severity: %s", value)
	}
	return nil
}
