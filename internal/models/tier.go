package models

// Tier represents a subscription tier
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// Priority returns the queue priority for the tier. Lower values dequeue first.
func (t Tier) Priority() int {
	switch t {
	case TierPremium:
		return 1
	case TierPro:
		return 2
	default:
		return 3
	}
}

// Multiplier returns the XP multiplier for the tier
func (t Tier) Multiplier() float64 {
	switch t {
	case TierPremium:
		return 1.5
	case TierPro:
		return 1.25
	default:
		return 1.0
	}
}

// AnalyzesCategory reports whether this tier's analysis computes the given
// category. Categories not computed for a tier score as a neutral placeholder
// so they don't drag the overall down.
func (t Tier) AnalyzesCategory(c Category) bool {
	switch c {
	case CategoryCoherence:
		return t == TierPremium
	case CategorySyntax:
		return t == TierPro || t == TierPremium
	default:
		return true
	}
}

// IsValid reports whether the tier is a known value
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPro, TierPremium:
		return true
	default:
		return false
	}
}
