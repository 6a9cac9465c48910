package progress

import (
	"math"

	"github.com/fluentive/fluentive/internal/models"
)

const (
	// streakBonusPerDay is the bonus rate added per consecutive practice day
	streakBonusPerDay = 0.05
	// maxBonusRate caps the combined streak + precision bonus
	maxBonusRate = 0.50
	// precisionBonus is the extra rate for accuracy >= precisionThreshold
	precisionBonus     = 0.10
	precisionThreshold = 95.0

	// accuracyBonusRate converts accuracy points into bonus XP, capped
	accuracyBonusRate = 0.2
	maxAccuracyBonus  = 20

	// Below penaltyThreshold accuracy, XP is docked along a linear curve
	penaltyThreshold = 60.0
	penaltyRate      = 0.3
)

// XPInput are the inputs to the XP derivation
type XPInput struct {
	BaseAmount       int
	Accuracy         float64
	StreakDays       int
	TierMultiplier   float64
	IsPerfectMessage bool
}

// CalculateTotalXP derives the XP reward for one scored message. Pure: no
// I/O, identical inputs yield identical output.
//
// Base XP grows linearly with accuracy up to a cap. The streak bonus adds 5%
// per day capped at 50% total; accuracy >= 95 stacks an extra 10% under the
// same cap, and a perfect message takes the full bonus headroom. The tier
// multiplier applies last, then the result is clamped to [floor, ceiling].
func CalculateTotalXP(in XPInput) models.XPCalculation {
	accuracy := math.Min(100, math.Max(0, in.Accuracy))
	tierMult := in.TierMultiplier
	if tierMult <= 0 {
		tierMult = 1.0
	}

	accuracyBonus := int(accuracy * accuracyBonusRate)
	if accuracyBonus > maxAccuracyBonus {
		accuracyBonus = maxAccuracyBonus
	}
	baseXP := in.BaseAmount + accuracyBonus

	streakBonus := float64(in.StreakDays) * streakBonusPerDay
	if streakBonus > maxBonusRate {
		streakBonus = maxBonusRate
	}

	precBonus := 0.0
	if accuracy >= precisionThreshold {
		precBonus = precisionBonus
	}

	bonusRate := streakBonus + precBonus
	if in.IsPerfectMessage && accuracy >= 100 {
		bonusRate = maxBonusRate
	}
	if bonusRate > maxBonusRate {
		bonusRate = maxBonusRate
	}

	penalty := 0
	if accuracy < penaltyThreshold {
		penalty = int((penaltyThreshold - accuracy) * penaltyRate)
	}

	net := int(math.Round(float64(baseXP)*(1+bonusRate)*tierMult)) - penalty
	if net < models.XPFloor {
		net = models.XPFloor
	}
	if net > models.XPCeiling {
		net = models.XPCeiling
	}

	return models.XPCalculation{
		BaseXP:         baseXP,
		AccuracyBonus:  accuracyBonus,
		StreakBonus:    streakBonus,
		PrecisionBonus: precBonus,
		TierMultiplier: tierMult,
		PenaltyAmount:  penalty,
		NetXP:          net,
		Floor:          models.XPFloor,
		Ceiling:        models.XPCeiling,
		IsPerfectBonus: in.IsPerfectMessage && accuracy >= 100,
	}
}

// LevelForXP derives a level from lifetime XP along a quadratic curve:
// level n requires 100*(n-1)^2 total XP.
func LevelForXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(totalXP)/100)) + 1
}
