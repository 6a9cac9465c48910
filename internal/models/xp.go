package models

const (
	// XPFloor is the minimum net XP any scored message can yield
	XPFloor = 5
	// XPCeiling is the maximum net XP any scored message can yield
	XPCeiling = 500
)

// XPCalculation records how a message's XP reward was derived.
// Invariant: Floor <= NetXP <= Ceiling.
type XPCalculation struct {
	BaseXP          int     `json:"base_xp"`
	AccuracyBonus   int     `json:"accuracy_bonus"`
	StreakBonus     float64 `json:"streak_bonus"`
	PrecisionBonus  float64 `json:"precision_bonus"`
	TierMultiplier  float64 `json:"tier_multiplier"`
	PenaltyAmount   int     `json:"penalty_amount"`
	NetXP           int     `json:"net_xp"`
	Floor           int     `json:"floor"`
	Ceiling         int     `json:"ceiling"`
	IsPerfectBonus  bool    `json:"is_perfect_bonus"`
}
