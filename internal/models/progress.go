package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is the durable per-user progress row
type UserProgress struct {
	UserID        uuid.UUID `json:"user_id"`
	TotalXP       int64     `json:"total_xp"`
	Level         int       `json:"level"`
	TotalMinutes  float64   `json:"total_minutes"`
	TotalMessages int64     `json:"total_messages"`
	StreakDays    int       `json:"streak_days"`
	AccuracySum   float64   `json:"accuracy_sum"`
	AccuracyCount int64     `json:"accuracy_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProgressDelta is one increment queued against a user's progress.
// Multiple deltas are coalesced in memory between flush cycles.
type ProgressDelta struct {
	Minutes         float64   `json:"minutes,omitempty"`
	Messages        int       `json:"messages,omitempty"`
	XP              int       `json:"xp,omitempty"`
	SessionSeconds  int       `json:"session_seconds,omitempty"`
	AccuracySamples []float64 `json:"accuracy_samples,omitempty"`
	HighPriority    bool      `json:"-"`
}

// Merge folds another delta into this one
func (d *ProgressDelta) Merge(other ProgressDelta) {
	d.Minutes += other.Minutes
	d.Messages += other.Messages
	d.XP += other.XP
	d.SessionSeconds += other.SessionSeconds
	d.AccuracySamples = append(d.AccuracySamples, other.AccuracySamples...)
	if other.HighPriority {
		d.HighPriority = true
	}
}

// IsZero reports whether the delta carries no increments
func (d *ProgressDelta) IsZero() bool {
	return d.Minutes == 0 && d.Messages == 0 && d.XP == 0 &&
		d.SessionSeconds == 0 && len(d.AccuracySamples) == 0
}
