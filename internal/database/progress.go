package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
)

// ProgressRepository handles the durable per-user progress rows
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ApplyDelta folds a coalesced delta into the user's progress row with a
// single atomic upsert. Concurrent flushes and direct writes never lose an
// increment: every column is an in-database addition, not a read-modify-write.
// The level is rederived from the post-increment XP inside the statement.
func (r *ProgressRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta models.ProgressDelta) error {
	var accuracySum float64
	for _, s := range delta.AccuracySamples {
		accuracySum += s
	}

	query := `
		INSERT INTO user_progress (user_id, total_xp, level, total_minutes, total_messages, accuracy_sum, accuracy_count, updated_at)
		VALUES ($1, $2, FLOOR(SQRT($2 / 100.0))::int + 1, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET total_xp       = user_progress.total_xp + EXCLUDED.total_xp,
		    level          = FLOOR(SQRT((user_progress.total_xp + EXCLUDED.total_xp) / 100.0))::int + 1,
		    total_minutes  = user_progress.total_minutes + EXCLUDED.total_minutes,
		    total_messages = user_progress.total_messages + EXCLUDED.total_messages,
		    accuracy_sum   = user_progress.accuracy_sum + EXCLUDED.accuracy_sum,
		    accuracy_count = user_progress.accuracy_count + EXCLUDED.accuracy_count,
		    updated_at     = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		delta.XP,
		delta.Minutes,
		delta.Messages,
		accuracySum,
		len(delta.AccuracySamples),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to apply progress delta for user %s: %w", userID, err)
	}

	return nil
}

// GetByUserID retrieves a user's progress row
func (r *ProgressRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	progress := &models.UserProgress{}
	query := `
		SELECT user_id, total_xp, level, total_minutes, total_messages, streak_days, accuracy_sum, accuracy_count, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.TotalXP,
		&progress.Level,
		&progress.TotalMinutes,
		&progress.TotalMessages,
		&progress.StreakDays,
		&progress.AccuracySum,
		&progress.AccuracyCount,
		&progress.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("progress not found for user %s", userID)
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return progress, nil
}

// SetStreak sets the user's current streak length
func (r *ProgressRepository) SetStreak(ctx context.Context, userID uuid.UUID, streakDays int) error {
	query := `
		UPDATE user_progress
		SET streak_days = $1, updated_at = $2
		WHERE user_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, streakDays, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set streak for user %s: %w", userID, err)
	}
	return nil
}
