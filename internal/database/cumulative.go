package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
)

// CumulativeAccuracyRepository handles per-user cumulative accuracy records
type CumulativeAccuracyRepository struct {
	db *DB
}

// NewCumulativeAccuracyRepository creates a new cumulative accuracy repository
func NewCumulativeAccuracyRepository(db *DB) *CumulativeAccuracyRepository {
	return &CumulativeAccuracyRepository{db: db}
}

// GetByUserID retrieves a user's cumulative accuracy, or nil when the user
// has no merged messages yet
func (r *CumulativeAccuracyRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CumulativeAccuracy, error) {
	cum := &models.CumulativeAccuracy{}
	var scoresJSON []byte

	query := `
		SELECT user_id, scores, overall, calculation_count, last_calculated
		FROM cumulative_accuracy
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cum.UserID,
		&scoresJSON,
		&cum.Overall,
		&cum.CalculationCount,
		&cum.LastCalculated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cumulative accuracy: %w", err)
	}

	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &cum.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cumulative scores: %w", err)
		}
	} else {
		cum.Scores = make(map[models.Category]int)
	}

	return cum, nil
}

// Upsert writes the merged cumulative record. The guard on calculation_count
// keeps the record monotonic: a stale merge can never roll history back.
// The per-user merge lock makes that guard a belt-and-braces check, not the
// primary serialization.
func (r *CumulativeAccuracyRepository) Upsert(ctx context.Context, cum *models.CumulativeAccuracy) error {
	scoresJSON, err := json.Marshal(cum.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal cumulative scores: %w", err)
	}

	query := `
		INSERT INTO cumulative_accuracy (user_id, scores, overall, calculation_count, last_calculated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET scores            = EXCLUDED.scores,
		    overall           = EXCLUDED.overall,
		    calculation_count = EXCLUDED.calculation_count,
		    last_calculated   = EXCLUDED.last_calculated
		WHERE cumulative_accuracy.calculation_count < EXCLUDED.calculation_count
	`

	_, err = r.db.ExecContext(ctx, query,
		cum.UserID,
		scoresJSON,
		cum.Overall,
		cum.CalculationCount,
		cum.LastCalculated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cumulative accuracy: %w", err)
	}

	return nil
}
