package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fluentive/fluentive/internal/models"
)

// ScoringConfigRepository stores operator-managed scoring configuration:
// weight profiles and tier multipliers. Managed via the configure CLI.
type ScoringConfigRepository struct {
	db *DB
}

// NewScoringConfigRepository creates a new scoring config repository
func NewScoringConfigRepository(db *DB) *ScoringConfigRepository {
	return &ScoringConfigRepository{db: db}
}

// GetWeights retrieves a stored weight profile by name, or nil when unset
func (r *ScoringConfigRepository) GetWeights(ctx context.Context, name string) (map[models.Category]float64, error) {
	var weightsJSON []byte
	query := `SELECT weights FROM weight_profiles WHERE name = $1`

	err := r.db.QueryRowContext(ctx, query, name).Scan(&weightsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get weight profile %s: %w", name, err)
	}

	weights := make(map[models.Category]float64)
	if err := json.Unmarshal(weightsJSON, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weight profile %s: %w", name, err)
	}
	return weights, nil
}

// SetWeights stores a weight profile
func (r *ScoringConfigRepository) SetWeights(ctx context.Context, name string, weights map[models.Category]float64) error {
	weightsJSON, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weight profile: %w", err)
	}

	query := `
		INSERT INTO weight_profiles (name, weights, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET weights = EXCLUDED.weights, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, name, weightsJSON, time.Now()); err != nil {
		return fmt.Errorf("failed to set weight profile %s: %w", name, err)
	}
	return nil
}

// ListProfiles returns the names of all stored weight profiles
func (r *ScoringConfigRepository) ListProfiles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM weight_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight profiles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan profile name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return names, nil
}
