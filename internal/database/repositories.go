package database

import (
	"context"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
)

// ProgressStore defines the progress repository operations the batcher and
// worker depend on. The interface enables mock implementations in tests.
type ProgressStore interface {
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta models.ProgressDelta) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error)
}

// CumulativeStore defines the cumulative accuracy repository operations
type CumulativeStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CumulativeAccuracy, error)
	Upsert(ctx context.Context, cum *models.CumulativeAccuracy) error
}

// Ensure concrete types implement the interfaces
var (
	_ ProgressStore   = (*ProgressRepository)(nil)
	_ CumulativeStore = (*CumulativeAccuracyRepository)(nil)
)
