package progress

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdvancedBlender is the optional historical-context blend used for higher
// tiers. Any failure falls back to the simple legacy blend; errors never
// reach the caller.
type AdvancedBlender interface {
	// Blend returns the merged value for one category given the old running
	// average, the new sample and the post-merge calculation count
	Blend(ctx context.Context, category models.Category, old int, sample float64, count int) (int, error)
}

const (
	// Legacy fallback blend weights when the advanced path is unavailable
	legacyOldWeight = 0.4
	legacyNewWeight = 0.6
)

// Aggregator merges message-level accuracy snapshots into per-user running
// averages. Merges for the same user must be serialized; callers hold the
// per-user lock (LockUser) across load-merge-store.
type Aggregator struct {
	blender AdvancedBlender
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewAggregator creates an aggregator. blender may be nil; advanced merges
// then use the legacy blend directly.
func NewAggregator(blender AdvancedBlender, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		blender: blender,
		logger:  logger,
		locks:   make(map[uuid.UUID]*userLock),
	}
}

// LockUser acquires the per-user merge lock and returns its release func.
// Two in-flight jobs for the same user serialize here; the queue-level
// dedup does not protect the merge boundary.
func (a *Aggregator) LockUser(userID uuid.UUID) func() {
	a.mu.Lock()
	l, ok := a.locks[userID]
	if !ok {
		l = &userLock{}
		a.locks[userID] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, userID)
		}
		a.mu.Unlock()
	}
}

// Merge folds a new message-level accuracy snapshot into the cumulative
// record using a count-weighted running average, computed independently per
// category. The result is rounded to an integer after each merge; rounding
// is not deferred, so a fraction of a point of drift can accumulate over
// many merges. That matches the historical behavior and is accepted.
//
// Merge never mutates its inputs. It returns the updated cumulative record
// and the skills patch downstream consumers read.
func (a *Aggregator) Merge(ctx context.Context, cur *models.CumulativeAccuracy, result *models.AccuracyResult, useAdvanced bool) (*models.CumulativeAccuracy, *models.SkillsUpdate) {
	count := 1
	if cur != nil {
		count = cur.CalculationCount + 1
	}

	updated := &models.CumulativeAccuracy{
		UserID:           result.UserID,
		Scores:           make(map[models.Category]int, len(models.AllCategories)),
		CalculationCount: count,
		LastCalculated:   time.Now(),
	}

	for _, c := range models.AllCategories {
		old := 0
		if cur != nil {
			old = cur.Scores[c]
		}
		updated.Scores[c] = a.mergeValue(ctx, c, old, result.Scores.Get(c), count, useAdvanced)
	}

	oldOverall := 0
	if cur != nil {
		oldOverall = cur.Overall
	}
	newOverall := result.AdjustedOverall
	if newOverall == 0 {
		newOverall = result.Scores.Overall
	}
	updated.Overall = a.mergeValue(ctx, "overall", oldOverall, newOverall, count, useAdvanced)

	patch := &models.SkillsUpdate{
		Accuracy:        updated.Overall,
		OverallAccuracy: updated.Overall,
		Grammar:         updated.Scores[models.CategoryGrammar],
		Vocabulary:      updated.Scores[models.CategoryVocabulary],
		Fluency:         updated.Scores[models.CategoryFluency],
	}

	return updated, patch
}

// mergeValue merges one category. First sample takes the new value outright;
// later samples take the count-weighted average. The advanced path, when
// requested, replaces the simple average; with no blender wired or on any
// blend failure it silently degrades to the legacy 0.4-old/0.6-new blend.
func (a *Aggregator) mergeValue(ctx context.Context, category models.Category, old int, sample float64, count int, useAdvanced bool) int {
	if count <= 1 {
		return roundScore(sample)
	}

	if useAdvanced {
		if a.blender != nil {
			merged, err := a.blender.Blend(ctx, category, old, sample, count)
			if err == nil {
				return clampInt(merged)
			}
			a.logger.Debug("advanced blend failed, using legacy fallback",
				zap.String("category", string(category)),
				zap.Error(err),
			)
		}
		return roundScore(legacyOldWeight*float64(old) + legacyNewWeight*sample)
	}

	return roundScore((float64(old)*float64(count-1) + sample) / float64(count))
}

func roundScore(v float64) int {
	return clampInt(int(math.Round(v)))
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
