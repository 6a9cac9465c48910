package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
)

func resultWith(userID uuid.UUID, overall float64) *models.AccuracyResult {
	scores := make(map[models.Category]float64, len(models.AllCategories))
	for _, c := range models.AllCategories {
		scores[c] = overall
	}
	return &models.AccuracyResult{
		UserID:          userID,
		Scores:          models.CategoryScores{Scores: scores, Overall: overall},
		AdjustedOverall: overall,
	}
}

func TestAggregator_FirstMergeTakesSample(t *testing.T) {
	t.Parallel()

	a := NewAggregator(nil, nil)
	userID := uuid.New()

	updated, patch := a.Merge(context.Background(), nil, resultWith(userID, 80), false)

	if updated.CalculationCount != 1 {
		t.Errorf("CalculationCount = %d, want 1", updated.CalculationCount)
	}
	if updated.Overall != 80 {
		t.Errorf("Overall = %d, want 80", updated.Overall)
	}
	if updated.Scores[models.CategoryGrammar] != 80 {
		t.Errorf("grammar = %d, want 80", updated.Scores[models.CategoryGrammar])
	}
	if patch.Accuracy != 80 || patch.OverallAccuracy != 80 {
		t.Errorf("patch = %+v, want accuracy fields 80", patch)
	}
}

func TestAggregator_CountWeightedAverage(t *testing.T) {
	t.Parallel()

	a := NewAggregator(nil, nil)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := a.Merge(ctx, nil, resultWith(userID, 80), false)
	second, _ := a.Merge(ctx, first, resultWith(userID, 90), false)

	if second.CalculationCount != 2 {
		t.Errorf("CalculationCount = %d, want 2", second.CalculationCount)
	}
	if second.Overall != 85 {
		t.Errorf("Overall = %d, want 85 ((80+90)/2)", second.Overall)
	}

	third, _ := a.Merge(ctx, second, resultWith(userID, 100), false)
	if third.Overall != 90 {
		t.Errorf("Overall = %d, want 90 ((85*2+100)/3)", third.Overall)
	}
}

func TestAggregator_MergeOrderMatters(t *testing.T) {
	t.Parallel()

	// Per-merge rounding makes the running average sensitive to sample
	// order: it is a stateful fold, not a recomputation over history.
	a := NewAggregator(nil, nil)
	userID := uuid.New()
	ctx := context.Background()

	ab, _ := a.Merge(ctx, nil, resultWith(userID, 71), false)
	ab, _ = a.Merge(ctx, ab, resultWith(userID, 80), false)
	ab, _ = a.Merge(ctx, ab, resultWith(userID, 90), false)

	ba, _ := a.Merge(ctx, nil, resultWith(userID, 90), false)
	ba, _ = a.Merge(ctx, ba, resultWith(userID, 80), false)
	ba, _ = a.Merge(ctx, ba, resultWith(userID, 71), false)

	// 71,80 -> 76 (75.5 rounds up); 76*2+90 -> 80.67 -> 81
	if ab.Overall != 81 {
		t.Errorf("ascending merge = %d, want 81", ab.Overall)
	}
	// 90,80 -> 85; 85*2+71 -> 80.33 -> 80
	if ba.Overall != 80 {
		t.Errorf("descending merge = %d, want 80", ba.Overall)
	}
}

func TestAggregator_NotMutating(t *testing.T) {
	t.Parallel()

	a := NewAggregator(nil, nil)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := a.Merge(ctx, nil, resultWith(userID, 80), false)
	before := first.Scores[models.CategoryGrammar]

	_, _ = a.Merge(ctx, first, resultWith(userID, 20), false)

	if first.Scores[models.CategoryGrammar] != before {
		t.Error("Merge mutated the previous cumulative record")
	}
	if first.CalculationCount != 1 {
		t.Error("Merge mutated the previous calculation count")
	}
}

type stubBlender struct {
	value int
	err   error
	calls int
}

func (s *stubBlender) Blend(ctx context.Context, category models.Category, old int, sample float64, count int) (int, error) {
	s.calls++
	return s.value, s.err
}

func TestAggregator_AdvancedBlend(t *testing.T) {
	t.Parallel()

	blender := &stubBlender{value: 77}
	a := NewAggregator(blender, nil)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := a.Merge(ctx, nil, resultWith(userID, 80), true)
	if blender.calls != 0 {
		t.Error("first merge should not call the blender")
	}

	second, _ := a.Merge(ctx, first, resultWith(userID, 90), true)
	if blender.calls == 0 {
		t.Fatal("expected blender to be called on the second merge")
	}
	if second.Overall != 77 {
		t.Errorf("Overall = %d, want blender value 77", second.Overall)
	}
}

func TestAggregator_AdvancedBlendFailureFallsBack(t *testing.T) {
	t.Parallel()

	blender := &stubBlender{err: errors.New("model unavailable")}
	a := NewAggregator(blender, nil)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := a.Merge(ctx, nil, resultWith(userID, 80), true)
	second, _ := a.Merge(ctx, first, resultWith(userID, 90), true)

	// Legacy fallback: 0.4*80 + 0.6*90 = 86
	if second.Overall != 86 {
		t.Errorf("Overall = %d, want legacy fallback 86", second.Overall)
	}
}

func TestAggregator_AdvancedWithoutBlenderUsesLegacyBlend(t *testing.T) {
	t.Parallel()

	// Higher tiers request advanced blending even when no blender is
	// configured; the merge must take the legacy blend, not the plain average
	a := NewAggregator(nil, nil)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := a.Merge(ctx, nil, resultWith(userID, 80), true)
	second, _ := a.Merge(ctx, first, resultWith(userID, 90), true)

	// 0.4*80 + 0.6*90 = 86
	if second.Overall != 86 {
		t.Errorf("Overall = %d, want legacy blend 86", second.Overall)
	}
}

func TestAggregator_AdvancedNotRequestedSkipsBlender(t *testing.T) {
	t.Parallel()

	blender := &stubBlender{value: 1}
	a := NewAggregator(blender, nil)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := a.Merge(ctx, nil, resultWith(userID, 80), false)
	second, _ := a.Merge(ctx, first, resultWith(userID, 90), false)

	if blender.calls != 0 {
		t.Error("blender must not run when advanced blending is not requested")
	}
	if second.Overall != 85 {
		t.Errorf("Overall = %d, want simple average 85", second.Overall)
	}
}

func TestAggregator_LockUserSerializes(t *testing.T) {
	t.Parallel()

	a := NewAggregator(nil, nil)
	userID := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := a.LockUser(userID)
			defer release()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50: lock failed to serialize", counter)
	}
}

func TestAggregator_LockUserIndependentUsers(t *testing.T) {
	t.Parallel()

	a := NewAggregator(nil, nil)

	releaseA := a.LockUser(uuid.New())
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := a.LockUser(uuid.New())
		releaseB()
		close(done)
	}()

	<-done
}
