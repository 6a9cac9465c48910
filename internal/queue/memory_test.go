package queue

import (
	"context"
	"testing"
	"time"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
)

func TestMemoryQueue_PriorityOrdering(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()
	now := time.Now()

	free := NewJob(uuid.New(), "free msg", "", models.TierFree, now)
	pro := NewJob(uuid.New(), "pro msg", "", models.TierPro, now)
	premium := NewJob(uuid.New(), "premium msg", "", models.TierPremium, now)

	// Submit lowest priority first
	for _, j := range []*Job{free, pro, premium} {
		if err := q.Enqueue(ctx, j); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	wantOrder := []models.Tier{models.TierPremium, models.TierPro, models.TierFree}
	for i, want := range wantOrder {
		job := q.Dequeue()
		if job == nil {
			t.Fatalf("dequeue %d: queue empty", i)
		}
		if job.UserTier != want {
			t.Errorf("dequeue %d: tier = %s, want %s", i, job.UserTier, want)
		}
	}
}

func TestMemoryQueue_FIFOWithinPriority(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()

	first := NewJob(uuid.New(), "first", "", models.TierFree, time.Now())
	second := NewJob(uuid.New(), "second", "", models.TierFree, time.Now().Add(time.Millisecond))

	_ = q.Enqueue(ctx, first)
	_ = q.Enqueue(ctx, second)

	if got := q.Dequeue(); got.ID != first.ID {
		t.Error("expected FIFO order within one priority level")
	}
}

func TestMemoryQueue_DuplicateSuppression(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()

	userID := uuid.New()
	ts := time.Now()
	job := NewJob(userID, "same message", "", models.TierFree, ts)
	dup := NewJob(userID, "same message", "", models.TierFree, ts)

	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, dup); err != nil {
		t.Fatalf("duplicate enqueue should be a silent no-op, got %v", err)
	}

	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1 after duplicate submission", q.Len())
	}
}

func TestMemoryQueue_RetryAttemptNotDeduplicated(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx := context.Background()

	job := NewJob(uuid.New(), "try again", "", models.TierFree, time.Now())
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	retry := *job
	retry.RetryCount = 1
	if err := q.Enqueue(ctx, &retry); err != nil {
		t.Fatalf("retry enqueue: %v", err)
	}

	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2: a bumped attempt is not a duplicate", q.Len())
	}
}

func TestMemoryQueue_Consume(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	job := NewJob(uuid.New(), "hello", "", models.TierPro, time.Now())
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.Job().ID != job.ID {
			t.Errorf("got job %s, want %s", msg.Job().ID, job.ID)
		}
		if err := msg.Ack(); err != nil {
			t.Errorf("ack: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestMemoryQueue_NackRequeue(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	job := NewJob(uuid.New(), "retry me", "", models.TierFree, time.Now())
	_ = q.Enqueue(ctx, job)

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	msg := <-msgs
	if err := msg.Nack(true); err != nil {
		t.Fatalf("nack: %v", err)
	}

	select {
	case again := <-msgs:
		if again.Job().ID != job.ID {
			t.Error("requeued job should be redelivered")
		}
	case <-ctx.Done():
		t.Fatal("requeued job never redelivered")
	}
}

func TestMemoryQueue_NackDeadLetters(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	job := NewJob(uuid.New(), "bad job", "", models.TierFree, time.Now())
	_ = q.Enqueue(ctx, job)

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	msg := <-msgs
	if err := msg.Nack(false); err != nil {
		t.Fatalf("nack: %v", err)
	}

	dead := q.DeadLetters()
	if len(dead) != 1 || dead[0].ID != job.ID {
		t.Errorf("DeadLetters = %v, want the nacked job", dead)
	}
}

func TestMemoryQueue_ExpiredJobDropped(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	past := time.Now().Add(-time.Minute)
	expired := NewJob(uuid.New(), "too late", "", models.TierPremium, time.Now())
	expired.NotAfter = &past
	fresh := NewJob(uuid.New(), "on time", "", models.TierFree, time.Now())

	_ = q.Enqueue(ctx, expired)
	_ = q.Enqueue(ctx, fresh)

	msgs, _, err := q.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.Job().ID != fresh.ID {
			t.Errorf("expired job should be skipped, got %s", msg.Job().ID)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for fresh job")
	}
}

func TestMemoryQueue_ClosedRejectsEnqueue(t *testing.T) {
	t.Parallel()

	q := NewMemoryQueue()
	_ = q.Close()

	if err := q.Enqueue(context.Background(), NewJob(uuid.New(), "x", "", models.TierFree, time.Now())); err == nil {
		t.Error("expected error enqueueing to a closed queue")
	}
	if err := q.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check failure on a closed queue")
	}
}
