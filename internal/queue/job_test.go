package queue

import (
	"testing"
	"time"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ts := time.Now()

	job := NewJob(userID, "I goed to school", "Nice try! [CORRECTION: \"I goed\" -> \"I went\"]", models.TierPro, ts)

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.UserID != userID {
		t.Errorf("Expected user ID to be %s, got %s", userID, job.UserID)
	}
	if job.UserTier != models.TierPro {
		t.Errorf("Expected tier to be %s, got %s", models.TierPro, job.UserTier)
	}
	if job.RetryCount != 0 {
		t.Errorf("Expected retry count to be 0, got %d", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("Expected max retries to be 3, got %d", job.MaxRetries)
	}
}

func TestNewJob_SanitizesMessage(t *testing.T) {
	t.Parallel()

	job := NewJob(uuid.New(), "  hello\x00 world  ", "", models.TierFree, time.Now())

	if job.UserMessage != "hello world" {
		t.Errorf("UserMessage = %q, want trimmed and control-char free", job.UserMessage)
	}
}

func TestJob_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *Job {
		return NewJob(uuid.New(), "hello", "hi there", models.TierFree, time.Now())
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid job rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Job)
	}{
		{"missing user id", func(j *Job) { j.UserID = uuid.Nil }},
		{"empty message", func(j *Job) { j.UserMessage = "" }},
		{"unknown tier", func(j *Job) { j.UserTier = "platinum" }},
		{"unknown proficiency", func(j *Job) { j.Proficiency = "wizard" }},
		{"negative streak", func(j *Job) { j.StreakDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := valid()
			tt.mutate(job)
			if err := job.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestJob_ValidateAcceptsKnownProficiencies(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", "beginner", "elementary", "default", "intermediate", "advanced", "proficient"} {
		job := NewJob(uuid.New(), "hello", "", models.TierPro, time.Now())
		job.Proficiency = p
		if err := job.Validate(); err != nil {
			t.Errorf("proficiency %q rejected: %v", p, err)
		}
	}
}

func TestJobID_Deterministic(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ts := time.Now()

	first := JobID(userID, ts)
	second := JobID(userID, ts)
	if first != second {
		t.Errorf("Expected identical ids for identical inputs, got %s and %s", first, second)
	}

	other := JobID(userID, ts.Add(time.Nanosecond))
	if first == other {
		t.Error("Expected different ids for different timestamps")
	}

	otherUser := JobID(uuid.New(), ts)
	if first == otherUser {
		t.Error("Expected different ids for different users")
	}
}

func TestJob_Priority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tier         models.Tier
		wantPriority int
		wantAMQP     uint8
	}{
		{models.TierPremium, 1, 3},
		{models.TierPro, 2, 2},
		{models.TierFree, 3, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			t.Parallel()
			job := NewJob(uuid.New(), "hello", "", tt.tier, time.Now())
			if got := job.Priority(); got != tt.wantPriority {
				t.Errorf("Priority() = %d, want %d", got, tt.wantPriority)
			}
			if got := job.AMQPPriority(); got != tt.wantAMQP {
				t.Errorf("AMQPPriority() = %d, want %d", got, tt.wantAMQP)
			}
		})
	}
}

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{
			name: "no time constraints",
			job:  &Job{ID: uuid.New()},
			want: true,
		},
		{
			name: "not before in past",
			job:  &Job{ID: uuid.New(), NotBefore: timePtr(now.Add(-1 * time.Hour))},
			want: true,
		},
		{
			name: "not before in future",
			job:  &Job{ID: uuid.New(), NotBefore: timePtr(now.Add(1 * time.Hour))},
			want: false,
		},
		{
			name: "not after in past",
			job:  &Job{ID: uuid.New(), NotAfter: timePtr(now.Add(-1 * time.Hour))},
			want: false,
		},
		{
			name: "not after in future",
			job:  &Job{ID: uuid.New(), NotAfter: timePtr(now.Add(1 * time.Hour))},
			want: true,
		},
		{
			name: "within time window",
			job: &Job{
				ID:        uuid.New(),
				NotBefore: timePtr(now.Add(-1 * time.Hour)),
				NotAfter:  timePtr(now.Add(1 * time.Hour)),
			},
			want: true,
		},
		{
			name: "outside time window - before",
			job: &Job{
				ID:        uuid.New(),
				NotBefore: timePtr(now.Add(1 * time.Hour)),
				NotAfter:  timePtr(now.Add(2 * time.Hour)),
			},
			want: false,
		},
		{
			name: "outside time window - after",
			job: &Job{
				ID:        uuid.New(),
				NotBefore: timePtr(now.Add(-2 * time.Hour)),
				NotAfter:  timePtr(now.Add(-1 * time.Hour)),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.job.ShouldProcess()
			if got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{
			name: "no expiration",
			job:  &Job{ID: uuid.New()},
			want: false,
		},
		{
			name: "expired",
			job:  &Job{ID: uuid.New(), NotAfter: timePtr(now.Add(-1 * time.Hour))},
			want: true,
		},
		{
			name: "not expired",
			job:  &Job{ID: uuid.New(), NotAfter: timePtr(now.Add(1 * time.Hour))},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.job.IsExpired()
			if got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_CanRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		retryCount int
		maxRetries int
		want       bool
	}{
		{
			name:       "can retry - no retries yet",
			retryCount: 0,
			maxRetries: 3,
			want:       true,
		},
		{
			name:       "can retry - one retry",
			retryCount: 1,
			maxRetries: 3,
			want:       true,
		},
		{
			name:       "can retry - max retries minus one",
			retryCount: 2,
			maxRetries: 3,
			want:       true,
		},
		{
			name:       "cannot retry - at max retries",
			retryCount: 3,
			maxRetries: 3,
			want:       false,
		},
		{
			name:       "cannot retry - exceeded max retries",
			retryCount: 4,
			maxRetries: 3,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := &Job{
				ID:         uuid.New(),
				RetryCount: tt.retryCount,
				MaxRetries: tt.maxRetries,
			}
			got := job.CanRetry()
			if got != tt.want {
				t.Errorf("CanRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_IncrementRetry(t *testing.T) {
	t.Parallel()

	job := &Job{
		ID:         uuid.New(),
		RetryCount: 0,
		MaxRetries: 3,
	}

	job.IncrementRetry()
	if job.RetryCount != 1 {
		t.Errorf("Expected retry count to be 1 after increment, got %d", job.RetryCount)
	}

	job.IncrementRetry()
	if job.RetryCount != 2 {
		t.Errorf("Expected retry count to be 2 after second increment, got %d", job.RetryCount)
	}

	job.IncrementRetry()
	if job.RetryCount != 3 {
		t.Errorf("Expected retry count to be 3 after third increment, got %d", job.RetryCount)
	}
}

// Helper function to create time pointers
func timePtr(t time.Time) *time.Time {
	return &t
}
