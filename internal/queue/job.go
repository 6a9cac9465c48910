package queue

import (
	"fmt"
	"time"

	"github.com/fluentive/fluentive/internal/models"
	"github.com/fluentive/fluentive/internal/validation"
	"github.com/google/uuid"
)

// jobNamespace is the UUID namespace for deterministic job ids
var jobNamespace = uuid.MustParse("8f2b5c44-7a31-4e67-9d8a-2f4bd0c1a9e3")

// DefaultMaxRetries is the retry budget for new jobs; producers may override
// it per job before enqueueing
const DefaultMaxRetries = 3

// Job is one accuracy-analysis job. The id is deterministic per
// (userID, timestamp) so resubmitting the identical job is a no-op at the
// queue layer rather than a duplicate.
type Job struct {
	ID               uuid.UUID   `json:"id" validate:"required"`
	UserID           uuid.UUID   `json:"user_id" validate:"required"`
	UserMessage      string      `json:"user_message" validate:"required,max=10000"`
	AIResponse       string      `json:"ai_response" validate:"max=20000"`
	UserTier         models.Tier `json:"user_tier" validate:"required,tier"`
	UserLevel        int         `json:"user_level,omitempty" validate:"min=0"`
	Proficiency      string      `json:"proficiency,omitempty" validate:"proficiency"`
	StreakDays       int         `json:"streak_days,omitempty" validate:"min=0"`
	PreviousAccuracy *float64    `json:"previous_accuracy,omitempty"`
	Timestamp        time.Time   `json:"timestamp" validate:"required"`

	NotBefore  *time.Time `json:"not_before,omitempty"` // Earliest time to process (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // Latest time to process (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// JobResult is what a completed job reports back
type JobResult struct {
	Success  bool          `json:"success"`
	Accuracy float64       `json:"accuracy"`
	XPGained int           `json:"xp_gained"`
	Duration time.Duration `json:"duration"`
}

// NewJob creates an accuracy job with a deterministic id. The user message
// is sanitized on the way in.
func NewJob(userID uuid.UUID, userMessage, aiResponse string, tier models.Tier, timestamp time.Time) *Job {
	return &Job{
		ID:          JobID(userID, timestamp),
		UserID:      userID,
		UserMessage: validation.SanitizeText(userMessage),
		AIResponse:  aiResponse,
		UserTier:    tier,
		Timestamp:   timestamp,
		CreatedAt:   time.Now(),
		RetryCount:  0,
		MaxRetries:  DefaultMaxRetries,
	}
}

// JobID derives the deterministic job id for a (user, timestamp) pair
func JobID(userID uuid.UUID, timestamp time.Time) uuid.UUID {
	seed := fmt.Sprintf("%s:%d", userID, timestamp.UnixNano())
	return uuid.NewSHA1(jobNamespace, []byte(seed))
}

// Validate checks the job's structural invariants. Both queue
// implementations reject invalid jobs at the boundary rather than letting a
// malformed payload reach the pipeline.
func (j *Job) Validate() error {
	if err := validation.Validate.Struct(j); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	return nil
}

// dedupKey identifies one delivery attempt. Retries reuse the job id with a
// bumped attempt number, so the dedup window suppresses duplicate
// submissions without eating scheduled retries.
func (j *Job) dedupKey() string {
	return fmt.Sprintf("%s:%d", j.ID, j.RetryCount)
}

// Priority returns the dequeue priority: lower values dequeue first
func (j *Job) Priority() int {
	return j.UserTier.Priority()
}

// AMQPPriority maps the job priority onto the broker's scale, where higher
// values dequeue first
func (j *Job) AMQPPriority() uint8 {
	p := j.Priority()
	if p < 1 {
		p = 1
	}
	if p > 3 {
		p = 3
	}
	return uint8(4 - p)
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
