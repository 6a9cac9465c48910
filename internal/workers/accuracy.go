package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fluentive/fluentive/internal/batch"
	"github.com/fluentive/fluentive/internal/cache"
	"github.com/fluentive/fluentive/internal/corrections"
	"github.com/fluentive/fluentive/internal/database"
	"github.com/fluentive/fluentive/internal/detect"
	"github.com/fluentive/fluentive/internal/models"
	"github.com/fluentive/fluentive/internal/progress"
	"github.com/fluentive/fluentive/internal/queue"
	"github.com/fluentive/fluentive/internal/scoring"
	"github.com/fluentive/fluentive/internal/services/semantic"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// defaultBaseXP is the flat per-message XP before accuracy adjustments
const defaultBaseXP = 10

// AccuracyWorker consumes accuracy jobs and runs the full scoring pipeline:
// detection, category scoring, correction extraction, cumulative merge, XP,
// and batched progress persistence.
type AccuracyWorker struct {
	registry       *detect.Registry
	scorer         *scoring.Scorer
	extractor      *corrections.Extractor
	aggregator     *progress.Aggregator
	cumulativeRepo database.CumulativeStore
	batcher        *batch.Batcher
	cache          cache.Service
	jobQueue       queue.JobQueue
	rateLimiter    *limiter.Limiter
	logger         *zap.Logger

	concurrency int
	prefetch    int
	cacheTTL    time.Duration
}

// NewAccuracyWorker creates an accuracy worker. rateLimiter and cacheSvc may
// be nil to disable throttling and caching respectively; a non-positive
// prefetch matches the concurrency bound.
func NewAccuracyWorker(
	registry *detect.Registry,
	scorer *scoring.Scorer,
	extractor *corrections.Extractor,
	aggregator *progress.Aggregator,
	cumulativeRepo database.CumulativeStore,
	batcher *batch.Batcher,
	cacheSvc cache.Service,
	jobQueue queue.JobQueue,
	rateLimiter *limiter.Limiter,
	concurrency int,
	prefetch int,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AccuracyWorker {
	if concurrency <= 0 {
		concurrency = 10
	}
	if prefetch <= 0 {
		prefetch = concurrency
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccuracyWorker{
		registry:       registry,
		scorer:         scorer,
		extractor:      extractor,
		aggregator:     aggregator,
		cumulativeRepo: cumulativeRepo,
		batcher:        batcher,
		cache:          cacheSvc,
		jobQueue:       jobQueue,
		rateLimiter:    rateLimiter,
		logger:         logger,
		concurrency:    concurrency,
		prefetch:       prefetch,
		cacheTTL:       cacheTTL,
	}
}

// Run consumes jobs until ctx is cancelled. Jobs are processed concurrently
// up to the configured bound; the prefetch count keeps the broker from
// handing this worker more than it can hold.
func (w *AccuracyWorker) Run(ctx context.Context) error {
	messages, errs, err := w.jobQueue.Consume(ctx, w.prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()

		case consumeErr, ok := <-errs:
			if !ok {
				wg.Wait()
				return nil
			}
			w.logger.Error("queue consume error", zap.Error(consumeErr))

		case msg, ok := <-messages:
			if !ok {
				wg.Wait()
				return nil
			}

			w.throttle(ctx)

			sem <- struct{}{}
			wg.Add(1)
			go func(msg queue.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := w.ProcessJob(ctx, msg); err != nil {
					w.logger.Warn("job processing failed",
						zap.String("job_id", msg.Job().ID.String()),
						zap.Error(err),
					)
				}
			}(msg)
		}
	}
}

// throttle blocks until the global job rate limit admits another job
func (w *AccuracyWorker) throttle(ctx context.Context) {
	if w.rateLimiter == nil {
		return
	}
	for {
		lctx, err := w.rateLimiter.Get(ctx, "worker:jobs")
		if err != nil {
			// Limiter store trouble never stalls the pipeline
			w.logger.Debug("rate limiter unavailable", zap.Error(err))
			return
		}
		if !lctx.Reached {
			return
		}
		wait := time.Until(time.Unix(lctx.Reset, 0))
		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// ProcessJob runs the pipeline for one dequeued message and settles its
// acknowledgement
func (w *AccuracyWorker) ProcessJob(ctx context.Context, msg queue.Message) error {
	job := msg.Job()

	if job.IsExpired() {
		w.logger.Info("dropping expired job",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_after", job.NotAfter),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed to nack expired job", zap.Error(nackErr))
		}
		return nil
	}

	if !job.ShouldProcess() {
		// Not ready yet: hand it back rather than busy-wait on it
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("failed to requeue delayed job", zap.Error(nackErr))
		}
		return nil
	}

	result, err := w.Analyze(ctx, job)
	if err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}

	w.logger.Info("job processed",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Float64("accuracy", result.AdjustedOverall),
		zap.Int("xp", result.XP.NetXP),
		zap.Duration("took", result.Metadata.ProcessingTime),
		zap.Bool("cache_hit", result.Metadata.CacheHit),
	)
	return nil
}

// Analyze runs the scoring pipeline for one job and returns the full result.
// Side effects: cumulative accuracy is merged and persisted, and a progress
// delta is queued for batched flushing.
func (w *AccuracyWorker) Analyze(ctx context.Context, job *queue.Job) (*models.AccuracyResult, error) {
	start := time.Now()

	detection := w.registry.DetectAll(ctx, job.UserMessage, detect.Config{
		Tier:        job.UserTier,
		Proficiency: job.Proficiency,
		UserLevel:   job.UserLevel,
	})

	input := scoring.Input{
		Text:        job.UserMessage,
		Errors:      detection.Errors,
		Tier:        job.UserTier,
		Proficiency: job.Proficiency,
	}
	scores := w.scorer.Score(input)

	analysis := w.extractor.Extract(job.AIResponse)
	adjusted := w.scorer.ApplyPenalties(scores, analysis.Penalties, input)

	result := &models.AccuracyResult{
		UserID:          job.UserID,
		Scores:          adjusted,
		AdjustedOverall: adjusted.Overall,
		Errors:          detection.Errors,
		Statistics:      scoring.BuildStatistics(job.UserMessage, detection.Errors),
		Corrections:     analysis,
		CreatedAt:       time.Now(),
	}

	if err := w.mergeCumulative(ctx, job, result); err != nil {
		return nil, err
	}

	xp := progress.CalculateTotalXP(progress.XPInput{
		BaseAmount:       defaultBaseXP,
		Accuracy:         result.AdjustedOverall,
		StreakDays:       job.StreakDays,
		TierMultiplier:   job.UserTier.Multiplier(),
		IsPerfectMessage: result.AdjustedOverall >= 100,
	})
	result.XP = &xp

	result.Metadata = models.ResultMetadata{
		ProcessingTime:   time.Since(start),
		Confidence:       detection.Confidence,
		DetectionSources: detection.Sources,
		CacheHit:         detection.CacheHit,
	}

	w.batcher.Queue(ctx, job.UserID, models.ProgressDelta{
		XP:              xp.NetXP,
		Messages:        1,
		AccuracySamples: []float64{result.AdjustedOverall},
		HighPriority:    job.UserTier == models.TierPremium,
	})

	return result, nil
}

// mergeCumulative folds the fresh result into the user's running averages
// under the per-user lock, so two in-flight messages for the same user
// serialize their read-merge-write cycles
func (w *AccuracyWorker) mergeCumulative(ctx context.Context, job *queue.Job, result *models.AccuracyResult) error {
	release := w.aggregator.LockUser(job.UserID)
	defer release()

	current, err := w.loadCumulative(ctx, job)
	if err != nil {
		return err
	}

	useAdvanced := job.UserTier == models.TierPro || job.UserTier == models.TierPremium
	updated, _ := w.aggregator.Merge(ctx, current, result, useAdvanced)

	if err := w.cumulativeRepo.Upsert(ctx, updated); err != nil {
		return fmt.Errorf("failed to persist cumulative accuracy: %w", err)
	}
	w.cacheCumulative(ctx, updated)

	return nil
}

// loadCumulative reads the user's cumulative record, cache first
func (w *AccuracyWorker) loadCumulative(ctx context.Context, job *queue.Job) (*models.CumulativeAccuracy, error) {
	if w.cache != nil {
		if raw, ok, err := w.cache.Get(ctx, cache.CumulativeKey(job.UserID.String())); err == nil && ok {
			var cum models.CumulativeAccuracy
			if err := json.Unmarshal([]byte(raw), &cum); err == nil {
				return &cum, nil
			}
		}
	}

	cum, err := w.cumulativeRepo.GetByUserID(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cumulative accuracy: %w", err)
	}
	return cum, nil
}

func (w *AccuracyWorker) cacheCumulative(ctx context.Context, cum *models.CumulativeAccuracy) {
	if w.cache == nil {
		return
	}
	raw, err := json.Marshal(cum)
	if err != nil {
		return
	}
	if err := w.cache.Set(ctx, cache.CumulativeKey(cum.UserID.String()), string(raw), w.cacheTTL); err != nil {
		w.logger.Debug("cumulative cache write failed", zap.Error(err))
	}
}

// handleJobError settles a failed job. Every retry acks the original
// delivery and re-enqueues a copy with the bumped attempt count and a
// NotBefore delay; nacking with requeue would hand the broker the original
// payload and reset the count. Quota and rate-limit errors use the
// provider's longer delays, other errors back off from one second, and
// exhausted jobs go to the dead letter queue.
func (w *AccuracyWorker) handleJobError(ctx context.Context, msg queue.Message, job *queue.Job, err error) error {
	if semantic.IsQuotaError(err) || semantic.IsRateLimitError(err) {
		retryDelay := semantic.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		if job.CanRetry() && w.jobQueue != nil {
			delayed := *job
			delayed.NotBefore = &notBefore
			delayed.RetryCount = job.RetryCount + 1

			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("failed to ack job before delayed re-enqueue", zap.Error(ackErr))
			}

			if enqueueErr := w.jobQueue.Enqueue(ctx, &delayed); enqueueErr != nil {
				return fmt.Errorf("provider backpressure, failed to re-enqueue: %w", enqueueErr)
			}

			w.logger.Info("provider backpressure, job re-enqueued with delay",
				zap.String("job_id", job.ID.String()),
				zap.Duration("delay", retryDelay),
				zap.Int("retry_count", delayed.RetryCount),
			)
			return nil
		}

		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed to nack exhausted job", zap.Error(nackErr))
		}
		return fmt.Errorf("provider backpressure, retries exhausted for job %s: %w", job.ID, err)
	}

	if job.CanRetry() && w.jobQueue != nil {
		retryDelay := semantic.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		retry := *job
		retry.NotBefore = &notBefore
		retry.RetryCount = job.RetryCount + 1

		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Warn("failed to ack job before retry re-enqueue", zap.Error(ackErr))
		}

		if enqueueErr := w.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
			return fmt.Errorf("job failed, retry re-enqueue failed: %w", enqueueErr)
		}

		w.logger.Warn("job failed, retry scheduled",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", retry.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Duration("delay", retryDelay),
			zap.Error(err),
		)
		return fmt.Errorf("job failed (retry scheduled): %w", err)
	}

	if job.CanRetry() {
		// No queue handle to schedule through; lean on broker redelivery
		job.IncrementRetry()
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("failed to nack job for retry", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	w.logger.Error("job failed after max retries, dead-lettering",
		zap.String("job_id", job.ID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Warn("failed to nack job to DLQ", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
