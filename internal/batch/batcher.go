package batch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fluentive/fluentive/internal/cache"
	"github.com/fluentive/fluentive/internal/database"
	"github.com/fluentive/fluentive/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultFlushInterval is the time-based flush trigger
	DefaultFlushInterval = 30 * time.Second
	// DefaultMaxPending is the size-based flush trigger: queued user count
	DefaultMaxPending = 100
	// DefaultBatchSize bounds how many users one flush sub-batch writes in parallel
	DefaultBatchSize = 25
	// DefaultCacheTTL is the lifetime of real-time progress snapshots
	DefaultCacheTTL = 60 * time.Second
)

// Config tunes the batcher
type Config struct {
	FlushInterval time.Duration
	MaxPending    int
	BatchSize     int
	CacheTTL      time.Duration
}

// Batcher coalesces many small per-user progress deltas into periodic atomic
// database increments. A cache snapshot is written synchronously on every
// queued delta so UI reads reflect near-real-time state before the next
// flush; the cache is best-effort and never blocks the update path.
type Batcher struct {
	store  database.ProgressStore
	cache  cache.Service
	logger *zap.Logger
	cfg    Config

	mu      sync.Mutex
	pending map[uuid.UUID]*models.ProgressDelta

	flushCh chan struct{}
}

// NewBatcher creates a batcher. cacheSvc may be nil; reads then fall back
// to the durable store.
func NewBatcher(store database.ProgressStore, cacheSvc cache.Service, cfg Config, logger *zap.Logger) *Batcher {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{
		store:   store,
		cache:   cacheSvc,
		logger:  logger,
		cfg:     cfg,
		pending: make(map[uuid.UUID]*models.ProgressDelta),
		flushCh: make(chan struct{}, 1),
	}
}

// Queue merges a delta into the user's pending entry. A high-priority delta
// forces an immediate flush of the whole queue; hitting the max-pending
// threshold does the same.
func (b *Batcher) Queue(ctx context.Context, userID uuid.UUID, delta models.ProgressDelta) {
	if delta.IsZero() {
		return
	}

	b.mu.Lock()
	entry, ok := b.pending[userID]
	if !ok {
		entry = &models.ProgressDelta{}
		b.pending[userID] = entry
	}
	entry.Merge(delta)
	snapshot := *entry
	pendingCount := len(b.pending)
	b.mu.Unlock()

	b.writeSnapshot(ctx, userID, snapshot)

	if delta.HighPriority || pendingCount >= b.cfg.MaxPending {
		b.requestFlush()
	}
}

// PendingCount returns the number of users with unflushed deltas
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Start runs the flush loop until ctx is cancelled, then performs a final
// drain flush
func (b *Batcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			b.Flush(drainCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			b.Flush(ctx)
		case <-b.flushCh:
			b.Flush(ctx)
		}
	}
}

// Flush writes every pending delta to the durable store in bounded parallel
// sub-batches. Per-user failures are isolated: other users in the batch are
// unaffected and a failed user's delta is merged back into the queue for the
// next attempt (at-least-once, never dropped).
func (b *Batcher) Flush(ctx context.Context) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batchMap := b.pending
	b.pending = make(map[uuid.UUID]*models.ProgressDelta)
	b.mu.Unlock()

	type pendingUser struct {
		userID uuid.UUID
		delta  *models.ProgressDelta
	}
	users := make([]pendingUser, 0, len(batchMap))
	for id, d := range batchMap {
		users = append(users, pendingUser{userID: id, delta: d})
	}

	start := time.Now()
	flushed := 0
	failed := 0

	for lo := 0; lo < len(users); lo += b.cfg.BatchSize {
		hi := lo + b.cfg.BatchSize
		if hi > len(users) {
			hi = len(users)
		}

		var wg sync.WaitGroup
		results := make([]error, hi-lo)
		for i, u := range users[lo:hi] {
			wg.Add(1)
			go func(i int, u pendingUser) {
				defer wg.Done()
				results[i] = b.flushUser(ctx, u.userID, *u.delta)
			}(i, u)
		}
		wg.Wait()

		for i, err := range results {
			u := users[lo+i]
			if err != nil {
				failed++
				b.logger.Warn("flush failed for user, requeueing delta",
					zap.String("user_id", u.userID.String()),
					zap.Error(err),
				)
				b.requeueDelta(u.userID, *u.delta)
				continue
			}
			flushed++
			b.refreshCachedProgress(ctx, u.userID)
		}
	}

	b.logger.Debug("flush cycle complete",
		zap.Int("flushed", flushed),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
}

// flushUser applies one user's delta with a short retry; transient database
// blips shouldn't requeue a whole cycle
func (b *Batcher) flushUser(ctx context.Context, userID uuid.UUID, delta models.ProgressDelta) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2),
		ctx,
	)
	return backoff.Retry(func() error {
		return b.store.ApplyDelta(ctx, userID, delta)
	}, policy)
}

// requeueDelta merges a failed delta back into the pending map
func (b *Batcher) requeueDelta(userID uuid.UUID, delta models.ProgressDelta) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.pending[userID]
	if !ok {
		entry = &models.ProgressDelta{}
		b.pending[userID] = entry
	}
	entry.Merge(delta)
}

func (b *Batcher) requestFlush() {
	select {
	case b.flushCh <- struct{}{}:
	default:
	}
}

// pendingSnapshot is the cache representation of in-flight deltas
type pendingSnapshot struct {
	XP        int       `json:"xp"`
	Messages  int       `json:"messages"`
	Minutes   float64   `json:"minutes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// writeSnapshot pushes the user's pending delta into the cache so UI reads
// see progress before the flush lands. Failures are logged and ignored.
func (b *Batcher) writeSnapshot(ctx context.Context, userID uuid.UUID, delta models.ProgressDelta) {
	if b.cache == nil {
		return
	}
	raw, err := json.Marshal(pendingSnapshot{
		XP:        delta.XP,
		Messages:  delta.Messages,
		Minutes:   delta.Minutes,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return
	}
	if err := b.cache.Set(ctx, cache.ProgressKey(userID.String())+":pending", string(raw), b.cfg.CacheTTL); err != nil {
		b.logger.Debug("pending snapshot cache write failed", zap.Error(err))
	}
}

// refreshCachedProgress re-reads the durable row after a successful flush
// and caches the fresh totals
func (b *Batcher) refreshCachedProgress(ctx context.Context, userID uuid.UUID) {
	if b.cache == nil {
		return
	}
	progress, err := b.store.GetByUserID(ctx, userID)
	if err != nil {
		return
	}
	raw, err := json.Marshal(progress)
	if err != nil {
		return
	}
	if err := b.cache.Set(ctx, cache.ProgressKey(userID.String()), string(raw), b.cfg.CacheTTL); err != nil {
		b.logger.Debug("progress cache write failed", zap.Error(err))
	}
}
