package detect

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fluentive/fluentive/internal/cache"
	"github.com/fluentive/fluentive/internal/models"
	"go.uber.org/zap"
)

// Config carries per-analysis settings passed to every detector
type Config struct {
	Tier        models.Tier
	Proficiency string
	UserLevel   int
}

// Detector is the contract every pluggable error detector satisfies.
// Detect may fail softly: returning an empty slice is a valid outcome.
// A non-nil error marks the detector unavailable for this message only;
// it never fails the overall pipeline.
type Detector interface {
	// Detect scans text and returns findings. Implementations must respect
	// ctx cancellation; the registry applies a per-call timeout.
	Detect(ctx context.Context, text string, cfg Config) ([]models.ErrorDetail, error)

	// IsAvailable reports whether the detector can currently run
	IsAvailable() bool

	// Confidence is the static per-detector trust weight in [0,1],
	// not tied to any single result
	Confidence() float64

	// Name identifies the detector; stamped into ErrorDetail.Source
	Name() string
}

// Result is the merged output of a registry run
type Result struct {
	Errors     []models.ErrorDetail `json:"errors"`
	Sources    []string             `json:"sources"`
	Confidence float64              `json:"confidence"`
	CacheHit   bool                 `json:"-"`
}

// Registry runs a prioritized list of detectors and merges their findings.
// Detector unavailability or timeout degrades coverage silently: the failed
// detector is simply absent from Result.Sources.
type Registry struct {
	detectors []Detector
	cache     cache.Service
	cacheTTL  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewRegistry creates a detector registry. cacheSvc may be nil to disable
// result caching.
func NewRegistry(detectors []Detector, cacheSvc cache.Service, timeout, cacheTTL time.Duration, logger *zap.Logger) *Registry {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		detectors: detectors,
		cache:     cacheSvc,
		cacheTTL:  cacheTTL,
		timeout:   timeout,
		logger:    logger,
	}
}

// DetectAll runs every registered detector against the text, concatenating
// findings tagged with their source. The merged result is cached keyed by a
// hash of (tier, text) so identical messages reuse prior analyses.
func (r *Registry) DetectAll(ctx context.Context, text string, cfg Config) Result {
	cacheKey := cache.DetectorKey(string(cfg.Tier), text)

	if r.cache != nil {
		if raw, ok, err := r.cache.Get(ctx, cacheKey); err == nil && ok {
			var cached Result
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				cached.CacheHit = true
				return cached
			}
		}
	}

	result := Result{}
	var confidenceSum float64

	for _, d := range r.detectors {
		if !d.IsAvailable() {
			r.logger.Debug("detector unavailable, skipping",
				zap.String("detector", d.Name()),
			)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		errs, err := d.Detect(callCtx, text, cfg)
		cancel()

		if err != nil {
			// Timeout and unavailability are treated identically: this
			// detector contributes nothing for this message.
			r.logger.Warn("detector failed, continuing without it",
				zap.String("detector", d.Name()),
				zap.Error(err),
			)
			continue
		}

		for i := range errs {
			if errs[i].Source == "" {
				errs[i].Source = d.Name()
			}
		}
		result.Errors = append(result.Errors, errs...)
		result.Sources = append(result.Sources, d.Name())
		confidenceSum += d.Confidence()
	}

	if len(result.Sources) > 0 {
		result.Confidence = confidenceSum / float64(len(result.Sources))
	}

	if r.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := r.cache.Set(ctx, cacheKey, string(raw), r.cacheTTL); err != nil {
				r.logger.Debug("detector cache write failed", zap.Error(err))
			}
		}
	}

	return result
}

// Detectors returns the registered detectors in priority order
func (r *Registry) Detectors() []Detector {
	return r.detectors
}
