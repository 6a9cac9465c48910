package semantic

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api 429", &APIError{StatusCode: 429}, true},
		{"api 429 permanent is quota not rate limit", &APIError{StatusCode: 429, IsPermanent: true}, false},
		{"api 500", &APIError{StatusCode: 500}, false},
		{"string 429", errors.New("got 429 from upstream"), true},
		{"string rate limit", errors.New("rate limit exceeded"), true},
		{"string too many requests", errors.New("too many requests"), true},
		{"unrelated", errors.New("connection refused"), false},
		{"wrapped api error", fmt.Errorf("call failed: %w", &APIError{StatusCode: 429}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api permanent", &APIError{IsPermanent: true}, true},
		{"api insufficient_quota code", &APIError{Code: "insufficient_quota"}, true},
		{"api transient", &APIError{StatusCode: 429}, false},
		{"string quota", errors.New("monthly quota exhausted"), true},
		{"string billing", errors.New("billing hard limit reached"), true},
		{"unrelated", errors.New("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsQuotaError(tt.err); got != tt.want {
				t.Errorf("IsQuotaError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGetRetryDelay_QuotaBacksOffFromAnHour(t *testing.T) {
	t.Parallel()

	err := &APIError{IsPermanent: true}

	if got := GetRetryDelay(err, 0); got != time.Hour {
		t.Errorf("attempt 0 = %v, want 1h", got)
	}
	if got := GetRetryDelay(err, 2); got != 4*time.Hour {
		t.Errorf("attempt 2 = %v, want 4h", got)
	}
	if got := GetRetryDelay(err, 10); got != 24*time.Hour {
		t.Errorf("attempt 10 = %v, want the 24h cap", got)
	}
}

func TestGetRetryDelay_RateLimitBacksOffFromAMinute(t *testing.T) {
	t.Parallel()

	err := &APIError{StatusCode: 429}

	if got := GetRetryDelay(err, 0); got != time.Minute {
		t.Errorf("attempt 0 = %v, want 1m", got)
	}
	if got := GetRetryDelay(err, 3); got != 8*time.Minute {
		t.Errorf("attempt 3 = %v, want 8m", got)
	}
	if got := GetRetryDelay(err, 8); got != 15*time.Minute {
		t.Errorf("attempt 8 = %v, want the 15m cap", got)
	}
}

func TestGetRetryDelay_HonorsRetryAfterHeader(t *testing.T) {
	t.Parallel()

	retryAfter := 5 * time.Minute
	err := &APIError{StatusCode: 429, RetryAfter: &retryAfter}

	if got := GetRetryDelay(err, 0); got != retryAfter {
		t.Errorf("delay = %v, want provider-requested %v", got, retryAfter)
	}

	// A computed delay above Retry-After wins
	if got := GetRetryDelay(err, 4); got != 15*time.Minute {
		t.Errorf("delay = %v, want computed 15m over the smaller header", got)
	}
}

func TestGetRetryDelay_GenericDoublesFromASecond(t *testing.T) {
	t.Parallel()

	err := errors.New("transient failure")

	if got := GetRetryDelay(err, 0); got != time.Second {
		t.Errorf("attempt 0 = %v, want 1s", got)
	}
	if got := GetRetryDelay(err, 4); got != 16*time.Second {
		t.Errorf("attempt 4 = %v, want 16s", got)
	}
	if got := GetRetryDelay(err, 20); got != 5*time.Minute {
		t.Errorf("attempt 20 = %v, want the 5m cap", got)
	}
}

func TestGetRetryDelay_NegativeAttemptClamped(t *testing.T) {
	t.Parallel()

	if got := GetRetryDelay(errors.New("x"), -3); got != time.Second {
		t.Errorf("delay = %v, want 1s for a clamped attempt", got)
	}
}
