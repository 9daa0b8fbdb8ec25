package acquire

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// DefaultMaxAttempts bounds Retrying when MaxAttempts is unset.
const DefaultMaxAttempts = 3

// IsRetryable reports whether a failed fetch is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, internalerr.ErrUnavailable)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// Retrying retries retryable failures of Source a bounded number of times.
type Retrying struct {
	Source      Source
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// Description implements Source.
func (r Retrying) Description(ctx context.Context, app string) (string, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	backoff := r.Backoff
	if backoff == nil {
		backoff = Backoff
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		text, err := r.Source.Description(ctx, app)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if IsRetryable(lastErr) {
		return "", fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return "", lastErr
}
