package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docmind/internal/generate"
)

// MaxRetries bounds attempts at a retryable model call.
const MaxRetries = 3

// maxBackoff keeps a waiting upload request under a minute in total.
const maxBackoff = 8 * time.Second

// IsRetryable reports whether the model call failed transiently (429, 5xx).
func IsRetryable(err error) bool {
	var re *generate.RetryableError
	return errors.As(err, &re)
}

// Backoff returns the wait before retry n (0-indexed): 1s, 2s, 4s... capped
// at maxBackoff, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, maxBackoff)
	return base + time.Duration(rand.Int64N(int64(base)/2))
}

// retryModel calls fn until it succeeds, fails permanently, or MaxRetries
// attempts are spent. It returns the last error.
func (p *Processor) retryModel(ctx context.Context, log *slog.Logger, job *Job, fn func() (any, error)) (any, error) {
	var lastErr error
	for attempt := range MaxRetries {
		job.IncrAttempts()
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		wait := Backoff(attempt)
		log.Warn("retryable generation error", "attempt", attempt+1, "wait", wait, "error", err)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
