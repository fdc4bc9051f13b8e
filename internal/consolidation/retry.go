package consolidation

import (
	"context"
	"time"

	"github.com/mantamatcher/catalogcore/internal/datastore"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 50 * time.Millisecond
	maxRetryBackoff     = 2 * time.Second
)

// retryPolicy reruns a whole transaction after busy or deadlock errors.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      func(context.Context, time.Duration) error
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultRetryBackoff,
		maxDelay:   maxRetryBackoff,
		sleep:      sleepContext,
	}
}

// run calls fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. onRetry is called before each retry.
func (p retryPolicy) run(ctx context.Context, fn func() error, onRetry func(attempt int, err error)) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !p.shouldRetry(ctx, err, attempt) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		if sleepErr := p.sleep(ctx, p.backoff(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
}

func (p retryPolicy) shouldRetry(ctx context.Context, err error, attempt int) bool {
	if attempt >= p.maxRetries {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return datastore.IsRetryable(err)
}

// backoff doubles per attempt up to maxDelay.
func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := p.baseDelay
	for range attempt {
		delay *= 2
		if delay >= p.maxDelay {
			return p.maxDelay
		}
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
