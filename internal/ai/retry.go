package ai

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy configures WithRetry. MaxAttempts <= 1 disables retry.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

type retryGateway struct {
	next   Gateway
	policy RetryPolicy
	logger *zap.Logger
	sleep  func(context.Context, time.Duration) error
}

// WithRetry wraps g so that rate-limit, 5xx and transient network failures are
// retried with jittered exponential backoff. Any other failure is returned at
// once. When policy allows a single attempt, g is returned unchanged.
func WithRetry(g Gateway, policy RetryPolicy, logger *zap.Logger) Gateway {
	if policy.MaxAttempts <= 1 {
		return g
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 4 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryGateway{next: g, policy: policy, logger: logger, sleep: sleepCtx}
}

func (r *retryGateway) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	backoff := r.policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		out, err := r.next.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts || !retryable(err) || ctx.Err() != nil {
			break
		}
		wait := withJitter(backoff)
		var up *UpstreamError
		if errors.As(err, &up) && up.RetryAfter > 0 {
			wait = up.RetryAfter
		} else if wait > r.policy.MaxDelay {
			wait = r.policy.MaxDelay
		}
		r.logger.Warn("Retrying model request",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Retryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return isRetryableNetErr(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
