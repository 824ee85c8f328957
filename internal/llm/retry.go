package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient provider errors with exponential
// backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	invalidSeen := false

	var err error
	for attempt := range attempts {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err, &invalidSeen) || attempt == attempts-1 {
			return nil, err
		}

		timer := time.NewTimer(r.backoff(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether err is worth another attempt. A response
// that failed validation is retried once; invalidSeen tracks that.
func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrAttachmentsUnsupported) {
		return false
	}

	var (
		auth    *ErrAuthentication
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
	)
	switch {
	case errors.As(err, &auth), errors.As(err, &maxTok):
		return false
	case errors.As(err, &invalid):
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
		return true
	}

	// Rate limits, outages and network errors.
	return true
}

// backoff returns the wait before the attempt after the given one.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = min(wait, float64(r.config.MaxWait))

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}
