package resilience

import (
	"context"
	"time"
)

// Policy composes the probe resilience patterns: each attempt is bounded by
// a timeout, attempts are retried with backoff, and the whole operation is
// gated by an optional breaker.
type Policy struct {
	retry   *Retry
	breaker *Breaker
	timeout time.Duration
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// NewPolicy creates a probe policy.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithRetry adds bounded-backoff retries to the policy.
func WithRetry(r *Retry) PolicyOption {
	return func(p *Policy) {
		p.retry = r
	}
}

// WithBreaker gates the policy behind a probe breaker.
func WithBreaker(b *Breaker) PolicyOption {
	return func(p *Policy) {
		p.breaker = b
	}
}

// WithAttemptTimeout bounds each individual attempt.
func WithAttemptTimeout(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.timeout = d
	}
}

// Execute runs op through the configured patterns. Composition order, from
// the operation outward: attempt timeout, retry, breaker.
func (p *Policy) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if p.timeout > 0 {
		inner := execute
		execute = func(ctx context.Context) error {
			return WithTimeout(ctx, p.timeout, inner)
		}
	}

	if p.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return p.retry.Execute(ctx, inner)
		}
	}

	if p.breaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return p.breaker.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
