// Package resilience provides the retry, timeout and breaker patterns used
// by the health checker's probe path and the workflow orchestrator's step
// retries.
//
// # Patterns
//
//   - Retry: bounded exponential backoff with jitter. This is the single
//     backoff policy shared by external health probes and retryable
//     workflow steps.
//
//   - WithTimeout: bounds a blocking operation; the caller never blocks
//     past the deadline even if the operation ignores its context.
//
//   - Breaker: stops probing a target that keeps failing, with a cooldown
//     before a single trial probe is allowed through.
//
// # Usage
//
// Patterns can be used independently or composed with a Policy:
//
//	policy := resilience.NewPolicy(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 100 * time.Millisecond,
//	        MaxDelay:     5 * time.Second,
//	    })),
//	    resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
//	        MaxFailures: 5,
//	        Cooldown:    time.Minute,
//	    })),
//	    resilience.WithAttemptTimeout(2*time.Second),
//	)
//
//	err := policy.Execute(ctx, func(ctx context.Context) error {
//	    return pingDatabase(ctx)
//	})
package resilience
