package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// EndpointCheckerConfig configures an HTTP endpoint checker.
type EndpointCheckerConfig struct {
	// URL is the endpoint to probe. Required.
	URL string

	// Timeout bounds the probe. A probe that exceeds it is unhealthy.
	// Default: 5 seconds.
	Timeout time.Duration

	// WarnLatency is the latency above which a successful probe is reported
	// as degraded. Default: half of Timeout.
	WarnLatency time.Duration

	// Client is the HTTP client to use. Default: a client with no global
	// timeout (the per-probe context bounds each request).
	Client *http.Client
}

// EndpointChecker probes an HTTP endpoint with a bounded-time GET request.
//
// A timeout or a non-2xx response yields an unhealthy result. A successful
// response slower than WarnLatency yields a degraded result.
type EndpointChecker struct {
	name   string
	config EndpointCheckerConfig
}

// NewEndpointChecker creates a new endpoint checker.
func NewEndpointChecker(name string, config EndpointCheckerConfig) *EndpointChecker {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.WarnLatency <= 0 {
		config.WarnLatency = config.Timeout / 2
	}
	if config.Client == nil {
		config.Client = &http.Client{}
	}

	return &EndpointChecker{name: name, config: config}
}

// Name returns the name of this checker.
func (e *EndpointChecker) Name() string {
	return e.name
}

// Check performs the endpoint probe.
func (e *EndpointChecker) Check(ctx context.Context) Result {
	if e.config.URL == "" {
		return Unhealthy("endpoint URL not configured", ErrNilTarget)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.URL, nil)
	if err != nil {
		return Unhealthy(fmt.Sprintf("invalid endpoint URL %q", e.config.URL), err)
	}

	resp, err := e.config.Client.Do(req)
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Unhealthy(
				fmt.Sprintf("endpoint probe timeout after %s", e.config.Timeout),
				ErrCheckTimeout,
			).WithLatency(latency)
		}
		return Unhealthy("endpoint unreachable", err).WithLatency(latency)
	}
	defer resp.Body.Close()

	details := map[string]any{
		"url":         e.config.URL,
		"status_code": resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Unhealthy(
			fmt.Sprintf("endpoint returned status %d", resp.StatusCode),
			ErrCheckFailed,
		).WithDetails(details).WithLatency(latency)
	}

	if latency > e.config.WarnLatency {
		return Degraded(
			fmt.Sprintf("endpoint slow: %s (threshold %s)", latency.Round(time.Millisecond), e.config.WarnLatency),
		).WithDetails(details).WithLatency(latency)
	}

	return Healthy("endpoint reachable").WithDetails(details).WithLatency(latency)
}
