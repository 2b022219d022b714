package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/envops-io/envops/observe"
	"github.com/envops-io/envops/resilience"
)

// ServiceConfig configures the health service.
type ServiceConfig struct {
	// CheckTimeout bounds each individual check. Default: 5 seconds.
	CheckTimeout time.Duration

	// OverallTimeout bounds a whole CheckAll call. Default: 15 seconds.
	OverallTimeout time.Duration

	// MaxConcurrent limits how many independent checks run at once.
	// Default: 4. Set to 1 for strictly sequential execution.
	MaxConcurrent int

	// Retry is the backoff policy applied to probe-class checks. Zero
	// values take the resilience defaults.
	Retry resilience.RetryConfig

	// Breaker optionally gates all probe-class checks. While the breaker
	// is open, probes report unhealthy without contacting their targets.
	Breaker *resilience.Breaker

	// Logger receives check lifecycle events. Default: discard.
	Logger observe.Logger

	// Metrics records per-check telemetry. Optional.
	Metrics observe.Metrics

	// Tracer wraps each check in a span. Optional.
	Tracer trace.Tracer
}

// Registration binds a checker to the service.
type Registration struct {
	// Checker performs the check. Required.
	Checker Checker

	// Component scopes the check to a named component (e.g. "agent",
	// "main"). Empty means the check applies to every scope.
	Component string

	// Probe marks checks that talk to external services. Probe checks are
	// retried with bounded exponential backoff before settling on
	// unhealthy; local-state checks are not retried.
	Probe bool
}

// Summary is the aggregated outcome of a comprehensive check.
type Summary struct {
	// Status is the worst of the individual result statuses.
	Status Status

	// Results holds one entry per check, in fixed check-name order. The
	// ordering is stable across calls for the same registration set.
	Results []Result
}

// Get returns the result for the named check.
func (s Summary) Get(check string) (Result, bool) {
	for _, r := range s.Results {
		if r.Check == check {
			return r, true
		}
	}
	return Result{}, false
}

// Service runs a battery of independent health checks and aggregates their
// results. It holds no mutable state between calls beyond the registration
// set; every check acquires and releases its own resources per invocation.
//
// Service is safe for concurrent use.
type Service struct {
	config ServiceConfig
	probes *resilience.Policy

	mu            sync.RWMutex
	registrations map[string]Registration
}

// NewService creates a new health service.
func NewService(config ServiceConfig) *Service {
	if config.CheckTimeout <= 0 {
		config.CheckTimeout = 5 * time.Second
	}
	if config.OverallTimeout <= 0 {
		config.OverallTimeout = 15 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	opts := []resilience.PolicyOption{
		resilience.WithRetry(resilience.NewRetry(config.Retry)),
	}
	if config.Breaker != nil {
		opts = append(opts, resilience.WithBreaker(config.Breaker))
	}

	return &Service{
		config:        config,
		probes:        resilience.NewPolicy(opts...),
		registrations: make(map[string]Registration),
	}
}

// Register adds a checker to the service. Registering a checker with a name
// that is already taken replaces the earlier registration.
func (s *Service) Register(reg Registration) {
	if reg.Checker == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[reg.Checker.Name()] = reg
}

// Unregister removes a checker by name.
func (s *Service) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, name)
}

// CheckNames returns the registered check names in sorted order.
func (s *Service) CheckNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.registrations))
	for name := range s.registrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs a single named check through the service's timeout, retry and
// failure-conversion machinery.
func (s *Service) Check(ctx context.Context, name string) (Result, error) {
	s.mu.RLock()
	reg, ok := s.registrations[name]
	s.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return s.runCheck(ctx, name, reg), nil
}

// CheckAll runs every registered check applicable to the given scope and
// returns the full result set. An empty scope runs everything.
//
// Independent checks are dispatched concurrently up to MaxConcurrent, but
// results are merged in fixed check-name order before being returned, so
// concurrency is never a source of observable nondeterminism.
func (s *Service) CheckAll(ctx context.Context, scope string) Summary {
	s.mu.RLock()
	names := make([]string, 0, len(s.registrations))
	regs := make(map[string]Registration, len(s.registrations))
	for name, reg := range s.registrations {
		if scope != "" && reg.Component != "" && reg.Component != scope {
			continue
		}
		names = append(names, name)
		regs[name] = reg
	}
	s.mu.RUnlock()

	sort.Strings(names)

	if len(names) == 0 {
		return Summary{Status: StatusUnknown}
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.OverallTimeout)
	defer cancel()

	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrent)
	for i, name := range names {
		g.Go(func() error {
			results[i] = s.runCheck(gctx, name, regs[name])
			return nil
		})
	}
	// Workers never return errors; failures become results.
	_ = g.Wait()

	statuses := make([]Status, len(results))
	for i, r := range results {
		statuses[i] = r.Status
	}

	return Summary{
		Status:  WorstOf(statuses...),
		Results: results,
	}
}

// Readiness reports the aggregate status for a component scope. It
// implements the readiness-oracle contract consumed by the workflow
// orchestrator.
func (s *Service) Readiness(ctx context.Context, component string) Status {
	return s.CheckAll(ctx, component).Status
}

// runCheck executes one check with timeout, panic conversion and, for probe
// registrations, the probe policy (bounded-backoff retries, optionally gated
// by the shared breaker). It never returns an error and never panics: every
// failure mode becomes a Result.
func (s *Service) runCheck(ctx context.Context, name string, reg Registration) Result {
	start := time.Now()

	var span trace.Span
	if s.config.Tracer != nil {
		ctx, span = observe.StartCheckSpan(ctx, s.config.Tracer, name)
	}

	var result Result
	if reg.Probe {
		invoked := false
		op := func(ctx context.Context) error {
			invoked = true
			result = s.invoke(ctx, name, reg.Checker)
			if result.Status == StatusUnhealthy {
				return ErrCheckFailed
			}
			return nil
		}
		// When the checker ran, the policy error is discarded: the last
		// result already carries the failure.
		err := s.probes.Execute(ctx, op)
		if !invoked {
			result = Unhealthy("probe not attempted: breaker open", err)
		}
	} else {
		result = s.invoke(ctx, name, reg.Checker)
	}

	result.Check = name
	result.Latency = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}

	if span != nil {
		observe.EndSpan(span, result.Err)
	}

	if result.Status != StatusHealthy {
		s.config.Logger.Warn(ctx, "health check not healthy",
			observe.Field{Key: "check", Value: name},
			observe.Field{Key: "status", Value: result.Status.String()},
			observe.Field{Key: "message", Value: result.Message},
		)
	}
	if s.config.Metrics != nil {
		s.config.Metrics.RecordCheck(ctx, name, result.Status.String(), result.Latency)
	}

	return result
}

// invoke runs the checker once under the per-check timeout, converting
// panics and timeouts into unhealthy results.
func (s *Service) invoke(ctx context.Context, name string, checker Checker) Result {
	ctx, cancel := context.WithTimeout(ctx, s.config.CheckTimeout)
	defer cancel()

	resultCh := make(chan Result, 1)

	go func() {
		defer func() {
			if v := recover(); v != nil {
				resultCh <- Unhealthy(
					fmt.Sprintf("check %q panicked: %v", name, v),
					ErrCheckPanicked,
				)
			}
		}()
		resultCh <- checker.Check(ctx)
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Unhealthy(
			fmt.Sprintf("check %q timeout after %s", name, s.config.CheckTimeout),
			ErrCheckTimeout,
		)
	}
}
