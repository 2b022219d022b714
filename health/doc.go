// Package health provides point-in-time, side-effect-free assessment of
// environment readiness.
//
// This package implements the health checking half of the orchestration
// core: individual checkers for databases, HTTP endpoints, processes,
// resources and inter-service dependencies, plus a Service that runs the
// applicable battery of checks and aggregates their results.
//
// # Core Concepts
//
// A Checker is any component that can report a health Result. The Status
// type has four values ordered by severity: healthy < unknown < degraded <
// unhealthy. Aggregation always takes the worst individual status.
//
// No check ever lets an error escape: timeouts, refused connections,
// missing binaries and even checker panics are converted into unhealthy
// Results, which makes the Service safe to call from any context,
// including the orchestrator's critical path.
//
// # Basic Usage
//
//	svc := health.NewService(health.ServiceConfig{
//	    CheckTimeout: 2 * time.Second,
//	})
//
//	svc.Register(health.Registration{
//	    Checker: health.NewPostgresChecker("postgres", pool, health.PostgresCheckerConfig{}),
//	    Probe:   true, // external: retried with backoff
//	})
//	svc.Register(health.Registration{
//	    Checker:   health.NewEndpointChecker("api", health.EndpointCheckerConfig{URL: url}),
//	    Component: "main",
//	    Probe:     true,
//	})
//
//	summary := svc.CheckAll(ctx, "")
//	if summary.Status == health.StatusUnhealthy {
//	    // consult summary.Results for the failing checks
//	}
//
// Within one CheckAll call, independent checks may run concurrently, but
// results are always merged in fixed check-name order: the returned
// Summary is deterministic for a given registration set.
//
// # Readiness Gates
//
// Service implements the workflow orchestrator's readiness oracle: the
// aggregate status for a component scope decides whether a gated workflow
// step may run.
package health
