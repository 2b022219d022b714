package health

import (
	"context"
	"time"
)

// Status represents the health status of a check target.
//
// The numeric values are ordered by severity so that aggregation can take
// the maximum: healthy < unknown < degraded < unhealthy.
type Status int

const (
	// StatusHealthy indicates the target is functioning normally.
	StatusHealthy Status = iota
	// StatusUnknown indicates the target's state could not be determined.
	StatusUnknown
	// StatusDegraded indicates the target is functioning but below its
	// quality threshold (e.g. high latency, restart-looping).
	StatusDegraded
	// StatusUnhealthy indicates the target is not functioning.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// WorstOf returns the most severe of the given statuses.
// An empty argument list yields StatusHealthy.
func WorstOf(statuses ...Status) Status {
	worst := StatusHealthy
	for _, s := range statuses {
		if s > worst {
			worst = s
		}
	}
	return worst
}

// Result contains the outcome of a single health check. A Result is a value;
// once produced by a check it is never mutated.
type Result struct {
	// Check is the name of the check that produced this result.
	Check string

	// Status is the health status.
	Status Status

	// Message provides additional context about the status.
	Message string

	// Details contains arbitrary metadata about the check.
	Details map[string]any

	// Latency is how long the check took.
	Latency time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Err is the underlying error if the check failed.
	Err error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Unknown creates a result for a target whose state could not be read.
func Unknown(message string, err error) Result {
	return Result{
		Status:    StatusUnknown,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithLatency sets the latency on a result.
func (r Result) WithLatency(d time.Duration) Result {
	r.Latency = d
	return r
}

// named returns a copy of the result carrying the given check name.
func (r Result) named(check string) Result {
	r.Check = check
	return r
}

// Checker is the interface for health checks.
//
// Contract:
//   - Check must never panic and must never let an error escape: every
//     failure mode is converted into a Result.
//   - Check must honor ctx cancellation and deadlines.
//   - A Checker holds no mutable state between calls; any resource it
//     samples is acquired and released within a single invocation.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
