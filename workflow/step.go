package workflow

import "context"

// StepState is the lifecycle state of a single workflow step.
type StepState int

const (
	// StepPending means the step has not started.
	StepPending StepState = iota
	// StepRunning means the step's action is executing.
	StepRunning
	// StepSucceeded means the step's action completed.
	StepSucceeded
	// StepFailed means the step's action failed, its readiness gate was
	// unhealthy, or its compensating action failed during rollback.
	StepFailed
	// StepRolledBack means the step succeeded and was later compensated.
	StepRolledBack
	// StepSkipped means the step never ran: a dependency failed, the run
	// was already rolling back, or the step had no compensating action
	// when rollback reached it.
	StepSkipped
)

// String returns the string representation of the state.
func (s StepState) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	case StepRolledBack:
		return "rolled_back"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// RunState is the overall state of an orchestration run.
type RunState int

const (
	// RunPlanning means the plan is being built; no step has executed.
	RunPlanning RunState = iota
	// RunExecuting means steps are executing.
	RunExecuting
	// RunCompleted means every planned step succeeded.
	RunCompleted
	// RunFailed means a step failed and compensation was impossible,
	// incomplete, or itself failed.
	RunFailed
	// RunRolledBack means a step failed and every succeeded predecessor
	// was compensated.
	RunRolledBack
)

// String returns the string representation of the state.
func (s RunState) String() string {
	switch s {
	case RunPlanning:
		return "planning"
	case RunExecuting:
		return "executing"
	case RunCompleted:
		return "completed"
	case RunFailed:
		return "failed"
	case RunRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Action is a unit of orchestrated work.
type Action func(ctx context.Context) error

// Step is a named unit of orchestrated work. Steps are created at plan
// build time and immutable during execution; the orchestrator's progress
// ledger references them by name.
type Step struct {
	// Name uniquely identifies the step within a plan. Required.
	Name string

	// Component is the component this step operates on (e.g. "agent").
	Component string

	// Action performs the step's work. Required.
	Action Action

	// Compensate undoes a succeeded Action during rollback. Steps without
	// a compensating action are skipped during rollback, with a warning.
	Compensate Action

	// DependsOn lists step names that must succeed before this step runs.
	DependsOn []string

	// Retryable marks steps whose failures are retried with the shared
	// backoff policy before triggering rollback.
	Retryable bool

	// HealthGate names a component whose aggregate health is checked
	// before the action runs. If the readiness oracle reports unhealthy,
	// the step fails without the action being attempted. Empty disables
	// the gate.
	HealthGate string
}
