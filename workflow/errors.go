package workflow

import "errors"

// Plan-build errors. These are fatal at planning time: no step executes.
var (
	// ErrEmptyPlan indicates a plan with no steps.
	ErrEmptyPlan = errors.New("workflow: plan has no steps")

	// ErrUnnamedStep indicates a step without a name.
	ErrUnnamedStep = errors.New("workflow: step has no name")

	// ErrDuplicateStep indicates two steps share a name.
	ErrDuplicateStep = errors.New("workflow: duplicate step name")

	// ErrUnknownDependency indicates a step depends on a name not in the plan.
	ErrUnknownDependency = errors.New("workflow: unknown dependency")

	// ErrCyclicDependency indicates the dependency graph has a cycle.
	ErrCyclicDependency = errors.New("workflow: cyclic dependency")

	// ErrMissingAction indicates a step without an action.
	ErrMissingAction = errors.New("workflow: step has no action")
)

// Execution errors.
var (
	// ErrGateUnhealthy indicates a step's readiness gate reported
	// unhealthy, so the action was never attempted.
	ErrGateUnhealthy = errors.New("workflow: readiness gate unhealthy")

	// ErrRunCancelled indicates the run was cancelled between steps.
	ErrRunCancelled = errors.New("workflow: run cancelled")

	// ErrRollbackFailed indicates a compensating action failed; the
	// system may be in a partially-modified state.
	ErrRollbackFailed = errors.New("workflow: rollback failed")
)
