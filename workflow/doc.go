// Package workflow drives multi-step lifecycle operations (install, start,
// stop, status) through an explicit state machine with rollback on failure.
//
// # Model
//
// A Plan is a validated, topologically-ordered set of Steps. Steps declare
// dependencies by name; a cyclic dependency is a fatal planning error
// reported before any execution begins. Two independent steps execute in
// declaration order, so runs are deterministic.
//
// Per-step states: pending -> running -> {succeeded | failed}. A succeeded
// step may later become rolled_back; a step whose dependency failed goes
// directly to skipped and never runs.
//
// # Execution
//
//	orch := workflow.NewOrchestrator(workflow.OrchestratorConfig{
//	    Component: "agent",
//	    Oracle:    healthService,
//	    Retry:     resilience.RetryConfig{MaxAttempts: 3},
//	})
//
//	plan, err := workflow.NewPlan([]workflow.Step{
//	    {Name: "pull", Action: pullImages, Retryable: true},
//	    {Name: "start", Action: startContainers, Compensate: stopContainers,
//	        DependsOn: []string{"pull"}, HealthGate: "agent"},
//	})
//	if err != nil {
//	    return err // planning error; nothing executed
//	}
//
//	result := orch.Run(ctx, plan)
//	switch result.State {
//	case workflow.RunCompleted:
//	    // every step succeeded
//	case workflow.RunRolledBack:
//	    // a step failed and compensation completed
//	case workflow.RunFailed:
//	    // failure without (complete) compensation; consult result.Steps
//	}
//
// On failure the orchestrator walks already-succeeded steps in reverse
// order invoking their compensating actions. A step without a compensating
// action is skipped with a warning. The run result plus the step records
// are the whole outcome; the orchestrator never propagates an exception-like
// failure past its boundary.
package workflow
