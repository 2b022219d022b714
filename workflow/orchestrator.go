package workflow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/envops-io/envops/health"
	"github.com/envops-io/envops/observe"
	"github.com/envops-io/envops/resilience"
)

// Oracle reports the aggregate health of a component. The health service
// satisfies this interface; orchestrator readiness gates consult it before
// advancing a gated step.
type Oracle interface {
	Readiness(ctx context.Context, component string) health.Status
}

// OrchestratorConfig configures an orchestrator.
type OrchestratorConfig struct {
	// Component names the component this orchestrator operates on. Used
	// for logging and metrics attribution.
	Component string

	// Oracle answers readiness-gate queries. Steps with a HealthGate fail
	// without running when the oracle reports unhealthy. Optional; without
	// an oracle, gates are not evaluated.
	Oracle Oracle

	// StepTimeout bounds each action and each compensating action.
	// Default: 60 seconds.
	StepTimeout time.Duration

	// Retry is the backoff policy for retryable steps. Zero values take
	// the resilience defaults.
	Retry resilience.RetryConfig

	// Logger receives run lifecycle events. Default: discard.
	Logger observe.Logger

	// Metrics records step and run telemetry. Optional.
	Metrics observe.Metrics

	// Tracer wraps each step in a span. Optional.
	Tracer trace.Tracer
}

// RunResult is the final outcome of an orchestration run. It carries the
// full per-step history; callers needing detail consult the records rather
// than catching errors.
type RunResult struct {
	// State is the final run state: completed, failed or rolled_back.
	State RunState

	// Steps holds the final step records in plan order.
	Steps []StepRecord

	// FailedStep names the step whose failure ended the run, if any.
	FailedStep string

	// Err summarizes the failure. Nil for a completed run. Rollback
	// failures wrap ErrRollbackFailed.
	Err error
}

// Orchestrator drives a multi-step lifecycle operation through an explicit
// state machine, with rollback on failure. Each Run owns its own progress
// ledger; an Orchestrator may be reused for sequential runs but a single
// run is one logical thread of control.
type Orchestrator struct {
	config OrchestratorConfig
	retry  *resilience.Retry
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	if config.StepTimeout <= 0 {
		config.StepTimeout = 60 * time.Second
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	return &Orchestrator{
		config: config,
		retry:  resilience.NewRetry(config.Retry),
	}
}

// Run executes the plan. It never panics and never returns an error as a
// Go error value to be caught: the outcome and the per-step history are the
// whole result. A failed run always reports which step failed, why, and
// whether rollback succeeded.
//
// The caller may poll progress during the run via the Progress returned by
// RunWithProgress.
func (o *Orchestrator) Run(ctx context.Context, plan *Plan) *RunResult {
	result, _ := o.RunWithProgress(ctx, plan)
	return result
}

// RunWithProgress is Run, also returning the live progress ledger so a
// caller can poll step states while the run executes. Only the
// orchestrator writes to the ledger.
func (o *Orchestrator) RunWithProgress(ctx context.Context, plan *Plan) (*RunResult, *Progress) {
	prog := newProgress(plan)
	start := time.Now()

	log := o.config.Logger
	if o.config.Component != "" {
		log = log.WithComponent(o.config.Component)
	}

	prog.setRun(RunExecuting)
	log.Info(ctx, "run starting", observe.Field{Key: "steps", Value: plan.Len()})

	failedStep, failErr := o.executeSteps(ctx, plan, prog, log)

	result := &RunResult{FailedStep: failedStep, Err: failErr}

	if failedStep == "" {
		prog.setRun(RunCompleted)
		result.State = RunCompleted
	} else {
		state, rbErr := o.rollback(ctx, plan, prog, log)
		prog.setRun(state)
		result.State = state
		if rbErr != nil {
			result.Err = fmt.Errorf("step %q failed: %w (additionally: %w)", failedStep, failErr, rbErr)
		} else {
			result.Err = fmt.Errorf("step %q failed: %w", failedStep, failErr)
		}
	}

	result.Steps = prog.Snapshot()

	log.Info(ctx, "run finished",
		observe.Field{Key: "outcome", Value: result.State.String()},
		observe.Field{Key: "duration", Value: time.Since(start).String()},
	)
	if o.config.Metrics != nil {
		o.config.Metrics.RecordRun(ctx, o.config.Component, result.State.String(), time.Since(start))
	}

	return result, prog
}

// executeSteps runs steps in plan order until one fails. It returns the
// name and error of the failed step, or "" when every step succeeded.
func (o *Orchestrator) executeSteps(ctx context.Context, plan *Plan, prog *Progress, log observe.Logger) (string, error) {
	var failedStep string
	var failErr error

	for _, step := range plan.Steps() {
		if failedStep != "" {
			// The run is already failed; everything downstream is skipped.
			o.skip(ctx, prog, step.Name, "run aborted by earlier failure")
			continue
		}

		if dep, ok := o.failedDependency(prog, step); ok {
			o.skip(ctx, prog, step.Name, fmt.Sprintf("dependency %q did not succeed", dep))
			continue
		}

		// Cooperative cancellation point between steps.
		if err := ctx.Err(); err != nil {
			failedStep = step.Name
			failErr = fmt.Errorf("%w: %w", ErrRunCancelled, err)
			o.fail(ctx, prog, step.Name, failErr, 0, 0)
			continue
		}

		if err := o.checkGate(ctx, step); err != nil {
			failedStep = step.Name
			failErr = err
			o.fail(ctx, prog, step.Name, err, 0, 0)
			log.Warn(ctx, "readiness gate blocked step",
				observe.Field{Key: "step", Value: step.Name},
				observe.Field{Key: "gate", Value: step.HealthGate},
			)
			continue
		}

		prog.setState(step.Name, StepRunning)
		log.Debug(ctx, "step running", observe.Field{Key: "step", Value: step.Name})

		attempts, duration, err := o.runAction(ctx, step)
		if err != nil {
			failedStep = step.Name
			failErr = err
			o.fail(ctx, prog, step.Name, err, attempts, duration)
			log.Error(ctx, "step failed",
				observe.Field{Key: "step", Value: step.Name},
				observe.Field{Key: "attempts", Value: attempts},
				observe.Field{Key: "error", Value: err.Error()},
			)
			continue
		}

		prog.update(step.Name, func(rec *StepRecord) {
			rec.State = StepSucceeded
			rec.Attempts = attempts
			rec.Duration = duration
		})
		if o.config.Metrics != nil {
			o.config.Metrics.RecordStep(ctx, step.Name, StepSucceeded.String(), duration)
		}
	}

	return failedStep, failErr
}

// checkGate consults the readiness oracle for a gated step.
func (o *Orchestrator) checkGate(ctx context.Context, step Step) error {
	if step.HealthGate == "" || o.config.Oracle == nil {
		return nil
	}

	status := o.config.Oracle.Readiness(ctx, step.HealthGate)
	if status == health.StatusUnhealthy {
		return fmt.Errorf("%w: component %q", ErrGateUnhealthy, step.HealthGate)
	}
	return nil
}

// runAction executes the step's action under the step timeout, retrying
// retryable steps with the shared backoff policy.
func (o *Orchestrator) runAction(ctx context.Context, step Step) (attempts int, duration time.Duration, err error) {
	start := time.Now()

	op := func(ctx context.Context) error {
		attempts++

		var span trace.Span
		if o.config.Tracer != nil {
			ctx, span = observe.StartStepSpan(ctx, o.config.Tracer, step.Name, step.Component)
		}

		actErr := resilience.WithTimeout(ctx, o.config.StepTimeout, o.protect(step.Action))

		if span != nil {
			observe.EndSpan(span, actErr)
		}
		return actErr
	}

	if step.Retryable {
		err = o.retry.Execute(ctx, op)
	} else {
		err = op(ctx)
	}

	return attempts, time.Since(start), err
}

// protect converts an action panic into an error so a misbehaving step
// cannot abort the run without compensation being attempted.
func (o *Orchestrator) protect(action Action) Action {
	return func(ctx context.Context) (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = fmt.Errorf("step panicked: %v", v)
			}
		}()
		return action(ctx)
	}
}

// rollback walks already-succeeded steps in reverse plan order, invoking
// each step's compensating action. A step without a compensating action is
// marked skipped and the omission surfaced as a warning, not silently
// dropped.
//
// It returns the final run state: RunRolledBack when compensation
// completed, RunFailed when it failed or there was nothing to compensate.
func (o *Orchestrator) rollback(ctx context.Context, plan *Plan, prog *Progress, log observe.Logger) (RunState, error) {
	steps := plan.Steps()

	compensated := 0
	var rbErr error

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		state, _ := prog.State(step.Name)
		if state != StepSucceeded {
			continue
		}

		if step.Compensate == nil {
			warning := "no compensating action; step left in place"
			prog.update(step.Name, func(rec *StepRecord) {
				rec.State = StepSkipped
				rec.Warning = warning
			})
			log.Warn(ctx, "rollback skipped step",
				observe.Field{Key: "step", Value: step.Name},
				observe.Field{Key: "reason", Value: warning},
			)
			continue
		}

		// Compensation runs even when ctx is cancelled: leaving the
		// system partially modified is worse than overrunning a
		// cancelled deadline. The step timeout still bounds it.
		err := resilience.WithTimeout(context.WithoutCancel(ctx), o.config.StepTimeout, o.protect(step.Compensate))
		if err != nil {
			rbErr = fmt.Errorf("%w: compensating %q: %w", ErrRollbackFailed, step.Name, err)
			prog.update(step.Name, func(rec *StepRecord) {
				rec.CompensateErr = err
			})
			log.Error(ctx, "compensating action failed",
				observe.Field{Key: "step", Value: step.Name},
				observe.Field{Key: "error", Value: err.Error()},
			)
			continue
		}

		compensated++
		prog.setState(step.Name, StepRolledBack)
		if o.config.Metrics != nil {
			o.config.Metrics.RecordStep(ctx, step.Name, StepRolledBack.String(), 0)
		}
	}

	switch {
	case rbErr != nil:
		return RunFailed, rbErr
	case compensated > 0:
		return RunRolledBack, nil
	default:
		return RunFailed, nil
	}
}

// failedDependency reports the first dependency of step that did not
// succeed, if any.
func (o *Orchestrator) failedDependency(prog *Progress, step Step) (string, bool) {
	for _, dep := range step.DependsOn {
		state, ok := prog.State(dep)
		if !ok || state != StepSucceeded {
			return dep, true
		}
	}
	return "", false
}

func (o *Orchestrator) skip(ctx context.Context, prog *Progress, name, reason string) {
	prog.update(name, func(rec *StepRecord) {
		rec.State = StepSkipped
		rec.Warning = reason
	})
	if o.config.Metrics != nil {
		o.config.Metrics.RecordStep(ctx, name, StepSkipped.String(), 0)
	}
}

func (o *Orchestrator) fail(ctx context.Context, prog *Progress, name string, err error, attempts int, duration time.Duration) {
	prog.update(name, func(rec *StepRecord) {
		rec.State = StepFailed
		rec.Err = err
		rec.Attempts = attempts
		rec.Duration = duration
	})
	if o.config.Metrics != nil {
		o.config.Metrics.RecordStep(ctx, name, StepFailed.String(), duration)
	}
}
