package lifecycle

import (
	"context"
	"fmt"

	"github.com/envops-io/envops/health"
	"github.com/envops-io/envops/workflow"
)

// InstallPlan builds the provisioning plan for an environment: each service
// is created and then started, strictly in declaration order. Create steps
// compensate by removing the container; start steps compensate by stopping
// it, so a failed install tears back down to a clean slate.
func InstallPlan(env Environment, mgr Manager) (*workflow.Plan, error) {
	if err := validate(env, mgr); err != nil {
		return nil, err
	}

	var steps []workflow.Step
	prev := ""

	for _, service := range env.Services {
		create := workflow.Step{
			Name:       "create-" + service,
			Component:  env.Name,
			Action:     createAction(mgr, env.Name, service),
			Compensate: removeAction(mgr, env.Name, service),
			Retryable:  true,
		}
		if prev != "" {
			create.DependsOn = []string{prev}
		}
		if prev == "" && env.Gate != "" {
			create.HealthGate = env.Gate
		}

		start := workflow.Step{
			Name:       "start-" + service,
			Component:  env.Name,
			Action:     startAction(mgr, env.Name, service),
			Compensate: stopAction(mgr, env.Name, service),
			DependsOn:  []string{create.Name},
			Retryable:  true,
		}

		steps = append(steps, create, start)
		prev = start.Name
	}

	return workflow.NewPlan(steps)
}

// StartPlan builds the startup plan for an already-provisioned environment.
func StartPlan(env Environment, mgr Manager) (*workflow.Plan, error) {
	if err := validate(env, mgr); err != nil {
		return nil, err
	}

	var steps []workflow.Step
	prev := ""

	for _, service := range env.Services {
		step := workflow.Step{
			Name:       "start-" + service,
			Component:  env.Name,
			Action:     startAction(mgr, env.Name, service),
			Compensate: stopAction(mgr, env.Name, service),
			Retryable:  true,
		}
		if prev != "" {
			step.DependsOn = []string{prev}
		}
		if prev == "" && env.Gate != "" {
			step.HealthGate = env.Gate
		}
		steps = append(steps, step)
		prev = step.Name
	}

	return workflow.NewPlan(steps)
}

// StopPlan builds the teardown plan: services stop in reverse start order.
// Stop steps have no compensating action; restarting a half-stopped
// environment is an operator decision, not an automatic rollback.
func StopPlan(env Environment, mgr Manager) (*workflow.Plan, error) {
	if err := validate(env, mgr); err != nil {
		return nil, err
	}

	var steps []workflow.Step
	prev := ""

	for i := len(env.Services) - 1; i >= 0; i-- {
		service := env.Services[i]
		step := workflow.Step{
			Name:      "stop-" + service,
			Component: env.Name,
			Action:    stopAction(mgr, env.Name, service),
			Retryable: true,
		}
		if prev != "" {
			step.DependsOn = []string{prev}
		}
		steps = append(steps, step)
		prev = step.Name
	}

	return workflow.NewPlan(steps)
}

// StatusPlan builds a read-only plan that inspects each service and fails
// on the first one that is not running. It performs no side effects and
// declares no compensating actions.
func StatusPlan(env Environment, mgr Manager) (*workflow.Plan, error) {
	if err := validate(env, mgr); err != nil {
		return nil, err
	}

	var steps []workflow.Step
	for _, service := range env.Services {
		steps = append(steps, workflow.Step{
			Name:      "status-" + service,
			Component: env.Name,
			Action:    statusAction(mgr, env.Name, service),
		})
	}

	return workflow.NewPlan(steps)
}

// ProcessCheckers returns one liveness checker per service, for
// registration with the health service under the environment's component
// scope.
func ProcessCheckers(env Environment, mgr Manager) []health.Registration {
	regs := make([]health.Registration, 0, len(env.Services))
	for _, service := range env.Services {
		id := ServiceID(env.Name, service)
		checker := health.NewProcessChecker("process:"+id, mgr, health.ProcessCheckerConfig{ID: id})
		regs = append(regs, health.Registration{
			Checker:   checker,
			Component: env.Name,
		})
	}
	return regs
}

func validate(env Environment, mgr Manager) error {
	if mgr == nil {
		return ErrNilManager
	}
	if env.Name == "" {
		return ErrUnnamedEnvironment
	}
	if len(env.Services) == 0 {
		return fmt.Errorf("%w: %q", ErrNoServices, env.Name)
	}
	return nil
}

func createAction(mgr Manager, env, service string) workflow.Action {
	return func(ctx context.Context) error {
		return mgr.CreateService(ctx, env, service)
	}
}

func startAction(mgr Manager, env, service string) workflow.Action {
	return func(ctx context.Context) error {
		return mgr.StartService(ctx, env, service)
	}
}

func stopAction(mgr Manager, env, service string) workflow.Action {
	return func(ctx context.Context) error {
		return mgr.StopService(ctx, env, service)
	}
}

func removeAction(mgr Manager, env, service string) workflow.Action {
	return func(ctx context.Context) error {
		return mgr.RemoveService(ctx, env, service)
	}
}

func statusAction(mgr Manager, env, service string) workflow.Action {
	return func(ctx context.Context) error {
		id := ServiceID(env, service)
		state, err := mgr.InspectProcess(ctx, id)
		if err != nil {
			return fmt.Errorf("inspect %q: %w", id, err)
		}
		if !state.Running {
			return fmt.Errorf("service %q not running (exit code %d)", id, state.ExitCode)
		}
		return nil
	}
}
