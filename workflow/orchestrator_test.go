package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/envops-io/envops/health"
	"github.com/envops-io/envops/resilience"
)

type fakeOracle struct {
	statuses map[string]health.Status
}

func (f *fakeOracle) Readiness(ctx context.Context, component string) health.Status {
	return f.statuses[component]
}

func record(result *RunResult, name string) StepRecord {
	for _, rec := range result.Steps {
		if rec.Name == name {
			return rec
		}
	}
	return StepRecord{}
}

func TestOrchestrator_HappyPath(t *testing.T) {
	var executed []string
	appendStep := func(name string) Action {
		return func(ctx context.Context) error {
			executed = append(executed, name)
			return nil
		}
	}

	plan, err := NewPlan([]Step{
		{Name: "create", Action: appendStep("create")},
		{Name: "start", Action: appendStep("start"), DependsOn: []string{"create"}},
		{Name: "verify", Action: appendStep("verify"), DependsOn: []string{"start"}},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{Component: "env-dev"})
	result := o.Run(context.Background(), plan)

	if result.State != RunCompleted {
		t.Fatalf("State = %v, want completed (err: %v)", result.State, result.Err)
	}
	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}

	want := []string{"create", "start", "verify"}
	for i := range want {
		if executed[i] != want[i] {
			t.Fatalf("executed = %v, want %v", executed, want)
		}
	}
	for _, name := range want {
		if rec := record(result, name); rec.State != StepSucceeded {
			t.Errorf("step %q state = %v, want succeeded", name, rec.State)
		}
	}
}

func TestOrchestrator_FailureRollsBackInReverseOrder(t *testing.T) {
	var compensated []string
	compensator := func(name string) Action {
		return func(ctx context.Context) error {
			compensated = append(compensated, name)
			return nil
		}
	}

	plan, err := NewPlan([]Step{
		{Name: "create", Action: noopAction, Compensate: compensator("create")},
		{Name: "start", Action: noopAction, Compensate: compensator("start"), DependsOn: []string{"create"}},
		{
			Name:      "verify",
			Action:    func(ctx context.Context) error { return errors.New("verification failed") },
			DependsOn: []string{"start"},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(context.Background(), plan)

	if result.State != RunRolledBack {
		t.Fatalf("State = %v, want rolled_back (err: %v)", result.State, result.Err)
	}
	if result.FailedStep != "verify" {
		t.Errorf("FailedStep = %q, want verify", result.FailedStep)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "verify") {
		t.Errorf("Err = %v, want the failed step named", result.Err)
	}

	// Compensation runs in reverse completion order.
	want := []string{"start", "create"}
	if len(compensated) != 2 || compensated[0] != want[0] || compensated[1] != want[1] {
		t.Errorf("compensated = %v, want %v", compensated, want)
	}

	for _, name := range []string{"create", "start"} {
		if rec := record(result, name); rec.State != StepRolledBack {
			t.Errorf("step %q state = %v, want rolled_back", name, rec.State)
		}
	}
	if rec := record(result, "verify"); rec.State != StepFailed {
		t.Errorf("verify state = %v, want failed", rec.State)
	}
}

func TestOrchestrator_FirstStepFailureSkipsRest(t *testing.T) {
	plan, err := NewPlan([]Step{
		{Name: "a", Action: func(ctx context.Context) error { return errors.New("down") }},
		{Name: "b", Action: noopAction, DependsOn: []string{"a"}},
		{Name: "c", Action: noopAction, DependsOn: []string{"b"}},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(context.Background(), plan)

	// Nothing succeeded before the failure, so there is nothing to roll
	// back and the run is simply failed.
	if result.State != RunFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if result.FailedStep != "a" {
		t.Errorf("FailedStep = %q, want a", result.FailedStep)
	}
	for _, name := range []string{"b", "c"} {
		rec := record(result, name)
		if rec.State != StepSkipped {
			t.Errorf("step %q state = %v, want skipped", name, rec.State)
		}
		if rec.Warning == "" {
			t.Errorf("step %q has no skip reason", name)
		}
	}
}

func TestOrchestrator_MissingCompensatorSkippedWithWarning(t *testing.T) {
	compensated := false
	plan, err := NewPlan([]Step{
		{Name: "manual", Action: noopAction}, // no compensating action
		{
			Name:       "revertable",
			Action:     noopAction,
			Compensate: func(ctx context.Context) error { compensated = true; return nil },
			DependsOn:  []string{"manual"},
		},
		{
			Name:      "boom",
			Action:    func(ctx context.Context) error { return errors.New("nope") },
			DependsOn: []string{"revertable"},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(context.Background(), plan)

	if result.State != RunRolledBack {
		t.Fatalf("State = %v, want rolled_back", result.State)
	}
	if !compensated {
		t.Error("revertable was not compensated")
	}

	rec := record(result, "manual")
	if rec.State != StepSkipped {
		t.Errorf("manual state = %v, want skipped", rec.State)
	}
	if !strings.Contains(rec.Warning, "no compensating action") {
		t.Errorf("manual warning = %q, want the omission surfaced", rec.Warning)
	}
}

func TestOrchestrator_CompensatorFailure(t *testing.T) {
	plan, err := NewPlan([]Step{
		{
			Name:       "create",
			Action:     noopAction,
			Compensate: func(ctx context.Context) error { return errors.New("remove failed") },
		},
		{
			Name:      "boom",
			Action:    func(ctx context.Context) error { return errors.New("nope") },
			DependsOn: []string{"create"},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(context.Background(), plan)

	if result.State != RunFailed {
		t.Fatalf("State = %v, want failed when rollback itself fails", result.State)
	}
	if !errors.Is(result.Err, ErrRollbackFailed) {
		t.Errorf("Err = %v, want ErrRollbackFailed wrapped", result.Err)
	}

	rec := record(result, "create")
	if rec.CompensateErr == nil {
		t.Error("create CompensateErr not set")
	}
}

func TestOrchestrator_RetryableStep(t *testing.T) {
	calls := 0
	plan, err := NewPlan([]Step{
		{
			Name: "flaky",
			Action: func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errors.New("transient")
				}
				return nil
			},
			Retryable: true,
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:   5,
			InitialDelay:  time.Millisecond,
			DisableJitter: true,
		},
	})
	result := o.Run(context.Background(), plan)

	if result.State != RunCompleted {
		t.Fatalf("State = %v, want completed (err: %v)", result.State, result.Err)
	}
	if rec := record(result, "flaky"); rec.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", rec.Attempts)
	}
}

func TestOrchestrator_NonRetryableStepFailsOnce(t *testing.T) {
	calls := 0
	plan, err := NewPlan([]Step{
		{
			Name: "fragile",
			Action: func(ctx context.Context) error {
				calls++
				return errors.New("broken")
			},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		Retry: resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond},
	})
	result := o.Run(context.Background(), plan)

	if result.State != RunFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if calls != 1 {
		t.Errorf("action ran %d times, want 1 (not retryable)", calls)
	}
}

func TestOrchestrator_GateBlocksStep(t *testing.T) {
	ran := false
	plan, err := NewPlan([]Step{
		{
			Name:       "gated",
			Action:     func(ctx context.Context) error { ran = true; return nil },
			HealthGate: "db",
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		Oracle: &fakeOracle{statuses: map[string]health.Status{"db": health.StatusUnhealthy}},
	})
	result := o.Run(context.Background(), plan)

	if result.State != RunFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if ran {
		t.Error("gated action ran despite an unhealthy gate")
	}
	if !errors.Is(result.Err, ErrGateUnhealthy) {
		t.Errorf("Err = %v, want ErrGateUnhealthy", result.Err)
	}
}

func TestOrchestrator_GateAllowsDegraded(t *testing.T) {
	plan, err := NewPlan([]Step{
		{Name: "gated", Action: noopAction, HealthGate: "db"},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{
		Oracle: &fakeOracle{statuses: map[string]health.Status{"db": health.StatusDegraded}},
	})
	result := o.Run(context.Background(), plan)

	if result.State != RunCompleted {
		t.Errorf("State = %v, want completed (degraded gate admits)", result.State)
	}
}

func TestOrchestrator_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := NewPlan([]Step{
		{Name: "a", Action: noopAction},
		{Name: "b", Action: noopAction},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(ctx, plan)

	if result.State != RunFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if !errors.Is(result.Err, ErrRunCancelled) {
		t.Errorf("Err = %v, want ErrRunCancelled", result.Err)
	}
	if rec := record(result, "b"); rec.State != StepSkipped {
		t.Errorf("b state = %v, want skipped", rec.State)
	}
}

func TestOrchestrator_CompensationRunsUnderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	compensated := false
	plan, err := NewPlan([]Step{
		{
			Name:       "create",
			Action:     noopAction,
			Compensate: func(ctx context.Context) error { compensated = true; return ctx.Err() },
		},
		{
			Name: "boom",
			Action: func(ctx context.Context) error {
				cancel() // run is cancelled mid-flight
				return errors.New("nope")
			},
			DependsOn: []string{"create"},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(ctx, plan)

	if !compensated {
		t.Fatal("compensating action did not run after cancellation")
	}
	if result.State != RunRolledBack {
		t.Errorf("State = %v, want rolled_back (err: %v)", result.State, result.Err)
	}
}

func TestOrchestrator_PanicBecomesStepFailure(t *testing.T) {
	compensated := false
	plan, err := NewPlan([]Step{
		{
			Name:       "create",
			Action:     noopAction,
			Compensate: func(ctx context.Context) error { compensated = true; return nil },
		},
		{
			Name:      "explosive",
			Action:    func(ctx context.Context) error { panic("boom") },
			DependsOn: []string{"create"},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})
	result := o.Run(context.Background(), plan)

	if result.State != RunRolledBack {
		t.Fatalf("State = %v, want rolled_back", result.State)
	}
	if !compensated {
		t.Error("compensation skipped after a panicking step")
	}
	rec := record(result, "explosive")
	if rec.State != StepFailed {
		t.Errorf("explosive state = %v, want failed", rec.State)
	}
	if rec.Err == nil || !strings.Contains(rec.Err.Error(), "panicked") {
		t.Errorf("Err = %v, want panic surfaced", rec.Err)
	}
}

func TestOrchestrator_StepTimeout(t *testing.T) {
	plan, err := NewPlan([]Step{
		{
			Name: "stuck",
			Action: func(ctx context.Context) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
					return nil
				}
			},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{StepTimeout: 20 * time.Millisecond})
	start := time.Now()
	result := o.Run(context.Background(), plan)

	if result.State != RunFailed {
		t.Fatalf("State = %v, want failed", result.State)
	}
	if !errors.Is(result.Err, resilience.ErrTimeout) {
		t.Errorf("Err = %v, want ErrTimeout", result.Err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("run blocked %v past the step timeout", elapsed)
	}
}

func TestOrchestrator_RunWithProgress(t *testing.T) {
	release := make(chan struct{})
	plan, err := NewPlan([]Step{
		{
			Name: "slow",
			Action: func(ctx context.Context) error {
				<-release
				return nil
			},
		},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	o := NewOrchestrator(OrchestratorConfig{})

	type outcome struct {
		result *RunResult
		prog   *Progress
	}
	done := make(chan outcome, 1)
	go func() {
		result, prog := o.RunWithProgress(context.Background(), plan)
		done <- outcome{result, prog}
	}()

	close(release)
	out := <-done

	if out.result.State != RunCompleted {
		t.Fatalf("State = %v, want completed", out.result.State)
	}
	if out.prog.RunState() != RunCompleted {
		t.Errorf("Progress.RunState() = %v, want completed", out.prog.RunState())
	}
	snap := out.prog.Snapshot()
	if len(snap) != 1 || snap[0].State != StepSucceeded {
		t.Errorf("Snapshot() = %+v, want one succeeded record", snap)
	}
}
