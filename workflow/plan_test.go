package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func noopAction(ctx context.Context) error { return nil }

func namesOf(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestNewPlan_TopologicalOrder(t *testing.T) {
	plan, err := NewPlan([]Step{
		{Name: "start", Action: noopAction, DependsOn: []string{"create"}},
		{Name: "verify", Action: noopAction, DependsOn: []string{"start"}},
		{Name: "create", Action: noopAction},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	want := []string{"create", "start", "verify"}
	got := namesOf(plan.Steps())
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNewPlan_StableDeclarationOrder(t *testing.T) {
	// No dependency relationships: declaration order must be preserved.
	steps := []Step{
		{Name: "c", Action: noopAction},
		{Name: "a", Action: noopAction},
		{Name: "b", Action: noopAction},
	}

	for i := 0; i < 5; i++ {
		plan, err := NewPlan(steps)
		if err != nil {
			t.Fatalf("NewPlan() error = %v", err)
		}
		got := namesOf(plan.Steps())
		want := []string{"c", "a", "b"}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: order = %v, want %v", i, got, want)
			}
		}
	}
}

func TestNewPlan_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		wantErr error
	}{
		{
			"empty plan",
			nil,
			ErrEmptyPlan,
		},
		{
			"unnamed step",
			[]Step{{Action: noopAction}},
			ErrUnnamedStep,
		},
		{
			"missing action",
			[]Step{{Name: "a"}},
			ErrMissingAction,
		},
		{
			"duplicate name",
			[]Step{{Name: "a", Action: noopAction}, {Name: "a", Action: noopAction}},
			ErrDuplicateStep,
		},
		{
			"unknown dependency",
			[]Step{{Name: "a", Action: noopAction, DependsOn: []string{"ghost"}}},
			ErrUnknownDependency,
		},
		{
			"self dependency",
			[]Step{{Name: "a", Action: noopAction, DependsOn: []string{"a"}}},
			ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPlan(tt.steps); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPlan() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPlan_CycleDetection(t *testing.T) {
	_, err := NewPlan([]Step{
		{Name: "a", Action: noopAction, DependsOn: []string{"c"}},
		{Name: "b", Action: noopAction, DependsOn: []string{"a"}},
		{Name: "c", Action: noopAction, DependsOn: []string{"b"}},
		{Name: "free", Action: noopAction},
	})

	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("NewPlan() error = %v, want ErrCyclicDependency", err)
	}
	// The error names the cycle members, sorted.
	if !strings.Contains(err.Error(), "a, b, c") {
		t.Errorf("error = %q, want cycle members listed", err.Error())
	}
}

func TestPlan_Step(t *testing.T) {
	plan, err := NewPlan([]Step{
		{Name: "only", Action: noopAction, Component: "agent"},
	})
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	step, ok := plan.Step("only")
	if !ok || step.Component != "agent" {
		t.Errorf("Step(only) = %+v, %v; want the declared step", step, ok)
	}
	if _, ok := plan.Step("missing"); ok {
		t.Error("Step(missing) = true, want false")
	}
	if plan.Len() != 1 {
		t.Errorf("Len() = %d, want 1", plan.Len())
	}
}
