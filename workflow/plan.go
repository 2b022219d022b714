package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// Plan is an ordered set of steps honoring their declared dependencies.
// A Plan is immutable once built; build it with NewPlan.
type Plan struct {
	steps []Step
	index map[string]int
}

// NewPlan validates the steps and orders them topologically. Steps with no
// dependency relationship keep their declaration order, so execution order
// is stable and deterministic.
//
// Validation failures (duplicate names, unknown dependencies, cycles) are
// fatal planning errors reported before any execution can begin.
func NewPlan(steps []Step) (*Plan, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyPlan
	}

	index := make(map[string]int, len(steps))
	for i, step := range steps {
		if step.Name == "" {
			return nil, fmt.Errorf("%w: step at position %d", ErrUnnamedStep, i)
		}
		if step.Action == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingAction, step.Name)
		}
		if _, exists := index[step.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStep, step.Name)
		}
		index[step.Name] = i
	}

	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("%w: step %q depends on %q", ErrUnknownDependency, step.Name, dep)
			}
			if dep == step.Name {
				return nil, fmt.Errorf("%w: step %q depends on itself", ErrCyclicDependency, step.Name)
			}
		}
	}

	ordered, err := topoSort(steps, index)
	if err != nil {
		return nil, err
	}

	planIndex := make(map[string]int, len(ordered))
	for i, step := range ordered {
		planIndex[step.Name] = i
	}

	return &Plan{steps: ordered, index: planIndex}, nil
}

// topoSort is Kahn's algorithm with a deterministic tie-break: among steps
// whose dependencies are all placed, the one declared first goes next.
func topoSort(steps []Step, index map[string]int) ([]Step, error) {
	placed := make([]bool, len(steps))
	ordered := make([]Step, 0, len(steps))

	for len(ordered) < len(steps) {
		progress := false
		for i, step := range steps {
			if placed[i] {
				continue
			}
			ready := true
			for _, dep := range step.DependsOn {
				if !placed[index[dep]] {
					ready = false
					break
				}
			}
			if ready {
				placed[i] = true
				ordered = append(ordered, step)
				progress = true
				break
			}
		}
		if !progress {
			return nil, fmt.Errorf("%w: %s", ErrCyclicDependency, cycleMembers(steps, placed))
		}
	}

	return ordered, nil
}

// cycleMembers names the steps that could not be placed, sorted for a
// stable error message.
func cycleMembers(steps []Step, placed []bool) string {
	var members []string
	for i, step := range steps {
		if !placed[i] {
			members = append(members, step.Name)
		}
	}
	sort.Strings(members)
	return strings.Join(members, ", ")
}

// Steps returns the steps in execution order.
func (p *Plan) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// Len returns the number of steps in the plan.
func (p *Plan) Len() int {
	return len(p.steps)
}

// Step returns the named step.
func (p *Plan) Step(name string) (Step, bool) {
	i, ok := p.index[name]
	if !ok {
		return Step{}, false
	}
	return p.steps[i], true
}
