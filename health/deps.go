package health

import (
	"context"
	"fmt"
	"sort"
)

// DependencyGraph declares which components each component depends on.
// Keys and values are component names.
type DependencyGraph map[string][]string

// Dependencies returns the direct dependencies of a component in sorted
// order, so traversal is deterministic regardless of declaration order.
func (g DependencyGraph) Dependencies(component string) []string {
	deps := make([]string, len(g[component]))
	copy(deps, g[component])
	sort.Strings(deps)
	return deps
}

// DependencyChecker resolves a component's declared dependency set and
// checks each dependency transitively.
//
// Traversal stops at the first unreachable dependency, but every check
// already performed is still reported: partial results are surfaced, not
// discarded. Cycles in the graph are traversed at most once per node.
type DependencyChecker struct {
	name      string
	component string
	graph     DependencyGraph
	probes    map[string]Checker
}

// NewDependencyChecker creates a checker for the given component's
// dependency set. probes maps component names to their reachability checks;
// a dependency without a probe is reported as unknown.
func NewDependencyChecker(name, component string, graph DependencyGraph, probes map[string]Checker) *DependencyChecker {
	return &DependencyChecker{
		name:      name,
		component: component,
		graph:     graph,
		probes:    probes,
	}
}

// Name returns the name of this checker.
func (d *DependencyChecker) Name() string {
	return d.name
}

// CheckComponent checks the component's dependencies transitively and
// returns the ordered sequence of results gathered before traversal stopped.
func (d *DependencyChecker) CheckComponent(ctx context.Context) []Result {
	var results []Result

	visited := map[string]bool{d.component: true}
	queue := d.graph.Dependencies(d.component)

	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]

		if visited[dep] {
			continue
		}
		visited[dep] = true

		result := d.probeDependency(ctx, dep)
		results = append(results, result)

		if result.Status == StatusUnhealthy {
			// Dependency unreachable: nothing past it can be meaningfully
			// checked, so stop the traversal here.
			break
		}

		queue = append(queue, d.graph.Dependencies(dep)...)
	}

	return results
}

func (d *DependencyChecker) probeDependency(ctx context.Context, dep string) Result {
	probe, ok := d.probes[dep]
	if !ok {
		return Unknown(
			fmt.Sprintf("no probe registered for dependency %q", dep),
			ErrCheckerNotFound,
		).named("dep:" + dep)
	}

	select {
	case <-ctx.Done():
		return Unhealthy("dependency check cancelled", ctx.Err()).named("dep:" + dep)
	default:
	}

	return probe.Check(ctx).named("dep:" + dep)
}

// Check adapts the transitive dependency walk to the Checker interface.
// The result status is the worst of the individual dependency statuses.
func (d *DependencyChecker) Check(ctx context.Context) Result {
	results := d.CheckComponent(ctx)
	if len(results) == 0 {
		return Healthy(fmt.Sprintf("component %q has no dependencies", d.component))
	}

	worst := StatusHealthy
	details := make(map[string]any, len(results))
	for _, r := range results {
		worst = WorstOf(worst, r.Status)
		details[r.Check] = r.Status.String()
	}

	result := Result{
		Status:  worst,
		Message: fmt.Sprintf("%d dependencies checked", len(results)),
		Details: details,
	}
	if worst == StatusUnhealthy {
		last := results[len(results)-1]
		result.Message = fmt.Sprintf("dependency %s unreachable, traversal stopped", last.Check)
		result.Err = ErrCheckFailed
	}
	return result
}
