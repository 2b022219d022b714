package health

import (
	"context"
	"fmt"
)

// ProcessState is a point-in-time snapshot of a managed process or container,
// as reported by the process manager.
type ProcessState struct {
	// Running reports whether the process is currently running.
	Running bool

	// Restarting reports whether the process is in a restart cycle.
	Restarting bool

	// RestartCount is the number of times the process has been restarted.
	RestartCount int

	// ExitCode is the last exit code for a stopped process.
	ExitCode int
}

// ProcessInspector reports the state of a managed process or container.
// The process/container manager boundary satisfies this interface.
type ProcessInspector interface {
	InspectProcess(ctx context.Context, id string) (ProcessState, error)
}

// ProcessCheckerConfig configures a process liveness checker.
type ProcessCheckerConfig struct {
	// ID identifies the process or container to inspect. Required.
	ID string

	// RestartThreshold is the restart count at or above which a running
	// process is reported as degraded. Default: 3.
	RestartThreshold int
}

// ProcessChecker verifies that an expected process or container is running.
//
// An absent or stopped process is unhealthy. A running process that is
// restart-looping is degraded. This check reads local state and is never
// retried: a single failed read is authoritative for that instant.
type ProcessChecker struct {
	name      string
	inspector ProcessInspector
	config    ProcessCheckerConfig
}

// NewProcessChecker creates a new process liveness checker.
func NewProcessChecker(name string, inspector ProcessInspector, config ProcessCheckerConfig) *ProcessChecker {
	if config.RestartThreshold <= 0 {
		config.RestartThreshold = 3
	}
	return &ProcessChecker{name: name, inspector: inspector, config: config}
}

// Name returns the name of this checker.
func (p *ProcessChecker) Name() string {
	return p.name
}

// Check inspects the process and classifies its state.
func (p *ProcessChecker) Check(ctx context.Context) Result {
	if p.inspector == nil {
		return Unhealthy("process inspector not configured", ErrNilTarget)
	}

	state, err := p.inspector.InspectProcess(ctx, p.config.ID)
	if err != nil {
		return Unhealthy(fmt.Sprintf("process %q not found", p.config.ID), err)
	}

	details := map[string]any{
		"id":            p.config.ID,
		"running":       state.Running,
		"restart_count": state.RestartCount,
	}

	if !state.Running {
		return Unhealthy(
			fmt.Sprintf("process %q not running (exit code %d)", p.config.ID, state.ExitCode),
			ErrCheckFailed,
		).WithDetails(details)
	}

	if state.Restarting || state.RestartCount >= p.config.RestartThreshold {
		return Degraded(
			fmt.Sprintf("process %q restart-looping (%d restarts)", p.config.ID, state.RestartCount),
		).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("process %q running", p.config.ID)).WithDetails(details)
}
