package lifecycle

import (
	"context"

	"github.com/envops-io/envops/health"
)

// Manager is the boundary contract with the process/container manager.
//
// Contract: each call returns within the caller's context deadline or the
// call is considered failed; implementations report failures as errors with
// diagnostic text, never by panicking.
type Manager interface {
	// CreateService provisions a service's container without starting it.
	CreateService(ctx context.Context, env, service string) error

	// StartService starts a provisioned service.
	StartService(ctx context.Context, env, service string) error

	// StopService stops a running service.
	StopService(ctx context.Context, env, service string) error

	// RemoveService removes a service's container.
	RemoveService(ctx context.Context, env, service string) error

	// InspectProcess reports the state of a service container. The id is
	// the qualified service id (see ServiceID). Satisfies
	// health.ProcessInspector.
	InspectProcess(ctx context.Context, id string) (health.ProcessState, error)
}

// ServiceID returns the qualified container id for a service within an
// environment, e.g. "agent-api".
func ServiceID(env, service string) string {
	return env + "-" + service
}

// Environment describes one managed environment and its services.
type Environment struct {
	// Name identifies the environment (e.g. "agent", "main").
	Name string

	// Services lists service names in start order. Teardown reverses it.
	Services []string

	// Gate optionally names a component whose aggregate health must not be
	// unhealthy before this environment's services start (e.g. the agent
	// environment gating on "main").
	Gate string
}
