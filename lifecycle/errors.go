package lifecycle

import "errors"

var (
	// ErrNilManager indicates a plan was requested without a manager.
	ErrNilManager = errors.New("lifecycle: nil container manager")

	// ErrUnnamedEnvironment indicates an environment without a name.
	ErrUnnamedEnvironment = errors.New("lifecycle: environment has no name")

	// ErrNoServices indicates an environment with no services.
	ErrNoServices = errors.New("lifecycle: environment has no services")
)
