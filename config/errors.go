package config

import "errors"

var (
	// ErrInvalidDuration indicates a duration string failed to parse.
	ErrInvalidDuration = errors.New("config: invalid duration")

	// ErrMissingEnvVars indicates ${VAR} references with no matching
	// environment variables.
	ErrMissingEnvVars = errors.New("config: missing required environment variables")

	// ErrUnknownComponent indicates a dependency on an undeclared component.
	ErrUnknownComponent = errors.New("config: unknown component")

	// ErrUnnamedEnvironment indicates an environment without a name.
	ErrUnnamedEnvironment = errors.New("config: environment has no name")

	// ErrDuplicateEnvironment indicates two environments share a name.
	ErrDuplicateEnvironment = errors.New("config: duplicate environment")

	// ErrNoServices indicates an environment with no services.
	ErrNoServices = errors.New("config: environment has no services")

	// ErrInvalidTarget indicates an incomplete probe target.
	ErrInvalidTarget = errors.New("config: invalid target")
)
