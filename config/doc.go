// Package config loads the YAML configuration snapshot consumed by the
// health and workflow subsystems.
//
// A loaded Config is immutable for the duration of a run. Values may
// reference environment variables with ${VAR}; every referenced variable
// must be set, so a missing credential fails at load time instead of
// surfacing later as a confusing connection error.
//
//	cfg, err := config.Load("envops.yaml")
//	if err != nil {
//	    return err
//	}
//
//	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig())
//	svc := health.NewService(cfg.HealthServiceConfig())
package config
