// Package observe provides telemetry for the health and workflow
// subsystems: structured JSON logging, OpenTelemetry tracing, and domain
// metrics (check latencies, step transitions, run outcomes).
//
// # Usage
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "envops",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer obs.Shutdown(ctx)
//
//	log := obs.Logger().WithComponent("agent")
//	log.Info(ctx, "environment starting")
//
// Loggers redact fields that commonly carry credentials (dsn, password,
// token and similar keys).
package observe
