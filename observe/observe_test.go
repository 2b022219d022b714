package observe

import (
	"context"
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			"missing service name",
			Config{},
			ErrMissingServiceName,
		},
		{
			"valid minimal",
			Config{ServiceName: "envops"},
			nil,
		},
		{
			"invalid tracing exporter",
			Config{
				ServiceName: "envops",
				Tracing:     TracingConfig{Enabled: true, Exporter: "jaeger"},
			},
			ErrInvalidTracingExporter,
		},
		{
			"invalid sample pct",
			Config{
				ServiceName: "envops",
				Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.5},
			},
			ErrInvalidSamplePct,
		},
		{
			"invalid metrics exporter",
			Config{
				ServiceName: "envops",
				Metrics:     MetricsConfig{Enabled: true, Exporter: "statsd"},
			},
			ErrInvalidMetricsExporter,
		},
		{
			"invalid log level",
			Config{
				ServiceName: "envops",
				Logging:     LoggingConfig{Enabled: true, Level: "verbose"},
			},
			ErrInvalidLogLevel,
		},
		{
			"disabled subsystems skip validation",
			Config{
				ServiceName: "envops",
				Tracing:     TracingConfig{Enabled: false, Exporter: "jaeger"},
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "envops"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	defer obs.Shutdown(context.Background())

	// All subsystems disabled still yield usable no-op primitives.
	if obs.Tracer() == nil {
		t.Error("Tracer() = nil")
	}
	if obs.Meter() == nil {
		t.Error("Meter() = nil")
	}
	if obs.Logger() == nil {
		t.Error("Logger() = nil")
	}
	if obs.Metrics() == nil {
		t.Error("Metrics() = nil")
	}
	obs.Metrics().RecordCheck(context.Background(), "postgres", "healthy", 0)

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver() error = %v, want ErrMissingServiceName", err)
	}
}

func TestNewObserver_StdoutExporters(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "envops",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "error"},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
