package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/envops-io/envops/health"
	"github.com/envops-io/envops/observe"
	"github.com/envops-io/envops/resilience"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "250ms" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the immutable configuration snapshot supplied to the health
// and workflow subsystems at construction time. Load it once per run; it
// is never reloaded mid-run.
type Config struct {
	Service      ServiceConfig        `yaml:"service"`
	Telemetry    TelemetryConfig      `yaml:"telemetry"`
	Health       HealthConfig         `yaml:"health"`
	Workflow     WorkflowConfig       `yaml:"workflow"`
	Targets      TargetsConfig        `yaml:"targets"`
	Components   map[string]Component `yaml:"components"`
	Environments []EnvironmentConfig  `yaml:"environments"`
}

// ServiceConfig identifies the service for telemetry.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// TelemetryConfig configures the observe subsystem.
type TelemetryConfig struct {
	Tracing struct {
		Enabled   bool    `yaml:"enabled"`
		Exporter  string  `yaml:"exporter"`
		SamplePct float64 `yaml:"sample_pct"`
	} `yaml:"tracing"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"`
	} `yaml:"metrics"`
	Logging struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
	} `yaml:"logging"`
}

// RetryConfig configures bounded exponential backoff.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Multiplier   float64  `yaml:"multiplier"`

	// DisableJitter turns off the random delay variance, for
	// deterministic retry timing.
	DisableJitter bool `yaml:"disable_jitter"`
}

// HealthConfig configures the health service.
type HealthConfig struct {
	CheckTimeout   Duration    `yaml:"check_timeout"`
	OverallTimeout Duration    `yaml:"overall_timeout"`
	MaxConcurrent  int         `yaml:"max_concurrent"`
	Retry          RetryConfig `yaml:"retry"`
	Resources      struct {
		WarnThreshold     float64 `yaml:"warn_threshold"`
		CriticalThreshold float64 `yaml:"critical_threshold"`
	} `yaml:"resources"`
}

// WorkflowConfig configures the orchestrator.
type WorkflowConfig struct {
	StepTimeout Duration    `yaml:"step_timeout"`
	Retry       RetryConfig `yaml:"retry"`
}

// TargetsConfig holds the connection targets the health checkers probe.
type TargetsConfig struct {
	// PostgresDSN is the database connection string. Supports ${VAR}
	// expansion so credentials stay out of the file.
	PostgresDSN string `yaml:"postgres_dsn"`

	// RedisAddr is the Redis host:port.
	RedisAddr string `yaml:"redis_addr"`

	// Endpoints lists HTTP endpoints to probe.
	Endpoints []EndpointTarget `yaml:"endpoints"`
}

// EndpointTarget is one HTTP endpoint probe target.
type EndpointTarget struct {
	Name        string   `yaml:"name"`
	URL         string   `yaml:"url"`
	Timeout     Duration `yaml:"timeout"`
	WarnLatency Duration `yaml:"warn_latency"`
	Component   string   `yaml:"component"`
}

// Component declares one component and its dependencies.
type Component struct {
	DependsOn []string `yaml:"depends_on"`
}

// EnvironmentConfig declares one managed environment.
type EnvironmentConfig struct {
	Name     string   `yaml:"name"`
	Services []string `yaml:"services"`
	Gate     string   `yaml:"gate"`
}

// Load reads, expands and validates a configuration file. Every `${VAR}`
// reference in the file must be present in the environment; `$$` escapes a
// literal dollar.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse loads configuration from raw YAML bytes.
func Parse(raw []byte) (*Config, error) {
	expanded, err := expandEnvStrict(string(raw))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "envops"
	}
	if c.Health.CheckTimeout <= 0 {
		c.Health.CheckTimeout = Duration(5 * time.Second)
	}
	if c.Health.OverallTimeout <= 0 {
		c.Health.OverallTimeout = Duration(15 * time.Second)
	}
	if c.Health.MaxConcurrent <= 0 {
		c.Health.MaxConcurrent = 4
	}
	if c.Workflow.StepTimeout <= 0 {
		c.Workflow.StepTimeout = Duration(60 * time.Second)
	}
}

// Validate checks cross-references. A configuration error is fatal before
// anything executes.
func (c *Config) Validate() error {
	for name, comp := range c.Components {
		for _, dep := range comp.DependsOn {
			if _, ok := c.Components[dep]; !ok {
				return fmt.Errorf("%w: component %q depends on undeclared %q", ErrUnknownComponent, name, dep)
			}
		}
	}

	seen := make(map[string]bool, len(c.Environments))
	for _, env := range c.Environments {
		if env.Name == "" {
			return ErrUnnamedEnvironment
		}
		if seen[env.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateEnvironment, env.Name)
		}
		seen[env.Name] = true
		if len(env.Services) == 0 {
			return fmt.Errorf("%w: %q", ErrNoServices, env.Name)
		}
	}

	for _, ep := range c.Targets.Endpoints {
		if ep.Name == "" || ep.URL == "" {
			return fmt.Errorf("%w: endpoint needs name and url", ErrInvalidTarget)
		}
	}

	return nil
}

// DependencyGraph converts the component declarations into the graph the
// health checker traverses.
func (c *Config) DependencyGraph() health.DependencyGraph {
	graph := make(health.DependencyGraph, len(c.Components))
	for name, comp := range c.Components {
		deps := make([]string, len(comp.DependsOn))
		copy(deps, comp.DependsOn)
		graph[name] = deps
	}
	return graph
}

// ObserveConfig converts the telemetry section for observe.NewObserver.
func (c *Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing.Enabled,
			Exporter:  c.Telemetry.Tracing.Exporter,
			SamplePct: c.Telemetry.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.Metrics.Enabled,
			Exporter: c.Telemetry.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Telemetry.Logging.Enabled,
			Level:   c.Telemetry.Logging.Level,
		},
	}
}

// HealthServiceConfig converts the health section for health.NewService.
// Logger and metrics are attached by the caller.
func (c *Config) HealthServiceConfig() health.ServiceConfig {
	return health.ServiceConfig{
		CheckTimeout:   c.Health.CheckTimeout.Std(),
		OverallTimeout: c.Health.OverallTimeout.Std(),
		MaxConcurrent:  c.Health.MaxConcurrent,
		Retry:          c.Health.Retry.resilience(),
	}
}

// WorkflowRetry converts the workflow retry section.
func (c *Config) WorkflowRetry() resilience.RetryConfig {
	return c.Workflow.Retry.resilience()
}

func (r RetryConfig) resilience() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:   r.MaxAttempts,
		InitialDelay:  r.InitialDelay.Std(),
		MaxDelay:      r.MaxDelay.Std(),
		Multiplier:    r.Multiplier,
		DisableJitter: r.DisableJitter,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `$VAR` and `${VAR}` are expanded via os.ExpandEnv.
//   - If `${VAR}` is present but VAR is missing from the environment, it errors.
//   - `$$` emits a literal `$` (escape hatch).
func expandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00ENVOPS_CONFIG_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		key := match[1]
		if _, ok := os.LookupEnv(key); !ok {
			missing[key] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVars, strings.Join(keys, ", "))
	}

	s = os.ExpandEnv(s)
	s = strings.ReplaceAll(s, dollarSentinel, "$")
	return s, nil
}
