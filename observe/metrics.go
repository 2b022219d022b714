package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records health-check and workflow telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one health check invocation.
	RecordCheck(ctx context.Context, check, status string, latency time.Duration)

	// RecordStep records one workflow step reaching a terminal state.
	RecordStep(ctx context.Context, step, state string, duration time.Duration)

	// RecordRun records one workflow run outcome.
	RecordRun(ctx context.Context, component, outcome string, duration time.Duration)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	checkCount   metric.Int64Counter
	checkLatency metric.Float64Histogram
	stepCount    metric.Int64Counter
	stepDuration metric.Float64Histogram
	runCount     metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	checkCount, err := meter.Int64Counter(
		"health.check.total",
		metric.WithDescription("Total number of health check invocations"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	checkLatency, err := meter.Float64Histogram(
		"health.check.latency_ms",
		metric.WithDescription("Health check latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stepCount, err := meter.Int64Counter(
		"workflow.step.total",
		metric.WithDescription("Total number of workflow steps reaching a terminal state"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"workflow.step.duration_ms",
		metric.WithDescription("Workflow step duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	runCount, err := meter.Int64Counter(
		"workflow.run.total",
		metric.WithDescription("Total number of workflow runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		checkCount:   checkCount,
		checkLatency: checkLatency,
		stepCount:    stepCount,
		stepDuration: stepDuration,
		runCount:     runCount,
	}, nil
}

// RecordCheck records metrics for a health check invocation.
func (m *metricsImpl) RecordCheck(ctx context.Context, check, status string, latency time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("status", status),
	)

	m.checkCount.Add(ctx, 1, opt)
	m.checkLatency.Record(ctx, float64(latency.Milliseconds()), opt)
}

// RecordStep records metrics for a terminal workflow step.
func (m *metricsImpl) RecordStep(ctx context.Context, step, state string, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("state", state),
	)

	m.stepCount.Add(ctx, 1, opt)
	m.stepDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRun records metrics for a workflow run outcome.
func (m *metricsImpl) RecordRun(ctx context.Context, component, outcome string, duration time.Duration) {
	m.runCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("outcome", outcome),
	))
}

// nopMetrics is a metrics implementation that does nothing.
type nopMetrics struct{}

func (m *nopMetrics) RecordCheck(ctx context.Context, check, status string, latency time.Duration) {}
func (m *nopMetrics) RecordStep(ctx context.Context, step, state string, duration time.Duration)   {}
func (m *nopMetrics) RecordRun(ctx context.Context, component, outcome string, duration time.Duration) {
}

// NopMetrics returns a metrics recorder that discards everything.
func NopMetrics() Metrics {
	return &nopMetrics{}
}
