package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceUsage is an immutable snapshot of one resource at a point in time.
//
// Used is never negative. Used exceeding Capacity is a valid, reportable
// state (overcommit); it is a health signal, not an enforced invariant.
type ResourceUsage struct {
	// Resource names the sampled resource (e.g. "memory", "db-pool").
	Resource string

	// Used is the amount currently in use.
	Used float64

	// Capacity is the total available amount. Zero means unknown capacity.
	Capacity float64

	// Unit is the unit of measure for Used and Capacity.
	Unit string

	// Status classifies the snapshot. StatusUnknown means the resource
	// could not be read.
	Status Status

	// Err is set when the resource could not be read.
	Err error
}

// Ratio returns Used/Capacity, or 0 when capacity is unknown.
func (u ResourceUsage) Ratio() float64 {
	if u.Capacity <= 0 {
		return 0
	}
	return u.Used / u.Capacity
}

// Sampler reads one resource counter. Samplers must not block on
// unavailable metrics; a failed read returns an error and the caller
// reports the resource as unknown.
type Sampler interface {
	// Resource returns the name of the sampled resource.
	Resource() string

	// Sample reads the resource counter.
	Sample(ctx context.Context) (ResourceUsage, error)
}

// SampleAll samples every resource and classifies each snapshot against the
// given thresholds. Unreadable resources yield StatusUnknown entries rather
// than failing the whole call. Results are returned in sampler order.
func SampleAll(ctx context.Context, samplers []Sampler, warn, critical float64) []ResourceUsage {
	if warn <= 0 || warn >= 1 {
		warn = 0.8
	}
	if critical <= warn || critical >= 1 {
		critical = 0.95
	}

	usages := make([]ResourceUsage, 0, len(samplers))
	for _, s := range samplers {
		usage, err := s.Sample(ctx)
		if err != nil {
			usages = append(usages, ResourceUsage{
				Resource: s.Resource(),
				Status:   StatusUnknown,
				Err:      err,
			})
			continue
		}
		usage.Resource = s.Resource()
		usage.Status = classifyUsage(usage, warn, critical)
		usages = append(usages, usage)
	}
	return usages
}

func classifyUsage(u ResourceUsage, warn, critical float64) Status {
	if u.Capacity <= 0 {
		return StatusHealthy
	}
	ratio := u.Ratio()
	switch {
	case ratio >= critical:
		return StatusUnhealthy
	case ratio >= warn:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// ResourceCheckerConfig configures a resource usage checker.
type ResourceCheckerConfig struct {
	// WarnThreshold is the usage ratio that triggers degraded status.
	// Default: 0.8.
	WarnThreshold float64

	// CriticalThreshold is the usage ratio that triggers unhealthy status.
	// Default: 0.95.
	CriticalThreshold float64
}

// ResourceChecker adapts a set of Samplers into a single Checker whose
// status is the worst of the individual snapshot statuses.
type ResourceChecker struct {
	name     string
	samplers []Sampler
	config   ResourceCheckerConfig
}

// NewResourceChecker creates a checker over the given samplers.
func NewResourceChecker(name string, samplers []Sampler, config ResourceCheckerConfig) *ResourceChecker {
	return &ResourceChecker{name: name, samplers: samplers, config: config}
}

// Name returns the name of this checker.
func (r *ResourceChecker) Name() string {
	return r.name
}

// Check samples all resources and aggregates the snapshot statuses.
func (r *ResourceChecker) Check(ctx context.Context) Result {
	if len(r.samplers) == 0 {
		return Unknown("no resource samplers configured", ErrNoCheckers)
	}

	usages := SampleAll(ctx, r.samplers, r.config.WarnThreshold, r.config.CriticalThreshold)

	worst := StatusHealthy
	details := make(map[string]any, len(usages))
	for _, u := range usages {
		worst = WorstOf(worst, u.Status)
		entry := map[string]any{
			"status": u.Status.String(),
			"used":   u.Used,
			"unit":   u.Unit,
		}
		if u.Capacity > 0 {
			entry["capacity"] = u.Capacity
		}
		if u.Err != nil {
			entry["error"] = u.Err.Error()
		}
		details[u.Resource] = entry
	}

	result := Result{
		Status:  worst,
		Message: fmt.Sprintf("%d resources sampled", len(usages)),
	}
	switch worst {
	case StatusUnhealthy:
		result.Message = "resource usage critical"
		result.Err = ErrCheckFailed
	case StatusDegraded:
		result.Message = "resource usage high"
	case StatusUnknown:
		result.Message = "some resources unreadable"
	}
	return result.WithDetails(details)
}

// MemorySampler samples Go heap allocation against a configured ceiling.
type MemorySampler struct {
	// MaxAllocBytes is the expected allocation ceiling. If zero, the
	// runtime's reserved size is used.
	MaxAllocBytes uint64
}

// Resource returns "memory".
func (m *MemorySampler) Resource() string {
	return "memory"
}

// Sample reads runtime memory statistics.
func (m *MemorySampler) Sample(ctx context.Context) (ResourceUsage, error) {
	select {
	case <-ctx.Done():
		return ResourceUsage{}, ctx.Err()
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	capacity := m.MaxAllocBytes
	if capacity == 0 {
		capacity = stats.Sys
	}

	return ResourceUsage{
		Used:     float64(stats.Alloc),
		Capacity: float64(capacity),
		Unit:     "bytes",
	}, nil
}

// GoroutineSampler samples the goroutine count against a configured ceiling.
type GoroutineSampler struct {
	// MaxGoroutines is the expected goroutine ceiling. Default: 10000.
	MaxGoroutines int
}

// Resource returns "goroutines".
func (g *GoroutineSampler) Resource() string {
	return "goroutines"
}

// Sample reads the current goroutine count.
func (g *GoroutineSampler) Sample(ctx context.Context) (ResourceUsage, error) {
	select {
	case <-ctx.Done():
		return ResourceUsage{}, ctx.Err()
	default:
	}

	capacity := g.MaxGoroutines
	if capacity <= 0 {
		capacity = 10000
	}

	return ResourceUsage{
		Used:     float64(runtime.NumGoroutine()),
		Capacity: float64(capacity),
		Unit:     "goroutines",
	}, nil
}

// PoolSampler samples connection usage of a pgx pool.
type PoolSampler struct {
	// Pool is the pool to sample. Required.
	Pool *pgxpool.Pool
}

// Resource returns "db-pool".
func (p *PoolSampler) Resource() string {
	return "db-pool"
}

// Sample reads the pool's connection counters.
func (p *PoolSampler) Sample(ctx context.Context) (ResourceUsage, error) {
	if p.Pool == nil {
		return ResourceUsage{}, ErrNilTarget
	}

	stat := p.Pool.Stat()
	return ResourceUsage{
		Used:     float64(stat.AcquiredConns()),
		Capacity: float64(stat.MaxConns()),
		Unit:     "connections",
	}, nil
}
