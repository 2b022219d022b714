package health

import (
	"context"
	"errors"
	"testing"
)

type fakeSampler struct {
	name  string
	usage ResourceUsage
	err   error
}

func (f *fakeSampler) Resource() string { return f.name }

func (f *fakeSampler) Sample(ctx context.Context) (ResourceUsage, error) {
	if f.err != nil {
		return ResourceUsage{}, f.err
	}
	return f.usage, nil
}

func TestSampleAll_Classification(t *testing.T) {
	tests := []struct {
		name string
		used float64
		want Status
	}{
		{"idle", 10, StatusHealthy},
		{"at warn", 80, StatusDegraded},
		{"at critical", 95, StatusUnhealthy},
		{"overcommitted", 120, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samplers := []Sampler{&fakeSampler{
				name:  "memory",
				usage: ResourceUsage{Used: tt.used, Capacity: 100, Unit: "bytes"},
			}}
			usages := SampleAll(context.Background(), samplers, 0.8, 0.95)

			if len(usages) != 1 {
				t.Fatalf("len(usages) = %d, want 1", len(usages))
			}
			if usages[0].Status != tt.want {
				t.Errorf("Status = %v, want %v", usages[0].Status, tt.want)
			}
		})
	}
}

func TestSampleAll_UnreadableIsUnknown(t *testing.T) {
	readErr := errors.New("cgroup file missing")
	samplers := []Sampler{
		&fakeSampler{name: "memory", usage: ResourceUsage{Used: 1, Capacity: 100}},
		&fakeSampler{name: "disk", err: readErr},
	}

	usages := SampleAll(context.Background(), samplers, 0.8, 0.95)
	if len(usages) != 2 {
		t.Fatalf("len(usages) = %d, want 2 (unreadable does not drop entries)", len(usages))
	}
	if usages[1].Resource != "disk" || usages[1].Status != StatusUnknown {
		t.Errorf("usages[1] = %+v, want unknown disk entry", usages[1])
	}
	if !errors.Is(usages[1].Err, readErr) {
		t.Errorf("Err = %v, want %v", usages[1].Err, readErr)
	}
}

func TestSampleAll_UnknownCapacityIsHealthy(t *testing.T) {
	samplers := []Sampler{&fakeSampler{
		name:  "queue",
		usage: ResourceUsage{Used: 1e9, Capacity: 0},
	}}

	usages := SampleAll(context.Background(), samplers, 0.8, 0.95)
	if usages[0].Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy when capacity is unknown", usages[0].Status)
	}
	if usages[0].Ratio() != 0 {
		t.Errorf("Ratio() = %v, want 0", usages[0].Ratio())
	}
}

func TestResourceChecker_WorstOf(t *testing.T) {
	c := NewResourceChecker("resources", []Sampler{
		&fakeSampler{name: "memory", usage: ResourceUsage{Used: 10, Capacity: 100}},
		&fakeSampler{name: "db-pool", usage: ResourceUsage{Used: 96, Capacity: 100}},
	}, ResourceCheckerConfig{})

	r := c.Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy (worst of samples)", r.Status)
	}
	if r.Details["db-pool"] == nil {
		t.Error("per-resource details missing")
	}
}

func TestResourceChecker_NoSamplers(t *testing.T) {
	c := NewResourceChecker("resources", nil, ResourceCheckerConfig{})
	r := c.Check(context.Background())
	if r.Status != StatusUnknown {
		t.Errorf("Status = %v, want unknown with no samplers", r.Status)
	}
}

func TestMemorySampler(t *testing.T) {
	s := &MemorySampler{}
	usage, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if usage.Used <= 0 {
		t.Error("Used not populated from runtime stats")
	}
	if usage.Unit != "bytes" {
		t.Errorf("Unit = %q, want bytes", usage.Unit)
	}
}

func TestGoroutineSampler(t *testing.T) {
	s := &GoroutineSampler{MaxGoroutines: 100}
	usage, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if usage.Used < 1 {
		t.Errorf("Used = %v, want at least the test goroutine", usage.Used)
	}
	if usage.Capacity != 100 {
		t.Errorf("Capacity = %v, want 100", usage.Capacity)
	}
}

func TestPoolSampler_NilPool(t *testing.T) {
	s := &PoolSampler{}
	if _, err := s.Sample(context.Background()); !errors.Is(err, ErrNilTarget) {
		t.Errorf("Sample() error = %v, want ErrNilTarget", err)
	}
}
