package workflow

import (
	"sync"
	"time"
)

// StepRecord is the per-step entry in the progress ledger.
type StepRecord struct {
	// Name is the step name.
	Name string

	// State is the step's current lifecycle state.
	State StepState

	// Attempts counts how many times the action was invoked.
	Attempts int

	// Duration is how long the action ran (zero while pending/running).
	Duration time.Duration

	// Err is the action error for a failed step, or the gate/cancellation
	// error when the action never ran.
	Err error

	// CompensateErr is set when the step's compensating action failed
	// during rollback. It is surfaced distinctly from Err so operators
	// know the system may be in a partially-modified state.
	CompensateErr error

	// Warning carries a non-fatal note, e.g. that the step had no
	// compensating action when rollback reached it.
	Warning string
}

// Progress is the mutable ledger for one orchestration run. It is owned and
// mutated exclusively by the Orchestrator executing the run; steps report
// outcomes and the Orchestrator applies the transitions. External callers
// get read-only snapshots.
type Progress struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*StepRecord
	run     RunState
}

// newProgress creates a ledger with every step pending.
func newProgress(plan *Plan) *Progress {
	steps := plan.Steps()
	p := &Progress{
		order:   make([]string, 0, len(steps)),
		records: make(map[string]*StepRecord, len(steps)),
		run:     RunPlanning,
	}
	for _, step := range steps {
		p.order = append(p.order, step.Name)
		p.records[step.Name] = &StepRecord{Name: step.Name, State: StepPending}
	}
	return p
}

// RunState returns the overall run state.
func (p *Progress) RunState() RunState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.run
}

// State returns the state of the named step.
func (p *Progress) State(name string) (StepState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.records[name]
	if !ok {
		return StepPending, false
	}
	return rec.State, true
}

// Snapshot returns a copy of every step record in plan order. Callers can
// poll it freely without affecting the run.
func (p *Progress) Snapshot() []StepRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	records := make([]StepRecord, 0, len(p.order))
	for _, name := range p.order {
		records = append(records, *p.records[name])
	}
	return records
}

func (p *Progress) setRun(state RunState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.run = state
}

func (p *Progress) setState(name string, state StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rec, ok := p.records[name]; ok {
		rec.State = state
	}
}

func (p *Progress) update(name string, fn func(*StepRecord)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rec, ok := p.records[name]; ok {
		fn(rec)
	}
}
