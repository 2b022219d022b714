package resilience

import (
	"context"
	"sync"
	"time"
)

// BreakerState is the state of a probe breaker.
type BreakerState int

const (
	// BreakerClosed means probes flow normally.
	BreakerClosed BreakerState = iota
	// BreakerOpen means probes are rejected until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen means a single trial probe is allowed through.
	BreakerHalfOpen
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a probe breaker.
type BreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the breaker.
	// Default: 5.
	MaxFailures int

	// Cooldown is how long the breaker stays open before allowing a trial
	// probe. Default: 30 seconds.
	Cooldown time.Duration

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(from, to BreakerState)
}

// Breaker stops hammering a target that keeps failing its probes. Readiness
// polling against a down dependency otherwise turns into a tight loop of
// doomed connection attempts.
type Breaker struct {
	config BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	trialInUse  bool
}

// NewBreaker creates a probe breaker, applying defaults for zero fields.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}

	return &Breaker{config: config, state: BreakerClosed}
}

// Execute runs op through the breaker. When the breaker is open the
// operation is not attempted and ErrBreakerOpen is returned.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := op(ctx)
	b.record(err)
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Reset closes the breaker and clears its failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := b.state
	b.state = BreakerClosed
	b.failures = 0
	b.trialInUse = false
	b.notify(from, BreakerClosed)
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case BreakerOpen:
		return ErrBreakerOpen
	case BreakerHalfOpen:
		if b.trialInUse {
			return ErrBreakerOpen
		}
		b.trialInUse = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := b.state

	switch b.state {
	case BreakerClosed:
		if err != nil {
			b.failures++
			b.lastFailure = time.Now()
			if b.failures >= b.config.MaxFailures {
				b.state = BreakerOpen
			}
		} else {
			b.failures = 0
		}

	case BreakerHalfOpen:
		b.trialInUse = false
		if err != nil {
			b.lastFailure = time.Now()
			b.state = BreakerOpen
		} else {
			b.state = BreakerClosed
			b.failures = 0
		}
	}

	b.notify(from, b.state)
}

// stateLocked transitions open -> half-open once the cooldown has elapsed.
func (b *Breaker) stateLocked() BreakerState {
	if b.state == BreakerOpen && time.Since(b.lastFailure) >= b.config.Cooldown {
		b.state = BreakerHalfOpen
		b.trialInUse = false
		b.notify(BreakerOpen, BreakerHalfOpen)
	}
	return b.state
}

func (b *Breaker) notify(from, to BreakerState) {
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
