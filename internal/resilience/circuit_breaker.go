package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type CircuitBreakerConfig struct {
	Name        string
	MaxFailures int
	// Timeout is how long the breaker stays open before letting trial
	// calls through.
	Timeout time.Duration
	// HalfOpenMax is both the number of concurrent trial calls allowed
	// while half-open and the number of successes needed to close again.
	HalfOpenMax   int
	OnStateChange func(name string, from, to State)
	// IsFailure decides which errors count against the breaker.
	// Defaults to every non-nil error.
	IsFailure func(error) bool
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// CircuitBreaker guards calls to the external forecast store so a dead
// backend degrades to fallback answers instead of stalling requests.
// Calls abandoned by their own context never count as failures, and a
// call only counts toward the state it was admitted in.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       State
	generation  uint64
	failures    int
	successes   int
	trials      int
	lastFailure time.Time
}

// ticket identifies an admitted call. generation changes on every state
// transition, so outcomes from an earlier state are dropped.
type ticket struct {
	generation uint64
	trial      bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) Name() string {
	return cb.cfg.Name
}

// Execute runs fn if the breaker admits it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn(ctx)

	switch {
	case ctx.Err() != nil && err != nil:
		cb.abandon(t)
	case cb.cfg.IsFailure(err):
		cb.record(t, false)
	default:
		cb.record(t, true)
	}
	return err
}

func (cb *CircuitBreaker) admit() (ticket, error) {
	var change func()

	cb.mu.Lock()
	defer func() {
		cb.mu.Unlock()
		if change != nil {
			change()
		}
	}()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) < cb.cfg.Timeout {
			return ticket{}, ErrCircuitOpen
		}
		change = cb.transitionTo(StateHalfOpen)
	}

	if cb.state == StateHalfOpen {
		if cb.trials >= cb.cfg.HalfOpenMax {
			return ticket{}, ErrCircuitOpen
		}
		cb.trials++
		return ticket{generation: cb.generation, trial: true}, nil
	}
	return ticket{generation: cb.generation}, nil
}

func (cb *CircuitBreaker) abandon(t ticket) {
	cb.mu.Lock()
	if t.trial && t.generation == cb.generation && cb.trials > 0 {
		cb.trials--
	}
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) record(t ticket, ok bool) {
	var change func()

	cb.mu.Lock()
	if t.generation != cb.generation {
		cb.mu.Unlock()
		return
	}
	if t.trial && cb.trials > 0 {
		cb.trials--
	}

	if ok {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.HalfOpenMax {
				change = cb.transitionTo(StateClosed)
			}
		}
	} else {
		cb.lastFailure = cb.now()
		switch cb.state {
		case StateClosed:
			cb.failures++
			if cb.failures >= cb.cfg.MaxFailures {
				change = cb.transitionTo(StateOpen)
			}
		case StateHalfOpen:
			change = cb.transitionTo(StateOpen)
		}
	}
	cb.mu.Unlock()

	if change != nil {
		change()
	}
}

// transitionTo must be called with mu held. The returned func notifies
// the listener and must be called after unlocking.
func (cb *CircuitBreaker) transitionTo(to State) func() {
	from := cb.state
	cb.state = to
	cb.generation++
	cb.failures = 0
	cb.successes = 0
	cb.trials = 0

	if cb.cfg.OnStateChange == nil || from == to {
		return nil
	}
	return func() { cb.cfg.OnStateChange(cb.cfg.Name, from, to) }
}

func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Snapshot{State: cb.state, Failures: cb.failures, LastFailure: cb.lastFailure}
}
