package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Settings configures a breaker. MaxRequests is the consecutive-failure
// threshold that trips the breaker, Interval is how long a closed breaker
// remembers failures before zeroing the count, and Timeout is how long an
// open breaker waits before letting a probe through.
type Settings struct {
	Name        string
	MaxRequests int
	Interval    time.Duration
	Timeout     time.Duration
}

type CircuitBreaker struct {
	name      string
	threshold int
	interval  time.Duration
	timeout   time.Duration

	mu          sync.Mutex
	state       state
	failures    int
	windowStart time.Time
	openedAt    time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:      settings.Name,
		threshold: settings.MaxRequests,
		interval:  settings.Interval,
		timeout:   settings.Timeout,
	}
	if cb.threshold <= 0 {
		cb.threshold = 5
	}
	if cb.timeout <= 0 {
		cb.timeout = 30 * time.Second
	}
	cb.windowStart = time.Now()
	return cb
}

// Execute runs fn unless the breaker is open. A single success in half-open
// closes the breaker again.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	switch cb.state {
	case stateOpen:
		if now.Sub(cb.openedAt) < cb.timeout {
			return fmt.Errorf("%s: %w", cb.name, ErrOpen)
		}
		cb.state = stateHalfOpen
	case stateClosed:
		if cb.interval > 0 && now.Sub(cb.windowStart) > cb.interval {
			cb.failures = 0
			cb.windowStart = now
		}
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.state = stateClosed
		cb.failures = 0
		return
	}

	cb.failures++
	if cb.state == stateHalfOpen || cb.failures >= cb.threshold {
		cb.state = stateOpen
		cb.openedAt = time.Now()
	}
}
