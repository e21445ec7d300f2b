package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// StateChangeFunc observes breaker transitions. It runs outside the breaker
// lock, so it may call back into the breaker.
type StateChangeFunc func(dependency string, from, to CircuitState)

// CircuitBreaker guards one upstream dependency of the dashboard.
// A nil *CircuitBreaker always allows and records nothing.
type CircuitBreaker struct {
	mu sync.Mutex

	dependency    string
	onStateChange StateChangeFunc

	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int

	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
	halfOpenSuccesses   int
	now                 func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if openTimeout <= 0 {
		openTimeout = 15 * time.Second
	}
	if halfOpenMaxReq < 1 {
		halfOpenMaxReq = 1
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		halfOpenMaxReq:   halfOpenMaxReq,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call to the dependency may proceed. A rejection
// wraps ErrCircuitOpen with the dependency name.
func (b *CircuitBreaker) Allow() error {
	if b == nil {
		return nil
	}

	var err error
	b.transition(func() {
		if b.state == CircuitStateOpen {
			if b.now().Sub(b.openedAt) < b.openTimeout {
				err = b.openError()
				return
			}
			b.toHalfOpen()
		}

		if b.state == CircuitStateHalfOpen {
			if b.halfOpenInFlight >= b.halfOpenMaxReq {
				err = b.openError()
				return
			}
			b.halfOpenInFlight++
		}
	})
	return err
}

// Dependency is the name of the guarded upstream.
func (b *CircuitBreaker) Dependency() string {
	if b == nil {
		return ""
	}
	return b.dependency
}

func (b *CircuitBreaker) openError() error {
	if b.dependency == "" {
		return ErrCircuitOpen
	}
	return fmt.Errorf("%s: %w", b.dependency, ErrCircuitOpen)
}

// transition runs fn under the lock and reports any state change afterwards.
func (b *CircuitBreaker) transition(fn func()) {
	b.mu.Lock()
	from := b.state
	fn()
	to := b.state
	notify := b.onStateChange
	b.mu.Unlock()

	if from != to && notify != nil {
		notify(b.dependency, from, to)
	}
}

// Record classifies the outcome of an allowed call. Errors for which
// isFailure returns false count as success, so caller mistakes (4xx) never
// open the circuit.
func (b *CircuitBreaker) Record(err error, isFailure func(error) bool) {
	if b == nil {
		return
	}
	if err != nil && isFailure != nil && isFailure(err) {
		b.RecordFailure()
		return
	}
	b.RecordSuccess()
}

func (b *CircuitBreaker) RecordSuccess() {
	if b == nil {
		return
	}
	b.transition(func() {
		switch b.state {
		case CircuitStateClosed:
			b.consecutiveFailures = 0
		case CircuitStateHalfOpen:
			if b.halfOpenInFlight > 0 {
				b.halfOpenInFlight--
			}
			b.halfOpenSuccesses++
			if b.halfOpenSuccesses >= b.halfOpenMaxReq && b.halfOpenInFlight == 0 {
				b.toClosed()
			}
		}
	})
}

func (b *CircuitBreaker) RecordFailure() {
	if b == nil {
		return
	}
	b.transition(func() {
		switch b.state {
		case CircuitStateClosed:
			b.consecutiveFailures++
			if b.consecutiveFailures >= b.failureThreshold {
				b.toOpen()
			}
		case CircuitStateHalfOpen:
			if b.halfOpenInFlight > 0 {
				b.halfOpenInFlight--
			}
			b.toOpen()
		case CircuitStateOpen:
			b.openedAt = b.now()
		}
	})
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) >= b.openTimeout {
			return CircuitStateHalfOpen
		}
	}

	return b.state
}

func (b *CircuitBreaker) toClosed() {
	b.state = CircuitStateClosed
	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
	b.openedAt = time.Time{}
}

func (b *CircuitBreaker) toOpen() {
	b.state = CircuitStateOpen
	b.openedAt = b.now()
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}

func (b *CircuitBreaker) toHalfOpen() {
	b.state = CircuitStateHalfOpen
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}
