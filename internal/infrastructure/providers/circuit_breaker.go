package providers

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"search-hub/internal/domain/search"
)

// CircuitState is the state of a provider's circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
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

// CircuitBreakerConfig defines per-provider circuit breaker behavior.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	MaxHalfOpenCalls int
}

// DefaultCircuitBreakerConfig returns the production defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 15,
		SuccessThreshold: 5,
		Timeout:          45 * time.Second,
		MaxHalfOpenCalls: 10,
	}
}

// CircuitBreaker stops hammering a provider that keeps failing. Each
// provider adapter holds its own instance so one broken back end cannot
// open the circuit for the others.
type CircuitBreaker struct {
	cfg      CircuitBreakerConfig
	provider string

	mu              sync.RWMutex
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	halfOpenCalls   int
}

func NewCircuitBreaker(provider string, cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, provider: provider, state: StateClosed}
}

// Execute runs fn under breaker protection. An open circuit fails with a
// transient error so the caller's retry policy treats it like any other
// temporarily unavailable back end.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb == nil {
		return fn()
	}
	if !cb.allowRequest() {
		return search.NewError(search.KindTransient, cb.provider, "circuit breaker open")
	}

	err := fn()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.cfg.Enabled {
		return true
	}

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailureTime) > cb.cfg.Timeout {
			log.Info().Str("provider", cb.provider).Msg("circuit breaker transitioning to half-open")
			cb.state = StateHalfOpen
			cb.halfOpenCalls = 0
			cb.successes = 0
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.cfg.MaxHalfOpenCalls {
			cb.halfOpenCalls++
			return true
		}
		return false
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.cfg.Enabled {
		return
	}

	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailureTime = time.Now()

		if cb.state == StateHalfOpen {
			log.Warn().Str("provider", cb.provider).Msg("circuit breaker reopening after half-open failure")
			cb.state = StateOpen
			cb.halfOpenCalls = 0
		} else if cb.state == StateClosed && cb.failures >= cb.cfg.FailureThreshold {
			log.Warn().
				Str("provider", cb.provider).
				Int("failures", cb.failures).
				Msg("circuit breaker opening, failure threshold reached")
			cb.state = StateOpen
		}
		return
	}

	cb.successes++
	if cb.state == StateHalfOpen && cb.successes >= cb.cfg.SuccessThreshold {
		log.Info().Str("provider", cb.provider).Msg("circuit breaker closing from half-open")
		cb.state = StateClosed
		cb.failures = 0
		cb.successes = 0
		cb.halfOpenCalls = 0
	} else if cb.state == StateClosed {
		cb.failures = 0
	}
}

// State reports the current state for metrics export.
func (cb *CircuitBreaker) State() CircuitState {
	if cb == nil {
		return StateClosed
	}
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	if !cb.cfg.Enabled {
		return StateClosed
	}
	return cb.state
}
