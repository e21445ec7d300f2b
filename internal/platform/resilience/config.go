package resilience

import (
	"time"

	"github.com/riskibarqy/kickoff-dashboard/internal/platform/logging"
)

type CircuitBreakerConfig struct {
	// Dependency names the upstream in errors and state change reports.
	Dependency       string
	OnStateChange    StateChangeFunc
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// NewCircuitBreakerFromConfig returns nil when the breaker is disabled.
func NewCircuitBreakerFromConfig(cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	cfg = NormalizeCircuitBreakerConfig(cfg)
	b := NewCircuitBreaker(cfg.FailureThreshold, cfg.OpenTimeout, cfg.HalfOpenMaxReq)
	b.dependency = cfg.Dependency
	b.onStateChange = cfg.OnStateChange
	return b
}

// LogStateChanges reports breaker transitions. Opening is a warning because
// dashboard pages for that dependency start failing fast.
func LogStateChanges(logger *logging.Logger) StateChangeFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(dependency string, from, to CircuitState) {
		args := []any{"dependency", dependency, "from", string(from), "to", string(to)}
		if to == CircuitStateOpen {
			logger.Warn("circuit breaker opened", args...)
			return
		}
		logger.Info("circuit breaker state changed", args...)
	}
}
