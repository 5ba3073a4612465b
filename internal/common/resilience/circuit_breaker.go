package resilience

import (
	"sync"
	"time"

	"github.com/AlibekovAA/relay-hub/internal/common/clock"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
	"github.com/AlibekovAA/relay-hub/internal/observability/metrics"
)

// CircuitBreaker counts consecutive failures and opens once threshold is
// reached. A failure older than ResetAfter starts the count over.
type CircuitBreaker struct {
	mu          sync.Mutex
	failures    int32
	lastFailure time.Time
	threshold   int32
	resetAfter  time.Duration
	name        string
	clock       clock.Clock
	log         *logger.Logger
}

type CircuitBreakerConfig struct {
	Threshold  int32
	ResetAfter time.Duration
	Name       string
	Clock      clock.Clock
	Logger     *logger.Logger
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Clock == nil {
		config.Clock = clock.NewRealClock()
	}
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		clock:      config.Clock,
		log:        config.Logger,
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.isOpenLocked(cb.clock.Now())
}

func (cb *CircuitBreaker) isOpenLocked(now time.Time) bool {
	if cb.threshold <= 0 || cb.failures < cb.threshold {
		return false
	}
	if cb.resetAfter > 0 && now.Sub(cb.lastFailure) > cb.resetAfter {
		cb.failures = 0
		cb.lastFailure = time.Time{}
		return false
	}
	return true
}

// RecordFailure counts one failure and reports whether this call opened the breaker.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.clock.Now()
	wasOpen := cb.isOpenLocked(now)
	if cb.resetAfter > 0 && !cb.lastFailure.IsZero() && now.Sub(cb.lastFailure) > cb.resetAfter {
		cb.failures = 0
	}
	cb.failures++
	cb.lastFailure = now

	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}

	opened := !wasOpen && cb.isOpenLocked(now)
	if opened && cb.log != nil {
		cb.log.Warnf("circuit breaker [%s]: opened after %d failures", cb.name, cb.failures)
	}
	return opened
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.mu.Unlock()
}
