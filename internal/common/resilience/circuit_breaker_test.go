package resilience

import (
	"testing"
	"time"

	"github.com/AlibekovAA/relay-hub/internal/common/clock"
)

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute, Clock: clk})

	if cb.RecordFailure() || cb.RecordFailure() {
		t.Fatal("breaker opened before threshold")
	}
	if !cb.RecordFailure() {
		t.Fatal("expected third failure to open the breaker")
	}
	if !cb.IsOpen() {
		t.Error("expected breaker open")
	}
	if cb.RecordFailure() {
		t.Error("expected open transition to be reported once")
	}
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute})

	cb.RecordFailure()
	cb.RecordSuccess()
	if cb.RecordFailure() {
		t.Error("expected count to restart after success")
	}
}

func TestCircuitBreaker_StaleFailuresForgotten(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: 10 * time.Second, Clock: clk})

	cb.RecordFailure()
	clk.Advance(11 * time.Second)
	if cb.RecordFailure() {
		t.Error("expected stale failure not to count")
	}

	cb.RecordFailure()
	if !cb.IsOpen() {
		t.Fatal("expected breaker open")
	}
	clk.Advance(11 * time.Second)
	if cb.IsOpen() {
		t.Error("expected breaker to close after reset window")
	}
}

func TestCircuitBreaker_ZeroThresholdNeverOpens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	for i := 0; i < 100; i++ {
		if cb.RecordFailure() {
			t.Fatal("disabled breaker opened")
		}
	}
}
