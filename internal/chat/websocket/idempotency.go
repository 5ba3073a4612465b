package websocket

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/AlibekovAA/relay-hub/internal/common/clock"
	"github.com/AlibekovAA/relay-hub/internal/common/constants"
	observabilitymetrics "github.com/AlibekovAA/relay-hub/internal/observability/metrics"
)

type idempotencyResult struct {
	expiresAt time.Time
}

// IdempotencyTracker remembers recently executed operations so a client
// retransmission inside the TTL is not relayed twice.
type IdempotencyTracker struct {
	operations sync.Map
	ttl        time.Duration
	clock      clock.Clock
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewIdempotencyTracker(clk clock.Clock, ttl time.Duration) *IdempotencyTracker {
	if ttl <= 0 {
		ttl = constants.IdempotencyTTL
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}

	tracker := &IdempotencyTracker{
		ttl:   ttl,
		clock: clk,
		stop:  make(chan struct{}),
	}

	go tracker.cleanup()

	return tracker
}

// OperationID keys an operation on the sending connection, its type and the raw payload.
func (t *IdempotencyTracker) OperationID(connID, msgType string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(connID))
	h.Write([]byte{0})
	h.Write([]byte(msgType))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Execute runs fn unless operationID was already delivered within the TTL,
// in which case duplicate is true and fn is skipped. Only an outcome that
// reached at least one connection is remembered, so a retry of an
// undelivered or failed operation runs again.
func (t *IdempotencyTracker) Execute(operationID, msgType string, fn func() (int, error)) (duplicate bool, err error) {
	now := t.clock.Now()
	if stored, ok := t.operations.Load(operationID); ok {
		res := stored.(*idempotencyResult)
		if now.Before(res.expiresAt) {
			observabilitymetrics.ChatWebSocketIdempotencyDuplicates.WithLabelValues(msgType).Inc()
			return true, nil
		}
		t.operations.Delete(operationID)
	}

	delivered, err := fn()
	if err != nil || delivered == 0 {
		return false, err
	}

	t.operations.Store(operationID, &idempotencyResult{
		expiresAt: t.clock.Now().Add(t.ttl),
	})
	return false, nil
}

func (t *IdempotencyTracker) Len() int {
	n := 0
	t.operations.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (t *IdempotencyTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *IdempotencyTracker) cleanup() {
	ticker := time.NewTicker(t.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.evictExpired()
		}
	}
}

func (t *IdempotencyTracker) evictExpired() {
	now := t.clock.Now()
	t.operations.Range(func(key, value any) bool {
		if !now.Before(value.(*idempotencyResult).expiresAt) {
			t.operations.Delete(key)
		}
		return true
	})
}
