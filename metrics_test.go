package go_openid

import (
	"sync"
	"testing"
	"time"
)

// TestInMemoryMetricsCounters verifies the counters and the per-reason
// failure map.
func TestInMemoryMetricsCounters(t *testing.T) {
	m := NewInMemoryMetrics()

	m.IncrementHandshakeStarted()
	m.IncrementHandshakeStarted()
	m.IncrementHandshakeAccepted()
	m.IncrementRenegotiation()
	m.IncrementHandshakeFailed(FAIL_REASON_TRANSPORT)
	m.IncrementHandshakeFailed(FAIL_REASON_TRANSPORT)
	m.IncrementHandshakeFailed(FAIL_REASON_POLICY)

	if got := m.HandshakesStarted(); got != 2 {
		t.Errorf("HandshakesStarted() = %d, want 2", got)
	}
	if got := m.HandshakesAccepted(); got != 1 {
		t.Errorf("HandshakesAccepted() = %d, want 1", got)
	}
	if got := m.Renegotiations(); got != 1 {
		t.Errorf("Renegotiations() = %d, want 1", got)
	}
	if got := m.HandshakesFailed(FAIL_REASON_TRANSPORT); got != 2 {
		t.Errorf("HandshakesFailed(transport) = %d, want 2", got)
	}
	if got := m.HandshakesFailed(FAIL_REASON_MALFORMED); got != 0 {
		t.Errorf("HandshakesFailed(malformed) = %d, want 0", got)
	}
}

// TestInMemoryMetricsDuration verifies the running average.
func TestInMemoryMetricsDuration(t *testing.T) {
	m := NewInMemoryMetrics()
	if got := m.AverageNegotiationDuration(); got != 0 {
		t.Errorf("AverageNegotiationDuration() with no samples = %v, want 0", got)
	}
	m.RecordNegotiationDuration(100 * time.Millisecond)
	m.RecordNegotiationDuration(300 * time.Millisecond)
	if got := m.AverageNegotiationDuration(); got != 200*time.Millisecond {
		t.Errorf("AverageNegotiationDuration() = %v, want 200ms", got)
	}
}

// TestInMemoryMetricsConcurrent exercises the collector from many
// goroutines; the race detector is the real assertion here.
func TestInMemoryMetricsConcurrent(t *testing.T) {
	m := NewInMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementHandshakeStarted()
				m.IncrementHandshakeFailed(FAIL_REASON_TRANSPORT)
				m.RecordNegotiationDuration(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := m.HandshakesStarted(); got != 800 {
		t.Errorf("HandshakesStarted() = %d, want 800", got)
	}
	if got := m.HandshakesFailed(FAIL_REASON_TRANSPORT); got != 800 {
		t.Errorf("HandshakesFailed(transport) = %d, want 800", got)
	}
}
