package go_openid

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines the interface for collecting association
// handshake metrics. This interface allows applications to plug in custom
// metrics implementations (e.g. Prometheus, StatsD, custom logging) for
// production monitoring.
//
// All methods are safe for concurrent use and should be non-blocking.
type MetricsCollector interface {
	// IncrementHandshakeStarted counts a negotiation entering its first
	// round trip.
	IncrementHandshakeStarted()

	// IncrementHandshakeAccepted counts a negotiation ending with a stored
	// association.
	IncrementHandshakeAccepted()

	// IncrementRenegotiation counts a relying party accepting a provider
	// suggestion and issuing its one retry.
	IncrementRenegotiation()

	// IncrementHandshakeFailed counts a negotiation ending without an
	// association. reason is one of the FAIL_REASON_* constants.
	IncrementHandshakeFailed(reason string)

	// RecordNegotiationDuration records the wall time of a completed
	// negotiation, successful or not.
	RecordNegotiationDuration(d time.Duration)
}

// Failure reason labels for IncrementHandshakeFailed.
const (
	FAIL_REASON_TRANSPORT     = "transport"
	FAIL_REASON_MALFORMED     = "malformed"
	FAIL_REASON_POLICY        = "policy"
	FAIL_REASON_RENEGOTIATION = "renegotiation"
	FAIL_REASON_VERSION       = "version"
	FAIL_REASON_STORE         = "store"
)

// InMemoryMetrics provides a simple in-memory implementation of
// MetricsCollector. Suitable for development, testing, and applications
// that want basic counters without external dependencies.
//
// All operations are thread-safe using atomic operations and minimal
// locking.
type InMemoryMetrics struct {
	started        uint64
	accepted       uint64
	renegotiations uint64

	failuresMu       sync.RWMutex
	failuresByReason map[string]uint64

	durationMu    sync.Mutex
	durationCount uint64
	durationTotal time.Duration
}

// NewInMemoryMetrics creates a zeroed in-memory collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		failuresByReason: make(map[string]uint64),
	}
}

// IncrementHandshakeStarted implements MetricsCollector.
func (m *InMemoryMetrics) IncrementHandshakeStarted() {
	atomic.AddUint64(&m.started, 1)
}

// IncrementHandshakeAccepted implements MetricsCollector.
func (m *InMemoryMetrics) IncrementHandshakeAccepted() {
	atomic.AddUint64(&m.accepted, 1)
}

// IncrementRenegotiation implements MetricsCollector.
func (m *InMemoryMetrics) IncrementRenegotiation() {
	atomic.AddUint64(&m.renegotiations, 1)
}

// IncrementHandshakeFailed implements MetricsCollector.
func (m *InMemoryMetrics) IncrementHandshakeFailed(reason string) {
	m.failuresMu.Lock()
	m.failuresByReason[reason]++
	m.failuresMu.Unlock()
}

// RecordNegotiationDuration implements MetricsCollector.
func (m *InMemoryMetrics) RecordNegotiationDuration(d time.Duration) {
	m.durationMu.Lock()
	m.durationCount++
	m.durationTotal += d
	m.durationMu.Unlock()
}

// HandshakesStarted returns the number of negotiations begun.
func (m *InMemoryMetrics) HandshakesStarted() uint64 {
	return atomic.LoadUint64(&m.started)
}

// HandshakesAccepted returns the number of negotiations that produced an
// association.
func (m *InMemoryMetrics) HandshakesAccepted() uint64 {
	return atomic.LoadUint64(&m.accepted)
}

// Renegotiations returns the number of single retries issued.
func (m *InMemoryMetrics) Renegotiations() uint64 {
	return atomic.LoadUint64(&m.renegotiations)
}

// HandshakesFailed returns the failure count for a reason label.
func (m *InMemoryMetrics) HandshakesFailed(reason string) uint64 {
	m.failuresMu.RLock()
	defer m.failuresMu.RUnlock()
	return m.failuresByReason[reason]
}

// AverageNegotiationDuration returns the mean negotiation wall time, zero
// when nothing has been recorded.
func (m *InMemoryMetrics) AverageNegotiationDuration() time.Duration {
	m.durationMu.Lock()
	defer m.durationMu.Unlock()
	if m.durationCount == 0 {
		return 0
	}
	return m.durationTotal / time.Duration(m.durationCount)
}

var _ MetricsCollector = (*InMemoryMetrics)(nil)

// nopMetrics is the default collector when none is configured.
type nopMetrics struct{}

func (nopMetrics) IncrementHandshakeStarted()              {}
func (nopMetrics) IncrementHandshakeAccepted()             {}
func (nopMetrics) IncrementRenegotiation()                 {}
func (nopMetrics) IncrementHandshakeFailed(string)         {}
func (nopMetrics) RecordNegotiationDuration(time.Duration) {}
