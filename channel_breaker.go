package go_openid

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the current state of a breaker channel.
type CircuitState string

const (
	// CircuitClosed means requests flow through to the provider normally.
	CircuitClosed CircuitState = "closed"

	// CircuitOpen means round trips fail fast without reaching the wire.
	CircuitOpen CircuitState = "open"

	// CircuitHalfOpen means one probe request is allowed through to test
	// whether the provider has recovered.
	CircuitHalfOpen CircuitState = "half-open"
)

// BreakerChannel wraps a MessageChannel with a circuit breaker. A relying
// party negotiating on demand would otherwise hammer a provider endpoint
// that is down, paying a full transport timeout per authentication; the
// breaker turns that into an immediate quiet failure until the reset
// timeout elapses.
//
// Because the negotiation engine already treats every channel error as a
// transport failure, an open circuit needs no special handling by callers:
// Negotiate simply reports no association, exactly as if the endpoint were
// unreachable.
type BreakerChannel struct {
	inner        MessageChannel
	maxFailures  int           // consecutive failures before opening
	resetTimeout time.Duration // open duration before a half-open probe

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       CircuitState
}

// NewBreakerChannel wraps a channel in a circuit breaker. The circuit
// opens after maxFailures consecutive transport failures and allows a
// probe after resetTimeout. A maxFailures of zero never opens the circuit.
func NewBreakerChannel(inner MessageChannel, maxFailures int, resetTimeout time.Duration) *BreakerChannel {
	return &BreakerChannel{
		inner:        inner,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        CircuitClosed,
	}
}

// Request implements MessageChannel. When the circuit is open the round
// trip fails immediately, wrapping ErrTransportFailure.
func (c *BreakerChannel) Request(ctx context.Context, req *AssociateRequest) (*AssociateResponse, error) {
	if err := c.beforeRequest(); err != nil {
		return nil, err
	}
	resp, err := c.inner.Request(ctx, req)
	c.afterRequest(err)
	return resp, err
}

// beforeRequest checks whether the circuit admits the round trip.
func (c *BreakerChannel) beforeRequest() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CircuitOpen:
		if time.Since(c.lastFailure) > c.resetTimeout {
			c.state = CircuitHalfOpen
			Debug("Association channel breaker transitioning to half-open")
			return nil
		}
		return fmt.Errorf("association channel breaker open (last failure %v ago): %w",
			time.Since(c.lastFailure).Round(time.Second), ErrTransportFailure)

	case CircuitHalfOpen, CircuitClosed:
		return nil

	default:
		return fmt.Errorf("association channel breaker in unknown state %s: %w", c.state, ErrTransportFailure)
	}
}

// afterRequest records the round trip outcome and moves the circuit.
func (c *BreakerChannel) afterRequest(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.recordFailure()
	} else {
		c.recordSuccess()
	}
}

func (c *BreakerChannel) recordFailure() {
	c.failures++
	c.lastFailure = time.Now()

	switch c.state {
	case CircuitClosed:
		if c.maxFailures > 0 && c.failures >= c.maxFailures {
			c.state = CircuitOpen
			Debug("Association channel breaker opened after %d failures", c.failures)
		}
	case CircuitHalfOpen:
		c.state = CircuitOpen
		Debug("Association channel breaker re-opened after failed probe")
	}
}

func (c *BreakerChannel) recordSuccess() {
	switch c.state {
	case CircuitHalfOpen:
		c.state = CircuitClosed
		c.failures = 0
		Debug("Association channel breaker closed after successful probe")
	case CircuitClosed:
		c.failures = 0
	}
}

// State returns the current circuit state.
func (c *BreakerChannel) State() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failures returns the current consecutive failure count.
func (c *BreakerChannel) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// Reset manually closes the circuit and clears the failure count.
func (c *BreakerChannel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = CircuitClosed
	c.failures = 0
}

var _ MessageChannel = (*BreakerChannel)(nil)
