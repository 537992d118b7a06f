package go_openid

import (
	"errors"
	"fmt"
)

// Standard Association Error Types
//
// These errors follow Go 1.13+ error wrapping conventions and can be
// checked using errors.Is() and errors.As(). All errors include context
// about the operation that failed and the underlying cause.
//
// Design rationale:
// - Use sentinel errors for common, expected error conditions
// - Use error types for errors that need additional context
// - All errors are safe for error wrapping with fmt.Errorf("%w", err)
//
// A failed handshake is not an error at the API boundary: the relying
// party reports remote misbehavior as an absent association, never as a
// fault. The sentinels below classify the internal failure paths and the
// store conditions that are visible to callers.

// Sentinel errors for association handshake and store failures
var (
	// ErrMalformedHandshake indicates the peer sent data the protocol cannot
	// accept: a Diffie-Hellman public value of zero or congruent to the
	// modulus, a success response with inconsistent fields, or a missing
	// mandatory field. Always terminates the current handshake quietly.
	ErrMalformedHandshake = errors.New("openid: malformed association handshake")

	// ErrPolicyRejected indicates the local security settings vetoed an
	// otherwise well-formed (association type, session type) pair.
	ErrPolicyRejected = errors.New("openid: security policy rejected association parameters")

	// ErrDuplicateHandle indicates an association store insertion collided
	// with an existing handle. The provider regenerates the handle and
	// retries; the condition is never exposed to the relying party.
	ErrDuplicateHandle = errors.New("openid: association handle already exists")

	// ErrTransportFailure indicates the message channel failed to complete
	// the round trip: timeout, unreachable endpoint, or a response the
	// channel could not decode.
	ErrTransportFailure = errors.New("openid: association transport failure")

	// ErrVersionMismatch indicates a response claimed a protocol version
	// different from the request it answers.
	ErrVersionMismatch = errors.New("openid: response protocol version does not match request")

	// ErrUnrecognizedToken indicates a wire token outside the negotiating
	// version's vocabulary where a recognized one was required.
	ErrUnrecognizedToken = errors.New("openid: unrecognized protocol token")

	// ErrAssociationNotFound indicates a store lookup found no live
	// association. Expired associations are indistinguishable from absent
	// ones.
	ErrAssociationNotFound = errors.New("openid: association not found")

	// ErrStoreClosed indicates an operation was attempted on a closed
	// association store.
	ErrStoreClosed = errors.New("openid: association store is closed")

	// ErrInvalidArgument indicates a nil or invalid argument was passed to a
	// public API method.
	ErrInvalidArgument = errors.New("openid: invalid argument (nil or empty value)")

	// ErrNoAcceptableParameters indicates the local security settings admit
	// no (association type, session type) pair from the version's
	// vocabulary, so no request can even be built.
	ErrNoAcceptableParameters = errors.New("openid: no acceptable association parameters for version")
)

// NegotiationError represents an error during a handshake negotiation.
// It records the state the negotiation was in when the error occurred.
type NegotiationError struct {
	State     string // Negotiation state at the time of failure
	Operation string // What operation failed (e.g. "decrypt mac key")
	Err       error  // Underlying error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("openid: negotiation %s during %s: %v", e.State, e.Operation, e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// NewNegotiationError creates a NegotiationError with the given parameters.
// Use this to wrap errors that occur while driving the handshake state
// machine.
func NewNegotiationError(state, operation string, err error) error {
	return &NegotiationError{
		State:     state,
		Operation: operation,
		Err:       err,
	}
}

// StoreError represents an error related to association store operations.
// It includes the scope and handle for debugging and tracing. Handles are
// opaque identifiers and safe to log; secrets never appear here.
type StoreError struct {
	Scope     string // Store scope (endpoint or classification)
	Handle    string // Association handle, empty for scope-wide operations
	Operation string // What operation failed
	Err       error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Handle == "" {
		return fmt.Sprintf("openid: store %s failed for scope %q: %v", e.Operation, e.Scope, e.Err)
	}
	return fmt.Sprintf("openid: store %s failed for scope %q handle %q: %v", e.Operation, e.Scope, e.Handle, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError with the given parameters.
func NewStoreError(scope, handle, operation string, err error) error {
	return &StoreError{
		Scope:     scope,
		Handle:    handle,
		Operation: operation,
		Err:       err,
	}
}

// IsTemporary returns true if the error is temporary and the operation can
// be retried. A handle collision is the canonical temporary condition: the
// provider regenerates the handle and inserts again.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDuplicateHandle) {
		return true
	}

	// Check for network temporary errors surfaced by a message channel
	type temporary interface {
		Temporary() bool
	}
	var te temporary
	if errors.As(err, &te) {
		return te.Temporary()
	}

	return false
}

// IsQuietFailure returns true if the error is an expected negotiation
// outcome that must be reported to the caller as "no association obtained"
// rather than propagated as a fault. Remote misbehavior is always quiet;
// only internal invariant violations are not.
func IsQuietFailure(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMalformedHandshake) ||
		errors.Is(err, ErrPolicyRejected) ||
		errors.Is(err, ErrTransportFailure) ||
		errors.Is(err, ErrVersionMismatch) ||
		errors.Is(err, ErrUnrecognizedToken) ||
		errors.Is(err, ErrNoAcceptableParameters)
}
