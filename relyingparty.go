package go_openid

import (
	"context"
	"fmt"
	"time"
)

// Relying-party side of the association handshake.
//
// The negotiation is a bounded state machine, not a loop with a counter:
// exactly one renegotiation transition exists, so a provider that keeps
// suggesting alternatives can never drive more than two round trips.
//
// A failed negotiation is a quiet outcome. Negotiate returns (nil, nil)
// when the provider misbehaves or policy vetoes the exchange; a non-nil
// error means a local invariant broke, never that the remote side did.

// negotiationState tags the states of one handshake negotiation.
type negotiationState int

const (
	stateIdle negotiationState = iota
	stateRequestSent
	stateRenegotiating
	stateAccepted
	stateFailed
)

func (s negotiationState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequestSent:
		return "request-sent"
	case stateRenegotiating:
		return "renegotiating"
	case stateAccepted:
		return "accepted"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// negotiationTransitions enumerates the legal state changes. Renegotiating
// is reachable from RequestSent only, and RequestSent is reachable from
// Renegotiating only once because the machine never returns there.
var negotiationTransitions = map[negotiationState][]negotiationState{
	stateIdle:          {stateRequestSent},
	stateRequestSent:   {stateAccepted, stateRenegotiating, stateFailed},
	stateRenegotiating: {stateRequestSent, stateFailed},
}

// negotiation is the per-handshake mutable state. Each handshake owns its
// own instance and its own ephemeral DH key pair; nothing is shared
// between concurrent handshakes except the association store.
type negotiation struct {
	state      negotiationState
	roundTrips int
}

// transition moves the machine to the given state, enforcing legality.
// An illegal transition is an internal invariant violation.
func (n *negotiation) transition(to negotiationState) error {
	for _, legal := range negotiationTransitions[n.state] {
		if legal == to {
			Debug("Negotiation %s -> %s", n.state, to)
			n.state = to
			return nil
		}
	}
	return fmt.Errorf("openid: illegal negotiation transition %s -> %s", n.state, to)
}

// attemptResult carries the outcome of one request/response round trip.
// Exactly one of assoc, suggestion, or failReason is meaningful.
type attemptResult struct {
	assoc      *Association    // response accepted, association not yet stored
	suggestion *AssociateError // provider refused and may have named an alternative
	failReason string          // FAIL_REASON_* terminal failure
}

// RelyingParty drives association establishment against providers.
type RelyingParty struct {
	settings SecuritySettings
	store    AssociationStore
	channel  MessageChannel
	metrics  MetricsCollector
}

// NewRelyingParty creates a relying party over its association store and
// message channel.
func NewRelyingParty(settings SecuritySettings, store AssociationStore, channel MessageChannel) (*RelyingParty, error) {
	if store == nil {
		return nil, fmt.Errorf("relying party requires an association store: %w", ErrInvalidArgument)
	}
	if channel == nil {
		return nil, fmt.Errorf("relying party requires a message channel: %w", ErrInvalidArgument)
	}
	return &RelyingParty{
		settings: settings,
		store:    store,
		channel:  channel,
		metrics:  nopMetrics{},
	}, nil
}

// SetMetrics installs a metrics collector. Must be called before the first
// negotiation.
func (rp *RelyingParty) SetMetrics(m MetricsCollector) {
	if m == nil {
		m = nopMetrics{}
	}
	rp.metrics = m
}

// Association returns the stored live association for an endpoint, most
// recent first, for signing later protocol messages.
func (rp *RelyingParty) Association(endpoint string) (*Association, error) {
	return rp.store.LookupLatest(endpoint)
}

// AssociationByHandle returns the stored live association an earlier
// negotiation established under the given handle.
func (rp *RelyingParty) AssociationByHandle(endpoint, handle string) (*Association, error) {
	return rp.store.Lookup(endpoint, handle)
}

// Negotiate establishes an association with the provider at endpoint,
// speaking the given protocol version over a transport of the declared
// security. On success the association is stored under the endpoint and
// returned.
//
// Misbehavior by the remote provider — transport failure, malformed or
// mismatched responses, unacceptable suggestions, a second renegotiation
// demand — yields (nil, nil): no association was obtained, and that is an
// expected outcome, not a fault. Errors are reserved for broken local
// invariants.
func (rp *RelyingParty) Negotiate(ctx context.Context, endpoint string, version Version, secureTransport bool) (*Association, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if endpoint == "" {
		return nil, fmt.Errorf("cannot negotiate with empty endpoint: %w", ErrInvalidArgument)
	}

	start := time.Now()
	defer func() {
		rp.metrics.RecordNegotiationDuration(time.Since(start))
	}()

	neg := &negotiation{state: stateIdle}

	// Opening request: the strongest pair our own settings admit from the
	// version's vocabulary. Never SessionNone over an insecure transport.
	assocType, sessionType, ok := rp.settings.BestAcceptableFallback(version, secureTransport)
	if !ok {
		Warning("No acceptable association parameters for version %s, not negotiating", version)
		rp.metrics.IncrementHandshakeFailed(FAIL_REASON_POLICY)
		return nil, nil
	}

	rp.metrics.IncrementHandshakeStarted()
	result, err := rp.attempt(ctx, neg, version, assocType, sessionType)
	if err != nil {
		return nil, err
	}
	if result.assoc != nil {
		return rp.accept(neg, endpoint, result.assoc)
	}
	if result.suggestion == nil {
		return rp.fail(neg, result.failReason)
	}

	// The provider refused. Validate its suggestion against our own policy
	// before spending the single permitted retry on it.
	suggestedAssoc, suggestedSession, ok := rp.evaluateSuggestion(version, result.suggestion, secureTransport)
	if !ok {
		return rp.fail(neg, FAIL_REASON_POLICY)
	}
	if err := neg.transition(stateRenegotiating); err != nil {
		return nil, err
	}
	rp.metrics.IncrementRenegotiation()

	result, err = rp.attempt(ctx, neg, version, suggestedAssoc, suggestedSession)
	if err != nil {
		return nil, err
	}
	if result.assoc != nil {
		return rp.accept(neg, endpoint, result.assoc)
	}
	if result.suggestion != nil {
		// A second suggestion after the retry. The machine has no
		// transition back to Renegotiating; two round trips is the bound.
		Warning("Provider demanded a second renegotiation, giving up")
		return rp.fail(neg, FAIL_REASON_RENEGOTIATION)
	}
	return rp.fail(neg, result.failReason)
}

// attempt performs one request/response round trip for the given pair and
// classifies the response.
func (rp *RelyingParty) attempt(ctx context.Context, neg *negotiation, version Version, assocType AssocType, sessionType SessionType) (*attemptResult, error) {
	if err := neg.transition(stateRequestSent); err != nil {
		return nil, err
	}
	neg.roundTrips++

	var dh *DHKeyExchange
	if sessionType.UsesDH() {
		var err error
		dh, err = GenerateDHKeyExchange(sessionType)
		if err != nil {
			return nil, NewNegotiationError(neg.state.String(), "generate DH key pair", err)
		}
	}

	req := NewAssociateRequest(version, assocType, sessionType, nil)
	if dh != nil {
		req.DHPublic = dh.PublicValue()
	}

	resp, err := rp.channel.Request(ctx, req)
	if err != nil || resp == nil {
		Debug("Association round trip failed: %v", err)
		return &attemptResult{failReason: FAIL_REASON_TRANSPORT}, nil
	}
	return rp.evaluateResponse(req, resp, dh, assocType, sessionType)
}

// evaluateResponse checks a response against the request it answers and
// extracts either the association secret or the provider's suggestion.
func (rp *RelyingParty) evaluateResponse(req *AssociateRequest, resp *AssociateResponse, dh *DHKeyExchange, assocType AssocType, sessionType SessionType) (*attemptResult, error) {
	if resp.Version.Compare(req.Version) != 0 {
		Debug("Response version %s does not match request version %s", resp.Version, req.Version)
		return &attemptResult{failReason: FAIL_REASON_VERSION}, nil
	}
	if err := resp.validate(); err != nil {
		Debug("Malformed association response: %v", err)
		return &attemptResult{failReason: FAIL_REASON_MALFORMED}, nil
	}

	if resp.Error != nil {
		if !resp.Error.HasSuggestion() {
			Debug("Provider refused association (%s) with no suggestion", resp.Error.Code)
			return &attemptResult{failReason: FAIL_REASON_POLICY}, nil
		}
		return &attemptResult{suggestion: resp.Error}, nil
	}

	s := resp.Success
	// A success that does not echo the requested pair is neither an
	// acceptance nor a legal renegotiation suggestion.
	if s.AssocType != req.AssocType || s.SessionType != req.SessionType {
		Debug("Success response %s/%s does not match request %s/%s",
			s.AssocType, s.SessionType, req.AssocType, req.SessionType)
		return &attemptResult{failReason: FAIL_REASON_MALFORMED}, nil
	}

	secret, err := rp.extractSecret(s, dh, sessionType)
	if err != nil {
		Debug("Failed to extract MAC key: %v", err)
		return &attemptResult{failReason: FAIL_REASON_MALFORMED}, nil
	}

	assoc, err := NewAssociationFromSecret(s.Handle, assocType, secret, s.ExpiresInDuration())
	if err != nil {
		Debug("Response yields no valid association: %v", err)
		return &attemptResult{failReason: FAIL_REASON_MALFORMED}, nil
	}
	return &attemptResult{assoc: assoc}, nil
}

// extractSecret recovers the MAC key from a success response, unmasking it
// with the handshake's DH key pair when the session used one.
func (rp *RelyingParty) extractSecret(s *AssociateSuccess, dh *DHKeyExchange, sessionType SessionType) ([]byte, error) {
	if !sessionType.UsesDH() {
		return s.MacKey, nil
	}
	if dh == nil {
		return nil, fmt.Errorf("DH response without a local key pair: %w", ErrMalformedHandshake)
	}
	kek, err := dh.SharedSecret(s.DHServerPublic)
	if err != nil {
		return nil, err
	}
	return DecryptMacKey(kek, s.EncMacKey)
}

// evaluateSuggestion parses and policy-checks a renegotiation suggestion.
// Foreign tokens and pairs our settings reject both disqualify the retry.
func (rp *RelyingParty) evaluateSuggestion(version Version, suggestion *AssociateError, secureTransport bool) (AssocType, SessionType, bool) {
	assocType := ParseAssocType(version, suggestion.AssocType)
	sessionType := ParseSessionType(version, suggestion.SessionType)
	if assocType == AssocUnrecognized || sessionType == SessionUnrecognized {
		Debug("Provider suggested unrecognized pair %q/%q", suggestion.AssocType, suggestion.SessionType)
		return AssocUnrecognized, SessionUnrecognized, false
	}
	if !rp.settings.IsAcceptable(assocType, sessionType, secureTransport) {
		Debug("Provider suggestion %s/%s violates local policy", assocType, sessionType)
		return AssocUnrecognized, SessionUnrecognized, false
	}
	return assocType, sessionType, true
}

// accept stores the negotiated association and terminates the machine in
// Accepted. A store collision here means the provider reused a handle we
// already hold; the negotiation fails quietly rather than overwriting.
func (rp *RelyingParty) accept(neg *negotiation, endpoint string, assoc *Association) (*Association, error) {
	if err := rp.store.Add(endpoint, assoc); err != nil {
		Warning("Failed to store negotiated association %s: %v", assoc.Handle, err)
		return rp.fail(neg, FAIL_REASON_STORE)
	}
	if err := neg.transition(stateAccepted); err != nil {
		return nil, err
	}
	rp.metrics.IncrementHandshakeAccepted()
	Debug("Accepted association %s with %s after %d round trips", assoc.Handle, endpoint, neg.roundTrips)
	return assoc, nil
}

// fail terminates the machine in Failed and reports the quiet empty
// outcome.
func (rp *RelyingParty) fail(neg *negotiation, reason string) (*Association, error) {
	if neg.state != stateFailed {
		if err := neg.transition(stateFailed); err != nil {
			return nil, err
		}
	}
	rp.metrics.IncrementHandshakeFailed(reason)
	return nil, nil
}
