package go_openid

import (
	"errors"
	"time"
)

// Provider is the OP side of the association handshake. Per incoming
// request it applies its own security settings, completes the
// Diffie-Hellman exchange when one is requested, and either stores a fresh
// association and answers with success or answers with the alternate
// parameters it would accept. The provider never retries the exchange;
// renegotiation is entirely relying-party-driven.
type Provider struct {
	settings SecuritySettings
	store    AssociationStore
	lifetime time.Duration
	metrics  MetricsCollector
}

// NewProvider creates a provider over its association store. A
// non-positive lifetime selects DEFAULT_ASSOCIATION_LIFETIME.
func NewProvider(settings SecuritySettings, store AssociationStore, lifetime time.Duration) (*Provider, error) {
	if store == nil {
		return nil, errors.New("openid: provider requires an association store")
	}
	if lifetime <= 0 {
		lifetime = DEFAULT_ASSOCIATION_LIFETIME
	}
	if lifetime < MIN_ASSOCIATION_LIFETIME {
		return nil, errors.New("openid: association lifetime below minimum")
	}
	return &Provider{
		settings: settings,
		store:    store,
		lifetime: lifetime,
		metrics:  nopMetrics{},
	}, nil
}

// SetMetrics installs a metrics collector. Must be called before the
// provider starts serving requests.
func (p *Provider) SetMetrics(m MetricsCollector) {
	if m == nil {
		m = nopMetrics{}
	}
	p.metrics = m
}

// HandleAssociate processes one association request and always produces a
// response; provider-side trouble becomes an error response, never a
// panic or a dropped request. secureTransport declares whether the channel
// the request arrived on already provides confidentiality.
func (p *Provider) HandleAssociate(req *AssociateRequest, secureTransport bool) *AssociateResponse {
	if req == nil {
		return newErrorResponse(Version20, ASSOC_ERROR_MALFORMED_REQUEST, AssocUnrecognized, SessionUnrecognized)
	}
	p.metrics.IncrementHandshakeStarted()

	assocType, sessionType := req.Types()
	if assocType == AssocUnrecognized || sessionType == SessionUnrecognized ||
		!p.settings.IsAcceptable(assocType, sessionType, secureTransport) {
		return p.refuse(req, secureTransport)
	}

	if err := req.validate(); err != nil {
		Debug("Rejecting structurally invalid associate request: %v", err)
		p.metrics.IncrementHandshakeFailed(FAIL_REASON_MALFORMED)
		return newErrorResponse(req.Version, ASSOC_ERROR_MALFORMED_REQUEST, AssocUnrecognized, SessionUnrecognized)
	}

	// Complete the DH exchange before creating anything so that a bad
	// public value leaves no orphaned association behind.
	var serverDH *DHKeyExchange
	var kek []byte
	if sessionType.UsesDH() {
		var err error
		serverDH, err = GenerateDHKeyExchange(sessionType)
		if err == nil {
			kek, err = serverDH.SharedSecret(req.DHPublic)
		}
		if err != nil {
			Debug("Rejecting associate request with bad DH public value: %v", err)
			p.metrics.IncrementHandshakeFailed(FAIL_REASON_MALFORMED)
			return newErrorResponse(req.Version, ASSOC_ERROR_MALFORMED_REQUEST, AssocUnrecognized, SessionUnrecognized)
		}
	}

	assoc, err := p.createAndStore(assocType)
	if err != nil {
		Error("Failed to create association: %v", err)
		p.metrics.IncrementHandshakeFailed(FAIL_REASON_STORE)
		return newErrorResponse(req.Version, ASSOC_ERROR_INTERNAL, AssocUnrecognized, SessionUnrecognized)
	}

	var dhServerPublic, encMacKey []byte
	if sessionType.UsesDH() {
		dhServerPublic = serverDH.PublicValue()
		encMacKey, err = EncryptMacKey(kek, assoc.SecretKey)
		if err != nil {
			Error("Failed to mask MAC key: %v", err)
			p.metrics.IncrementHandshakeFailed(FAIL_REASON_STORE)
			return newErrorResponse(req.Version, ASSOC_ERROR_INTERNAL, AssocUnrecognized, SessionUnrecognized)
		}
	}

	p.metrics.IncrementHandshakeAccepted()
	Debug("Established %s/%s association %s", req.AssocType, req.SessionType, assoc.Handle)
	return newSuccessResponse(req.Version, sessionType, assoc, dhServerPublic, encMacKey)
}

// refuse answers a request the policy vetoed. When a fallback within the
// provider's own settings exists the refusal names it; otherwise it is a
// plain error, leaving the relying party nothing to retry with.
func (p *Provider) refuse(req *AssociateRequest, secureTransport bool) *AssociateResponse {
	p.metrics.IncrementHandshakeFailed(FAIL_REASON_POLICY)

	fallbackAssoc, fallbackSession, ok := p.settings.BestAcceptableFallback(req.Version, secureTransport)
	if !ok {
		Debug("Refusing associate request %s/%s with no acceptable fallback", req.AssocType, req.SessionType)
		return newErrorResponse(req.Version, ASSOC_ERROR_UNSUPPORTED_TYPE, AssocUnrecognized, SessionUnrecognized)
	}
	Debug("Refusing associate request %s/%s, suggesting %s/%s",
		req.AssocType, req.SessionType, fallbackAssoc, fallbackSession)
	return newErrorResponse(req.Version, ASSOC_ERROR_UNSUPPORTED_TYPE, fallbackAssoc, fallbackSession)
}

// createAndStore creates a fresh association and inserts it under the
// smart-RP scope, regenerating the handle on a collision. The bound makes
// a pathological store surface as an internal error instead of a spin.
func (p *Provider) createAndStore(assocType AssocType) (*Association, error) {
	assoc, err := NewAssociation(assocType, p.lifetime)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < MAX_HANDLE_ATTEMPTS; attempt++ {
		err = p.store.Add(ClassSmart.Scope(), assoc)
		if err == nil {
			return assoc, nil
		}
		if !errors.Is(err, ErrDuplicateHandle) {
			return nil, err
		}
		Warning("Association handle collision on %s, regenerating", assoc.Handle)
		assoc = assoc.Regenerate()
	}
	return nil, err
}

// InvalidateAssociation removes an association the provider no longer
// honors, e.g. after a failed check-association exchange.
func (p *Provider) InvalidateAssociation(class RelyingPartyClass, handle string) error {
	return p.store.Remove(class.Scope(), handle)
}

// LookupAssociation returns the provider's live association for a handle,
// used when verifying later protocol messages.
func (p *Provider) LookupAssociation(class RelyingPartyClass, handle string) (*Association, error) {
	return p.store.Lookup(class.Scope(), handle)
}
