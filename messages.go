package go_openid

import (
	"fmt"
	"time"
)

// Association message formats.
//
// These are the typed shapes the external message channel serializes and
// transports; how they become HTTP key-value form is the channel's concern.
// Type fields carry wire tokens, not enum values, because a response may
// legally name a token outside our vocabulary — the typed accessors parse
// through the Protocol Vocabulary and surface the Unrecognized sentinels
// instead of failing.

// An AssociateRequest asks a provider to establish an association with the
// requested signature algorithm and session type.
type AssociateRequest struct {
	// Version is the protocol version the request speaks.
	Version Version

	// AssocType and SessionType are wire tokens per the Version's
	// vocabulary.
	AssocType   string
	SessionType string

	// DHPublic is the relying party's btwoc-encoded Diffie-Hellman public
	// value. Nil for no-encryption sessions.
	DHPublic []byte
}

// NewAssociateRequest builds a request for the given typed parameters,
// attaching the relying party's DH public value when the session uses one.
func NewAssociateRequest(v Version, assocType AssocType, sessionType SessionType, dhPublic []byte) *AssociateRequest {
	return &AssociateRequest{
		Version:     v,
		AssocType:   AssocTypeToken(v, assocType),
		SessionType: SessionTypeToken(v, sessionType),
		DHPublic:    dhPublic,
	}
}

// Types parses the request's wire tokens under its own version.
func (r *AssociateRequest) Types() (AssocType, SessionType) {
	return ParseAssocType(r.Version, r.AssocType), ParseSessionType(r.Version, r.SessionType)
}

// validate checks structural consistency: a DH session must carry a public
// value, a cleartext session must not.
func (r *AssociateRequest) validate() error {
	_, sessionType := r.Types()
	if sessionType.UsesDH() && len(r.DHPublic) == 0 {
		return fmt.Errorf("DH association request without public value: %w", ErrMalformedHandshake)
	}
	if sessionType == SessionNone && len(r.DHPublic) != 0 {
		return fmt.Errorf("no-encryption association request with public value: %w", ErrMalformedHandshake)
	}
	return nil
}

// An AssociateSuccess is the provider's affirmative answer: the handle and
// lifetime of the new association, and the MAC key either in the clear
// (no-encryption session) or masked under the Diffie-Hellman derived key.
type AssociateSuccess struct {
	AssocType   string
	SessionType string

	// Handle identifies the association in subsequent protocol messages.
	Handle string

	// ExpiresIn is the association lifetime in seconds.
	ExpiresIn int64

	// MacKey is the cleartext MAC key. Only set for no-encryption sessions.
	MacKey []byte

	// DHServerPublic and EncMacKey carry the provider's btwoc-encoded
	// public value and the XOR-masked MAC key. Only set for DH sessions.
	DHServerPublic []byte
	EncMacKey      []byte
}

// An AssociateError is the provider's refusal. When the provider would
// accept different parameters it names them; a refusal without a
// suggestion ends the exchange.
type AssociateError struct {
	// Code is one of the ASSOC_ERROR_* constants.
	Code string

	// AssocType and SessionType are the suggested alternate wire tokens,
	// empty when the provider has nothing to suggest.
	AssocType   string
	SessionType string
}

// HasSuggestion reports whether the refusal names an alternate pair.
func (e *AssociateError) HasSuggestion() bool {
	return e.AssocType != "" || e.SessionType != ""
}

// An AssociateResponse is the provider's answer to an AssociateRequest:
// exactly one of Success or Error is set.
type AssociateResponse struct {
	Version Version
	Success *AssociateSuccess
	Error   *AssociateError
}

// validate checks the success/error union and the internal consistency of
// a success message against its own session type token.
func (r *AssociateResponse) validate() error {
	if (r.Success == nil) == (r.Error == nil) {
		return fmt.Errorf("response must carry exactly one of success or error: %w", ErrMalformedHandshake)
	}
	if r.Success == nil {
		return nil
	}

	s := r.Success
	if s.Handle == "" {
		return fmt.Errorf("success response without association handle: %w", ErrMalformedHandshake)
	}
	if s.ExpiresIn <= 0 {
		return fmt.Errorf("success response with non-positive lifetime: %w", ErrMalformedHandshake)
	}

	switch ParseSessionType(r.Version, s.SessionType) {
	case SessionNone:
		if len(s.MacKey) == 0 || len(s.DHServerPublic) != 0 || len(s.EncMacKey) != 0 {
			return fmt.Errorf("no-encryption success response with DH fields: %w", ErrMalformedHandshake)
		}
	case SessionDhSha1, SessionDhSha256:
		if len(s.MacKey) != 0 || len(s.DHServerPublic) == 0 || len(s.EncMacKey) == 0 {
			return fmt.Errorf("DH success response with inconsistent key fields: %w", ErrMalformedHandshake)
		}
	default:
		return fmt.Errorf("success response with unrecognized session type %q: %w", s.SessionType, ErrMalformedHandshake)
	}
	return nil
}

// ExpiresInDuration returns the advertised lifetime as a duration.
func (s *AssociateSuccess) ExpiresInDuration() time.Duration {
	return time.Duration(s.ExpiresIn) * time.Second
}

// newSuccessResponse builds the affirmative response for a freshly created
// association. For DH sessions the MAC key travels masked alongside the
// provider's public value; for no-encryption sessions it travels in the
// clear.
func newSuccessResponse(v Version, sessionType SessionType, assoc *Association, dhServerPublic, encMacKey []byte) *AssociateResponse {
	s := &AssociateSuccess{
		AssocType:   AssocTypeToken(v, assoc.Type),
		SessionType: SessionTypeToken(v, sessionType),
		Handle:      assoc.Handle,
		ExpiresIn:   int64(assoc.RemainingLifetime(time.Now()) / time.Second),
	}
	if sessionType.UsesDH() {
		s.DHServerPublic = dhServerPublic
		s.EncMacKey = encMacKey
	} else {
		s.MacKey = assoc.SecretKey
	}
	return &AssociateResponse{Version: v, Success: s}
}

// newErrorResponse builds a refusal, optionally naming the alternate pair
// the provider would accept.
func newErrorResponse(v Version, code string, assocType AssocType, sessionType SessionType) *AssociateResponse {
	e := &AssociateError{Code: code}
	if assocType != AssocUnrecognized {
		e.AssocType = AssocTypeToken(v, assocType)
		e.SessionType = SessionTypeToken(v, sessionType)
	}
	return &AssociateResponse{Version: v, Error: e}
}
