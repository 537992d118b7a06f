package go_openid

// Security policy: the local veto over negotiated association parameters.
// Settings are applied independently by each side and are never negotiated;
// the handshake only discovers what the other side's policy will admit.

// SecuritySettings bounds the association parameters a party will accept.
type SecuritySettings struct {
	// MinimumHashBits and MaximumHashBits bound the digest size of
	// acceptable signature algorithms, inclusive.
	MinimumHashBits int
	MaximumHashBits int

	// RequireAssociationSecurity rejects cleartext MAC-key transfer even
	// over transports that already provide confidentiality.
	RequireAssociationSecurity bool
}

// DefaultSecuritySettings accepts everything the protocol offers.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		MinimumHashBits: SHA1_DIGEST_BITS,
		MaximumHashBits: SHA256_DIGEST_BITS,
	}
}

// IsAcceptable reports whether the candidate (association type, session
// type) pair satisfies the settings on a transport with the given
// security. Unrecognized sentinels are never acceptable.
func (s SecuritySettings) IsAcceptable(assocType AssocType, sessionType SessionType, secureTransport bool) bool {
	bits := assocType.SecretBits()
	if bits == 0 || bits < s.MinimumHashBits || bits > s.MaximumHashBits {
		return false
	}

	switch sessionType {
	case SessionNone:
		// Cleartext key transfer needs a confidential transport, and some
		// deployments refuse it regardless.
		return secureTransport && !s.RequireAssociationSecurity
	case SessionDhSha1, SessionDhSha256:
		return true
	default:
		return false
	}
}

// BestAcceptableFallback computes the strongest pair within the settings
// drawn from the version's vocabulary. A provider uses it to suggest an
// alternative when rejecting a request; a relying party uses it to choose
// its opening request.
//
// Preference order: the strongest in-range signature algorithm; then the
// cleartext session when the transport is secure and settings allow it,
// else the DH session whose digest matches the chosen algorithm's strength,
// else the strongest DH session the vocabulary offers. ok is false when no
// combination is acceptable, e.g. the minimum exceeds what the version
// supports.
func (s SecuritySettings) BestAcceptableFallback(v Version, secureTransport bool) (AssocType, SessionType, bool) {
	for _, assocType := range SupportedAssocTypes(v) {
		sessionType, ok := s.bestSessionFor(assocType, v, secureTransport)
		if !ok {
			continue
		}
		if s.IsAcceptable(assocType, sessionType, secureTransport) {
			return assocType, sessionType, true
		}
	}
	return AssocUnrecognized, SessionUnrecognized, false
}

// bestSessionFor picks the preferred session type for a signature
// algorithm under the version's vocabulary.
func (s SecuritySettings) bestSessionFor(assocType AssocType, v Version, secureTransport bool) (SessionType, bool) {
	if secureTransport && !s.RequireAssociationSecurity {
		return SessionNone, true
	}

	matched := matchingDHSession(assocType)
	supported := SupportedSessionTypes(v)
	for _, candidate := range supported {
		if candidate == matched {
			return matched, true
		}
	}
	// No strength-matched DH session in this vocabulary; fall back to the
	// strongest DH session it has.
	for _, candidate := range supported {
		if candidate.UsesDH() {
			return candidate, true
		}
	}
	return SessionUnrecognized, false
}

// matchingDHSession returns the DH session whose digest strength matches
// the signature algorithm.
func matchingDHSession(assocType AssocType) SessionType {
	if assocType == AssocHmacSha256 {
		return SessionDhSha256
	}
	return SessionDhSha1
}
