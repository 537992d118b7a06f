package go_openid

import (
	"crypto/sha1"
	"crypto/sha256"
	"hash"
)

// Protocol vocabulary: the per-version mapping between logical association
// and session types and their wire tokens.
//
// Parsing never fails. A token outside the version's vocabulary maps to the
// Unrecognized sentinel of its kind so that higher layers can reject the
// message quietly instead of faulting on remote input.

// AssocType identifies the signature algorithm an association signs with.
type AssocType int

const (
	// AssocUnrecognized is the sentinel for a wire token outside the
	// negotiating version's vocabulary. It is never acceptable to policy.
	AssocUnrecognized AssocType = iota
	AssocHmacSha1
	AssocHmacSha256
)

// SessionType identifies how the MAC key crosses the wire during the
// association handshake.
type SessionType int

const (
	// SessionUnrecognized is the sentinel for a wire token outside the
	// negotiating version's vocabulary.
	SessionUnrecognized SessionType = iota
	// SessionNone transmits the MAC key in the clear. Only legal when the
	// transport itself provides confidentiality.
	SessionNone
	SessionDhSha1
	SessionDhSha256
)

// SecretBits returns the digest size of the association type in bits.
func (t AssocType) SecretBits() int {
	switch t {
	case AssocHmacSha1:
		return SHA1_DIGEST_BITS
	case AssocHmacSha256:
		return SHA256_DIGEST_BITS
	default:
		return 0
	}
}

// SecretSize returns the MAC key length of the association type in bytes.
func (t AssocType) SecretSize() int {
	return t.SecretBits() / 8
}

// Hash returns the digest constructor backing the association type, or nil
// for the unrecognized sentinel.
func (t AssocType) Hash() func() hash.Hash {
	switch t {
	case AssocHmacSha1:
		return sha1.New
	case AssocHmacSha256:
		return sha256.New
	default:
		return nil
	}
}

func (t AssocType) String() string {
	switch t {
	case AssocHmacSha1:
		return TOKEN_HMAC_SHA1
	case AssocHmacSha256:
		return TOKEN_HMAC_SHA256
	default:
		return "unrecognized"
	}
}

// UsesDH reports whether the session type performs a Diffie-Hellman
// exchange to mask the MAC key.
func (s SessionType) UsesDH() bool {
	return s == SessionDhSha1 || s == SessionDhSha256
}

// Hash returns the digest used to derive the key-encryption key from the
// Diffie-Hellman shared value, or nil for sessions without one.
func (s SessionType) Hash() func() hash.Hash {
	switch s {
	case SessionDhSha1:
		return sha1.New
	case SessionDhSha256:
		return sha256.New
	default:
		return nil
	}
}

func (s SessionType) String() string {
	switch s {
	case SessionNone:
		return TOKEN_NO_ENCRYPTION
	case SessionDhSha1:
		return TOKEN_DH_SHA1
	case SessionDhSha256:
		return TOKEN_DH_SHA256
	default:
		return "unrecognized"
	}
}

// AssocTypeToken returns the wire token for an association type under the
// given protocol version, or the empty string when the version's vocabulary
// does not contain the type.
func AssocTypeToken(v Version, t AssocType) string {
	switch t {
	case AssocHmacSha1:
		return TOKEN_HMAC_SHA1
	case AssocHmacSha256:
		if v.AtLeast(Version20) {
			return TOKEN_HMAC_SHA256
		}
	}
	return ""
}

// ParseAssocType maps a wire token to an association type under the given
// protocol version. Unknown tokens map to AssocUnrecognized; parsing never
// fails.
func ParseAssocType(v Version, token string) AssocType {
	switch token {
	case TOKEN_HMAC_SHA1:
		return AssocHmacSha1
	case TOKEN_HMAC_SHA256:
		if v.AtLeast(Version20) {
			return AssocHmacSha256
		}
	}
	return AssocUnrecognized
}

// SessionTypeToken returns the wire token for a session type under the given
// protocol version, or the empty string when the version's vocabulary does
// not contain the type. Note that under 1.x the no-encryption session is
// itself the empty string on the wire.
func SessionTypeToken(v Version, s SessionType) string {
	switch s {
	case SessionNone:
		if v.AtLeast(Version20) {
			return TOKEN_NO_ENCRYPTION
		}
		return TOKEN_NO_ENCRYPTION_V1
	case SessionDhSha1:
		return TOKEN_DH_SHA1
	case SessionDhSha256:
		if v.AtLeast(Version20) {
			return TOKEN_DH_SHA256
		}
	}
	return ""
}

// ParseSessionType maps a wire token to a session type under the given
// protocol version. Unknown tokens map to SessionUnrecognized; parsing never
// fails.
func ParseSessionType(v Version, token string) SessionType {
	switch token {
	case TOKEN_NO_ENCRYPTION:
		if v.AtLeast(Version20) {
			return SessionNone
		}
	case TOKEN_NO_ENCRYPTION_V1:
		if !v.AtLeast(Version20) {
			return SessionNone
		}
	case TOKEN_DH_SHA1:
		return SessionDhSha1
	case TOKEN_DH_SHA256:
		if v.AtLeast(Version20) {
			return SessionDhSha256
		}
	}
	return SessionUnrecognized
}

// SupportedAssocTypes lists the association types of the version's
// vocabulary, strongest first.
func SupportedAssocTypes(v Version) []AssocType {
	if v.AtLeast(Version20) {
		return []AssocType{AssocHmacSha256, AssocHmacSha1}
	}
	return []AssocType{AssocHmacSha1}
}

// SupportedSessionTypes lists the session types of the version's
// vocabulary, strongest DH first, the cleartext session last.
func SupportedSessionTypes(v Version) []SessionType {
	if v.AtLeast(Version20) {
		return []SessionType{SessionDhSha256, SessionDhSha1, SessionNone}
	}
	return []SessionType{SessionDhSha1, SessionNone}
}
