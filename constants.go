package go_openid

import "time"

// OpenID Association Protocol Constants
//
// This file contains constants fixed by the OpenID association protocol:
// the wire tokens for association and session types, the association error
// codes, and the defaults applied when a deployment does not configure its
// own values.
//
// Note: This library focuses solely on association establishment. Signing
// and verifying ordinary protocol messages with an established association,
// endpoint discovery, and nonce/replay bookkeeping are intentionally NOT
// implemented here as they sit above or beside the association handshake.

// Wire tokens for association (signature algorithm) types.
const (
	TOKEN_HMAC_SHA1   = "HMAC-SHA1"
	TOKEN_HMAC_SHA256 = "HMAC-SHA256"
)

// Wire tokens for session (secret transport) types.
// Protocol versions before 2.0 transmit the no-encryption session as an
// empty string; 2.0 introduced the explicit "no-encryption" token.
const (
	TOKEN_DH_SHA1          = "DH-SHA1"
	TOKEN_DH_SHA256        = "DH-SHA256"
	TOKEN_NO_ENCRYPTION    = "no-encryption"
	TOKEN_NO_ENCRYPTION_V1 = ""
)

// Association error response codes.
const (
	// ASSOC_ERROR_UNSUPPORTED_TYPE is returned by a provider that rejects
	// the requested (association type, session type) pair. The response may
	// carry an alternate pair the provider would accept instead.
	ASSOC_ERROR_UNSUPPORTED_TYPE = "unsupported-type"

	// ASSOC_ERROR_MALFORMED_REQUEST is returned for requests the provider
	// cannot process at all, e.g. a Diffie-Hellman public value of zero.
	// No alternate pair is suggested; the exchange is over.
	ASSOC_ERROR_MALFORMED_REQUEST = "malformed-request"

	// ASSOC_ERROR_INTERNAL is returned when the provider could not create
	// or store the association. The relying party treats it like any other
	// refusal without a suggestion.
	ASSOC_ERROR_INTERNAL = "internal-error"
)

// Association lifetime and store limits.
const (
	// DEFAULT_ASSOCIATION_LIFETIME is the lifetime applied to freshly created
	// associations when the provider is not configured otherwise.
	DEFAULT_ASSOCIATION_LIFETIME = 14 * 24 * time.Hour

	// MIN_ASSOCIATION_LIFETIME rejects nonsensical configured lifetimes.
	MIN_ASSOCIATION_LIFETIME = time.Minute

	// MAX_HANDLE_ATTEMPTS bounds how often a provider regenerates a handle
	// after a store collision before giving up on the request.
	MAX_HANDLE_ATTEMPTS = 3
)

// Digest sizes in bits for the two supported signature algorithms.
const (
	SHA1_DIGEST_BITS   = 160
	SHA256_DIGEST_BITS = 256
)

// Log level constants for LogInit.
const (
	DEBUG = iota
	INFO
	WARNING
	ERROR
	FATAL
)
