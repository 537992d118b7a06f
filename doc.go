// Package go_openid implements the association-establishment core of the
// OpenID protocol: the handshake by which a relying party and an identity
// provider agree on a shared MAC key without exposing it over an untrusted
// channel, and the stores each side later consults to sign or verify
// protocol messages.
//
// The package covers four concerns:
//   - Protocol vocabulary: per-version wire tokens for signature algorithms
//     and session types, with quiet handling of foreign tokens.
//   - Diffie-Hellman exchange: the fixed-modulus key exchange that masks
//     the MAC key in transit.
//   - Association stores: handle-indexed secret storage with role-specific
//     scoping and expiry, in memory or on LevelDB.
//   - Negotiation: the relying-party state machine with its single
//     renegotiation retry, and the provider-side request handler.
//
// The HTTP message channel, endpoint discovery, nonce bookkeeping and
// message signing are external collaborators; the MessageChannel interface
// is their boundary.
package go_openid
