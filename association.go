package go_openid

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Association is the shared-secret record both sides hold after a
// successful handshake. The two sides own independent copies with the same
// secret value, never a shared reference. Immutable after creation; the
// store decides when it expires out of view.
type Association struct {
	// Handle is the opaque, collision-resistant identifier both sides use
	// to refer to the association in later protocol messages.
	Handle string

	// SecretKey is the MAC key. Its length always equals
	// Type.SecretSize().
	SecretKey []byte

	// Type is the signature algorithm the secret signs with.
	Type AssocType

	Issued    time.Time
	ExpiresAt time.Time
}

// NewAssociation creates an association with a fresh handle and a fresh
// random secret sized for the association type. Used by the provider at
// successful handshake completion.
func NewAssociation(assocType AssocType, lifetime time.Duration) (*Association, error) {
	size := assocType.SecretSize()
	if size == 0 {
		return nil, fmt.Errorf("cannot create association of type %s: %w", assocType, ErrInvalidArgument)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("association lifetime must be positive: %w", ErrInvalidArgument)
	}

	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate association secret: %w", err)
	}

	now := time.Now()
	return &Association{
		Handle:    newHandle(),
		SecretKey: secret,
		Type:      assocType,
		Issued:    now,
		ExpiresAt: now.Add(lifetime),
	}, nil
}

// NewAssociationFromSecret creates an association around a secret obtained
// from the handshake. Used by the relying party after accepting a success
// response; the handle and lifetime come from the provider.
func NewAssociationFromSecret(handle string, assocType AssocType, secret []byte, expiresIn time.Duration) (*Association, error) {
	if handle == "" {
		return nil, fmt.Errorf("association handle cannot be empty: %w", ErrMalformedHandshake)
	}
	if len(secret) != assocType.SecretSize() || assocType.SecretSize() == 0 {
		return nil, fmt.Errorf("secret length %d does not match association type %s: %w",
			len(secret), assocType, ErrMalformedHandshake)
	}
	if expiresIn <= 0 {
		return nil, fmt.Errorf("association lifetime must be positive: %w", ErrMalformedHandshake)
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	now := time.Now()
	return &Association{
		Handle:    handle,
		SecretKey: key,
		Type:      assocType,
		Issued:    now,
		ExpiresAt: now.Add(expiresIn),
	}, nil
}

// newHandle generates a fresh opaque handle. ULIDs are collision-resistant
// and sortable by creation time, which keeps store scans cheap.
func newHandle() string {
	return ulid.Make().String()
}

// Regenerate returns a copy of the association under a fresh handle.
// Used by the provider when a store insertion collides.
func (a *Association) Regenerate() *Association {
	c := *a
	c.Handle = newHandle()
	return &c
}

// Expired reports whether the association has expired as of now.
func (a *Association) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

// RemainingLifetime returns the time until expiry as of now, never
// negative.
func (a *Association) RemainingLifetime(now time.Time) time.Duration {
	if a.Expired(now) {
		return 0
	}
	return a.ExpiresAt.Sub(now)
}
