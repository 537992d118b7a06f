package go_openid

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Association stores.
//
// Both protocol roles keep associations in a keyed store, but under
// different scopes: a relying party scopes by provider endpoint, a provider
// scopes by relying-party classification. Rather than two store
// implementations, a store is constructed with a StoreRole capability that
// owns the role-specific scope derivation; the keyed mapping underneath is
// shared.
//
// Invariant: a lookup never returns an expired association. "Found but
// expired" is indistinguishable from "not found"; removal from the backing
// map may be lazy.

// AssociationStore is the keyed secret store shared by both roles.
// Implementations are safe for concurrent use by multiple in-flight
// handshakes.
type AssociationStore interface {
	// Add inserts an association under the given scope. A handle collision
	// fails with ErrDuplicateHandle; an existing association is never
	// silently overwritten.
	Add(scope string, assoc *Association) error

	// Lookup returns the live association under (scope, handle), or
	// ErrAssociationNotFound.
	Lookup(scope, handle string) (*Association, error)

	// LookupLatest returns the most recently issued live association under
	// the scope, or ErrAssociationNotFound.
	LookupLatest(scope string) (*Association, error)

	// Remove deletes the association under (scope, handle). Removing an
	// absent association is not an error.
	Remove(scope, handle string) error

	// Close releases the store's resources. Operations on a closed store
	// fail with ErrStoreClosed.
	Close() error
}

// RelyingPartyClass classifies a relying party on the provider side.
type RelyingPartyClass int

const (
	// ClassSmart identifies relying parties that manage association
	// handles themselves.
	ClassSmart RelyingPartyClass = iota
	// ClassShared is the generic pool for relying parties without handle
	// management.
	ClassShared
)

// Scope returns the store scope string for the classification.
func (c RelyingPartyClass) Scope() string {
	if c == ClassShared {
		return "shared"
	}
	return "smart"
}

// StoreRole holds the role-specific scope derivation for a store. Selected
// at construction; the store itself has no role-conditional code paths.
type StoreRole struct {
	name     string
	scopeKey func(scope string) (string, error)
}

// RelyingPartyRole scopes a store by provider endpoint. Endpoints are
// canonicalized by trimming a trailing slash so that lookups do not miss on
// a cosmetic difference.
func RelyingPartyRole() StoreRole {
	return StoreRole{
		name: "relying-party",
		scopeKey: func(scope string) (string, error) {
			scope = strings.TrimSuffix(strings.TrimSpace(scope), "/")
			if scope == "" {
				return "", fmt.Errorf("provider endpoint cannot be empty: %w", ErrInvalidArgument)
			}
			return scope, nil
		},
	}
}

// ProviderRole scopes a store by relying-party classification.
func ProviderRole() StoreRole {
	return StoreRole{
		name: "provider",
		scopeKey: func(scope string) (string, error) {
			switch scope {
			case ClassSmart.Scope(), ClassShared.Scope():
				return scope, nil
			default:
				return "", fmt.Errorf("unknown relying-party classification %q: %w", scope, ErrInvalidArgument)
			}
		},
	}
}

// Name returns the role name, for logging.
func (r StoreRole) Name() string {
	return r.name
}

// MemoryStore is the in-process AssociationStore. Store lifetime spans the
// process that owns it; use LevelDBStore for deployments that must survive
// restarts.
type MemoryStore struct {
	role   StoreRole
	mu     sync.Mutex
	scopes map[string]map[string]*Association
	closed bool
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store for the given role.
func NewMemoryStore(role StoreRole) *MemoryStore {
	return &MemoryStore{
		role:   role,
		scopes: make(map[string]map[string]*Association),
		now:    time.Now,
	}
}

// Add inserts an association under the given scope.
func (s *MemoryStore) Add(scope string, assoc *Association) error {
	if assoc == nil || assoc.Handle == "" {
		return fmt.Errorf("cannot store nil or handle-less association: %w", ErrInvalidArgument)
	}
	key, err := s.role.scopeKey(scope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	handles := s.scopes[key]
	if handles == nil {
		handles = make(map[string]*Association)
		s.scopes[key] = handles
	}
	if existing, ok := handles[assoc.Handle]; ok && !existing.Expired(s.now()) {
		return NewStoreError(key, assoc.Handle, "add", ErrDuplicateHandle)
	}
	handles[assoc.Handle] = assoc

	Debug("Stored %s association %s under scope %q (expires %s)",
		s.role.name, assoc.Handle, key, assoc.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Lookup returns the live association under (scope, handle).
func (s *MemoryStore) Lookup(scope, handle string) (*Association, error) {
	key, err := s.role.scopeKey(scope)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	assoc, ok := s.scopes[key][handle]
	if !ok {
		return nil, NewStoreError(key, handle, "lookup", ErrAssociationNotFound)
	}
	if assoc.Expired(s.now()) {
		// Lazy eviction: expired is the same as absent.
		delete(s.scopes[key], handle)
		return nil, NewStoreError(key, handle, "lookup", ErrAssociationNotFound)
	}
	return assoc, nil
}

// LookupLatest returns the most recently issued live association under the
// scope.
func (s *MemoryStore) LookupLatest(scope string) (*Association, error) {
	key, err := s.role.scopeKey(scope)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	now := s.now()
	var latest *Association
	for handle, assoc := range s.scopes[key] {
		if assoc.Expired(now) {
			delete(s.scopes[key], handle)
			continue
		}
		if latest == nil || assoc.Issued.After(latest.Issued) {
			latest = assoc
		}
	}
	if latest == nil {
		return nil, NewStoreError(key, "", "lookup latest", ErrAssociationNotFound)
	}
	return latest, nil
}

// Remove deletes the association under (scope, handle).
func (s *MemoryStore) Remove(scope, handle string) error {
	key, err := s.role.scopeKey(scope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.scopes[key], handle)
	return nil
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.scopes = nil
	return nil
}

var _ AssociationStore = (*MemoryStore)(nil)
