package go_openid

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	dbutil "github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBStore is an AssociationStore backed by a LevelDB database, for
// deployments whose associations must survive process restarts. It applies
// the same role scoping and expiry semantics as MemoryStore.
type LevelDBStore struct {
	role StoreRole
	db   *leveldb.DB

	// Guards the check-then-put in Add; LevelDB itself has no
	// compare-and-insert.
	mu     sync.Mutex
	closed bool
	now    func() time.Time
}

// storedAssociation is the on-disk record. The association type travels as
// its 2.0 wire token; a record with an unknown token is treated as absent.
type storedAssociation struct {
	Handle    string    `json:"handle"`
	SecretKey []byte    `json:"secret_key"`
	Type      string    `json:"assoc_type"`
	Issued    time.Time `json:"issued"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OpenLevelDBStore opens (creating if necessary) a LevelDB-backed store at
// the given path for the given role.
func OpenLevelDBStore(role StoreRole, path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open association store at %q: %w", path, err)
	}
	return &LevelDBStore{
		role: role,
		db:   db,
		now:  time.Now,
	}, nil
}

func (s *LevelDBStore) scopePrefix(scope string) (string, error) {
	key, err := s.role.scopeKey(scope)
	if err != nil {
		return "", err
	}
	// Scopes may contain separator characters (endpoints are URLs), so the
	// scope segment is escaped before joining.
	return "assoc/" + url.QueryEscape(key) + "/", nil
}

func (s *LevelDBStore) recordKey(scope, handle string) (string, error) {
	prefix, err := s.scopePrefix(scope)
	if err != nil {
		return "", err
	}
	return prefix + handle, nil
}

func encodeAssociation(assoc *Association) ([]byte, error) {
	return json.Marshal(&storedAssociation{
		Handle:    assoc.Handle,
		SecretKey: assoc.SecretKey,
		Type:      AssocTypeToken(Version20, assoc.Type),
		Issued:    assoc.Issued,
		ExpiresAt: assoc.ExpiresAt,
	})
}

func decodeAssociation(data []byte) (*Association, error) {
	var rec storedAssociation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stored association: %w", err)
	}
	assocType := ParseAssocType(Version20, rec.Type)
	if assocType == AssocUnrecognized {
		return nil, fmt.Errorf("stored association has unknown type %q: %w", rec.Type, ErrUnrecognizedToken)
	}
	return &Association{
		Handle:    rec.Handle,
		SecretKey: rec.SecretKey,
		Type:      assocType,
		Issued:    rec.Issued,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Add inserts an association under the given scope.
func (s *LevelDBStore) Add(scope string, assoc *Association) error {
	if assoc == nil || assoc.Handle == "" {
		return fmt.Errorf("cannot store nil or handle-less association: %w", ErrInvalidArgument)
	}
	key, err := s.recordKey(scope, assoc.Handle)
	if err != nil {
		return err
	}
	data, err := encodeAssociation(assoc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	existing, err := s.db.Get([]byte(key), nil)
	switch err {
	case nil:
		if prior, derr := decodeAssociation(existing); derr == nil && !prior.Expired(s.now()) {
			return NewStoreError(scope, assoc.Handle, "add", ErrDuplicateHandle)
		}
		// Expired or undecodable record under this handle; overwrite.
	case leveldb.ErrNotFound:
	default:
		return NewStoreError(scope, assoc.Handle, "add", err)
	}

	if err := s.db.Put([]byte(key), data, nil); err != nil {
		return NewStoreError(scope, assoc.Handle, "add", err)
	}
	Debug("Persisted %s association %s under scope %q", s.role.name, assoc.Handle, scope)
	return nil
}

// Lookup returns the live association under (scope, handle).
func (s *LevelDBStore) Lookup(scope, handle string) (*Association, error) {
	key, err := s.recordKey(scope, handle)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	data, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, NewStoreError(scope, handle, "lookup", ErrAssociationNotFound)
	}
	if err != nil {
		return nil, NewStoreError(scope, handle, "lookup", err)
	}

	assoc, err := decodeAssociation(data)
	if err != nil || assoc.Expired(s.now()) {
		// Lazy eviction: expired or corrupt records are the same as absent.
		if derr := s.db.Delete([]byte(key), nil); derr != nil {
			Warning("Failed to evict association %s: %v", handle, derr)
		}
		return nil, NewStoreError(scope, handle, "lookup", ErrAssociationNotFound)
	}
	return assoc, nil
}

// LookupLatest returns the most recently issued live association under the
// scope.
func (s *LevelDBStore) LookupLatest(scope string) (*Association, error) {
	prefix, err := s.scopePrefix(scope)
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
	iter := s.db.NewIterator(dbutil.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		assoc, derr := decodeAssociation(iter.Value())
		if derr != nil || assoc.Expired(now) {
			if derr := s.db.Delete(append([]byte(nil), iter.Key()...), nil); derr != nil {
				Warning("Failed to evict association under scope %q: %v", scope, derr)
			}
			continue
		}
		if latest == nil || assoc.Issued.After(latest.Issued) {
			latest = assoc
		}
	}
	if err := iter.Error(); err != nil {
		return nil, NewStoreError(scope, "", "lookup latest", err)
	}
	if latest == nil {
		return nil, NewStoreError(scope, "", "lookup latest", ErrAssociationNotFound)
	}
	return latest, nil
}

// Remove deletes the association under (scope, handle).
func (s *LevelDBStore) Remove(scope, handle string) error {
	key, err := s.recordKey(scope, handle)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return NewStoreError(scope, handle, "remove", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *LevelDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

var _ AssociationStore = (*LevelDBStore)(nil)
