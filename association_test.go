package go_openid

import (
	"testing"
	"time"
)

// TestNewAssociation verifies fresh associations satisfy their invariants:
// secret sized for the type, positive lifetime, unique handles.
func TestNewAssociation(t *testing.T) {
	tests := []struct {
		name       string
		assocType  AssocType
		secretSize int
	}{
		{"HMAC-SHA1", AssocHmacSha1, 20},
		{"HMAC-SHA256", AssocHmacSha256, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assoc, err := NewAssociation(tt.assocType, time.Hour)
			if err != nil {
				t.Fatalf("NewAssociation() error: %v", err)
			}
			if len(assoc.SecretKey) != tt.secretSize {
				t.Errorf("secret length = %d, want %d", len(assoc.SecretKey), tt.secretSize)
			}
			if assoc.Handle == "" {
				t.Error("association has empty handle")
			}
			if !assoc.ExpiresAt.After(assoc.Issued) {
				t.Error("association expires at or before issuance")
			}
		})
	}
}

// TestNewAssociationRejectsBadInput verifies the unrecognized type and
// non-positive lifetimes are rejected.
func TestNewAssociationRejectsBadInput(t *testing.T) {
	if _, err := NewAssociation(AssocUnrecognized, time.Hour); err == nil {
		t.Error("NewAssociation(AssocUnrecognized) succeeded, want error")
	}
	if _, err := NewAssociation(AssocHmacSha1, 0); err == nil {
		t.Error("NewAssociation with zero lifetime succeeded, want error")
	}
}

// TestHandleUniqueness verifies freshly generated handles do not collide.
func TestHandleUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		h := newHandle()
		if seen[h] {
			t.Fatalf("handle %q generated twice", h)
		}
		seen[h] = true
	}
}

// TestNewAssociationFromSecret verifies the relying-party constructor
// enforces the secret-length invariant.
func TestNewAssociationFromSecret(t *testing.T) {
	tests := []struct {
		name      string
		handle    string
		assocType AssocType
		secretLen int
		expiresIn time.Duration
		wantErr   bool
	}{
		{"valid sha1", "h1", AssocHmacSha1, 20, time.Hour, false},
		{"valid sha256", "h2", AssocHmacSha256, 32, time.Hour, false},
		{"wrong length", "h3", AssocHmacSha256, 20, time.Hour, true},
		{"empty handle", "", AssocHmacSha1, 20, time.Hour, true},
		{"zero lifetime", "h4", AssocHmacSha1, 20, 0, true},
		{"unrecognized type", "h5", AssocUnrecognized, 0, time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := make([]byte, tt.secretLen)
			_, err := NewAssociationFromSecret(tt.handle, tt.assocType, secret, tt.expiresIn)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAssociationFromSecret() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestAssociationFromSecretCopiesKey verifies the association owns its
// secret rather than aliasing the caller's buffer.
func TestAssociationFromSecretCopiesKey(t *testing.T) {
	secret := make([]byte, 20)
	assoc, err := NewAssociationFromSecret("h", AssocHmacSha1, secret, time.Hour)
	if err != nil {
		t.Fatalf("NewAssociationFromSecret() error: %v", err)
	}
	secret[0] = 0xFF
	if assoc.SecretKey[0] == 0xFF {
		t.Error("association aliases the caller's secret buffer")
	}
}

// TestAssociationExpiry verifies Expired and RemainingLifetime around the
// expiry instant.
func TestAssociationExpiry(t *testing.T) {
	assoc, err := NewAssociation(AssocHmacSha1, time.Hour)
	if err != nil {
		t.Fatalf("NewAssociation() error: %v", err)
	}

	if assoc.Expired(assoc.Issued) {
		t.Error("association expired at issuance")
	}
	if assoc.Expired(assoc.ExpiresAt.Add(-time.Second)) {
		t.Error("association expired before its expiry instant")
	}
	if !assoc.Expired(assoc.ExpiresAt) {
		t.Error("association live at its expiry instant")
	}
	if got := assoc.RemainingLifetime(assoc.ExpiresAt.Add(time.Minute)); got != 0 {
		t.Errorf("RemainingLifetime after expiry = %v, want 0", got)
	}
	if got := assoc.RemainingLifetime(assoc.Issued); got != time.Hour {
		t.Errorf("RemainingLifetime at issuance = %v, want 1h", got)
	}
}

// TestRegenerate verifies a regenerated association keeps its secret but
// changes its handle.
func TestRegenerate(t *testing.T) {
	assoc, err := NewAssociation(AssocHmacSha256, time.Hour)
	if err != nil {
		t.Fatalf("NewAssociation() error: %v", err)
	}
	regen := assoc.Regenerate()
	if regen.Handle == assoc.Handle {
		t.Error("Regenerate() kept the old handle")
	}
	if string(regen.SecretKey) != string(assoc.SecretKey) {
		t.Error("Regenerate() changed the secret")
	}
}
