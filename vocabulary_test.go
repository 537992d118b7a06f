package go_openid

import "testing"

// TestAssocTypeTokens verifies the association-type vocabulary per version.
func TestAssocTypeTokens(t *testing.T) {
	tests := []struct {
		name      string
		version   Version
		assocType AssocType
		token     string
	}{
		{"sha1 under 1.1", Version11, AssocHmacSha1, TOKEN_HMAC_SHA1},
		{"sha1 under 2.0", Version20, AssocHmacSha1, TOKEN_HMAC_SHA1},
		{"sha256 under 2.0", Version20, AssocHmacSha256, TOKEN_HMAC_SHA256},
		{"sha256 absent under 1.1", Version11, AssocHmacSha256, ""},
		{"unrecognized has no token", Version20, AssocUnrecognized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssocTypeToken(tt.version, tt.assocType); got != tt.token {
				t.Errorf("AssocTypeToken(%s, %s) = %q, want %q", tt.version, tt.assocType, got, tt.token)
			}
		})
	}
}

// TestParseAssocType verifies that parsing is version-gated and never
// faults on foreign tokens.
func TestParseAssocType(t *testing.T) {
	tests := []struct {
		name     string
		version  Version
		token    string
		expected AssocType
	}{
		{"sha1", Version20, TOKEN_HMAC_SHA1, AssocHmacSha1},
		{"sha256", Version20, TOKEN_HMAC_SHA256, AssocHmacSha256},
		{"sha256 foreign under 1.1", Version11, TOKEN_HMAC_SHA256, AssocUnrecognized},
		{"unknown token", Version20, "HMAC-UNKNOWN", AssocUnrecognized},
		{"empty token", Version20, "", AssocUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAssocType(tt.version, tt.token); got != tt.expected {
				t.Errorf("ParseAssocType(%s, %q) = %s, want %s", tt.version, tt.token, got, tt.expected)
			}
		})
	}
}

// TestSessionTypeTokens verifies the session-type vocabulary, including the
// 1.x empty token for the cleartext session.
func TestSessionTypeTokens(t *testing.T) {
	tests := []struct {
		name        string
		version     Version
		sessionType SessionType
		token       string
	}{
		{"dh-sha1 under 1.1", Version11, SessionDhSha1, TOKEN_DH_SHA1},
		{"dh-sha256 under 2.0", Version20, SessionDhSha256, TOKEN_DH_SHA256},
		{"dh-sha256 absent under 1.1", Version11, SessionDhSha256, ""},
		{"no-encryption under 2.0", Version20, SessionNone, TOKEN_NO_ENCRYPTION},
		{"no-encryption under 1.1 is empty", Version11, SessionNone, TOKEN_NO_ENCRYPTION_V1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionTypeToken(tt.version, tt.sessionType); got != tt.token {
				t.Errorf("SessionTypeToken(%s, %s) = %q, want %q", tt.version, tt.sessionType, got, tt.token)
			}
		})
	}
}

// TestParseSessionType verifies session-token parsing per version.
func TestParseSessionType(t *testing.T) {
	tests := []struct {
		name     string
		version  Version
		token    string
		expected SessionType
	}{
		{"dh-sha1", Version20, TOKEN_DH_SHA1, SessionDhSha1},
		{"dh-sha256", Version20, TOKEN_DH_SHA256, SessionDhSha256},
		{"dh-sha256 foreign under 1.0", Version10, TOKEN_DH_SHA256, SessionUnrecognized},
		{"no-encryption under 2.0", Version20, TOKEN_NO_ENCRYPTION, SessionNone},
		{"empty under 1.1 is cleartext", Version11, "", SessionNone},
		{"empty under 2.0 is foreign", Version20, "", SessionUnrecognized},
		{"no-encryption token under 1.1 is foreign", Version11, TOKEN_NO_ENCRYPTION, SessionUnrecognized},
		{"unknown token", Version20, "DH-UNKNOWN", SessionUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSessionType(tt.version, tt.token); got != tt.expected {
				t.Errorf("ParseSessionType(%s, %q) = %s, want %s", tt.version, tt.token, got, tt.expected)
			}
		})
	}
}

// TestSecretSizes verifies digest sizes drive MAC key lengths.
func TestSecretSizes(t *testing.T) {
	if got := AssocHmacSha1.SecretSize(); got != 20 {
		t.Errorf("AssocHmacSha1.SecretSize() = %d, want 20", got)
	}
	if got := AssocHmacSha256.SecretSize(); got != 32 {
		t.Errorf("AssocHmacSha256.SecretSize() = %d, want 32", got)
	}
	if got := AssocUnrecognized.SecretSize(); got != 0 {
		t.Errorf("AssocUnrecognized.SecretSize() = %d, want 0", got)
	}
}

// TestSupportedTypesGating verifies pre-2.0 vocabularies exclude the
// SHA-256 family.
func TestSupportedTypesGating(t *testing.T) {
	for _, assocType := range SupportedAssocTypes(Version11) {
		if assocType == AssocHmacSha256 {
			t.Error("Version11 vocabulary must not contain HMAC-SHA256")
		}
	}
	for _, sessionType := range SupportedSessionTypes(Version11) {
		if sessionType == SessionDhSha256 {
			t.Error("Version11 vocabulary must not contain DH-SHA256")
		}
	}

	found := false
	for _, assocType := range SupportedAssocTypes(Version20) {
		if assocType == AssocHmacSha256 {
			found = true
		}
	}
	if !found {
		t.Error("Version20 vocabulary must contain HMAC-SHA256")
	}
}
