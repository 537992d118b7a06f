package go_openid

import (
	"testing"
	"time"
)

// TestAssociateRequestValidate verifies the structural checks tying the
// DH public value to the session type.
func TestAssociateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *AssociateRequest
		wantErr bool
	}{
		{
			"dh request with public value",
			NewAssociateRequest(Version20, AssocHmacSha256, SessionDhSha256, []byte{1, 2, 3}),
			false,
		},
		{
			"dh request missing public value",
			NewAssociateRequest(Version20, AssocHmacSha256, SessionDhSha256, nil),
			true,
		},
		{
			"cleartext request",
			NewAssociateRequest(Version20, AssocHmacSha256, SessionNone, nil),
			false,
		},
		{
			"cleartext request with stray public value",
			NewAssociateRequest(Version20, AssocHmacSha256, SessionNone, []byte{1}),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestAssociateResponseValidate verifies the success/error union and the
// session-specific key-field consistency rules.
func TestAssociateResponseValidate(t *testing.T) {
	tests := []struct {
		name    string
		resp    *AssociateResponse
		wantErr bool
	}{
		{
			"neither success nor error",
			&AssociateResponse{Version: Version20},
			true,
		},
		{
			"both success and error",
			&AssociateResponse{
				Version: Version20,
				Success: &AssociateSuccess{},
				Error:   &AssociateError{Code: ASSOC_ERROR_UNSUPPORTED_TYPE},
			},
			true,
		},
		{
			"plain error",
			&AssociateResponse{Version: Version20, Error: &AssociateError{Code: ASSOC_ERROR_UNSUPPORTED_TYPE}},
			false,
		},
		{
			"valid cleartext success",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:   TOKEN_HMAC_SHA1,
				SessionType: TOKEN_NO_ENCRYPTION,
				Handle:      "h",
				ExpiresIn:   3600,
				MacKey:      make([]byte, 20),
			}},
			false,
		},
		{
			"cleartext success with DH fields",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:      TOKEN_HMAC_SHA1,
				SessionType:    TOKEN_NO_ENCRYPTION,
				Handle:         "h",
				ExpiresIn:      3600,
				MacKey:         make([]byte, 20),
				DHServerPublic: []byte{1},
			}},
			true,
		},
		{
			"valid DH success",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:      TOKEN_HMAC_SHA256,
				SessionType:    TOKEN_DH_SHA256,
				Handle:         "h",
				ExpiresIn:      3600,
				DHServerPublic: []byte{1, 2},
				EncMacKey:      make([]byte, 32),
			}},
			false,
		},
		{
			"DH success with cleartext key",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:      TOKEN_HMAC_SHA256,
				SessionType:    TOKEN_DH_SHA256,
				Handle:         "h",
				ExpiresIn:      3600,
				MacKey:         make([]byte, 32),
				DHServerPublic: []byte{1, 2},
				EncMacKey:      make([]byte, 32),
			}},
			true,
		},
		{
			"success without handle",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:   TOKEN_HMAC_SHA1,
				SessionType: TOKEN_NO_ENCRYPTION,
				ExpiresIn:   3600,
				MacKey:      make([]byte, 20),
			}},
			true,
		},
		{
			"success with zero lifetime",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:   TOKEN_HMAC_SHA1,
				SessionType: TOKEN_NO_ENCRYPTION,
				Handle:      "h",
				MacKey:      make([]byte, 20),
			}},
			true,
		},
		{
			"success with unrecognized session type",
			&AssociateResponse{Version: Version20, Success: &AssociateSuccess{
				AssocType:   TOKEN_HMAC_SHA1,
				SessionType: "DH-UNKNOWN",
				Handle:      "h",
				ExpiresIn:   3600,
				MacKey:      make([]byte, 20),
			}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.resp.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestHasSuggestion verifies suggestion detection on refusals.
func TestHasSuggestion(t *testing.T) {
	withSuggestion := &AssociateError{Code: ASSOC_ERROR_UNSUPPORTED_TYPE, AssocType: TOKEN_HMAC_SHA1, SessionType: TOKEN_DH_SHA1}
	if !withSuggestion.HasSuggestion() {
		t.Error("HasSuggestion() = false for a refusal naming a pair")
	}
	plain := &AssociateError{Code: ASSOC_ERROR_UNSUPPORTED_TYPE}
	if plain.HasSuggestion() {
		t.Error("HasSuggestion() = true for a plain refusal")
	}
}

// TestExpiresInDuration verifies the advertised lifetime conversion.
func TestExpiresInDuration(t *testing.T) {
	s := &AssociateSuccess{ExpiresIn: 90}
	if got := s.ExpiresInDuration(); got != 90*time.Second {
		t.Errorf("ExpiresInDuration() = %v, want 90s", got)
	}
}
