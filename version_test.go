package go_openid

import "testing"

// TestVersionConstants verifies the predefined version constants render
// their wire forms.
func TestVersionConstants(t *testing.T) {
	tests := []struct {
		name     string
		version  Version
		expected string
	}{
		{"Version10", Version10, "1.0"},
		{"Version11", Version11, "1.1"},
		{"Version20", Version20, "2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.version.String(); got != tt.expected {
				t.Errorf("%s.String() = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

// TestVersionCompare tests the total order on (major, minor).
func TestVersionCompare(t *testing.T) {
	tests := []struct {
		name     string
		v, other Version
		expected int
	}{
		{"equal", Version20, Version20, 0},
		{"greater major", Version20, Version11, 1},
		{"lesser major", Version11, Version20, -1},
		{"greater minor", Version11, Version10, 1},
		{"lesser minor", Version10, Version11, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Compare(tt.other); got != tt.expected {
				t.Errorf("%s.Compare(%s) = %d, want %d", tt.v, tt.other, got, tt.expected)
			}
		})
	}
}

// TestVersionAtLeast tests the AtLeast convenience.
func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		v, other Version
		expected bool
	}{
		{"equal versions", Version20, Version20, true},
		{"newer", Version20, Version11, true},
		{"older", Version11, Version20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.AtLeast(tt.other); got != tt.expected {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.v, tt.other, got, tt.expected)
			}
		})
	}
}

// TestParseVersion verifies graceful handling of well-formed and malformed
// version strings.
func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Version
	}{
		{"two point oh", "2.0", Version20},
		{"one point one", "1.1", Version11},
		{"missing minor", "2", NewVersion(2, 0)},
		{"garbage minor", "2.garbage", NewVersion(2, 0)},
		{"garbage", "nonsense", NewVersion(0, 0)},
		{"empty", "", NewVersion(0, 0)},
		{"negative", "-1.0", NewVersion(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVersion(tt.input); got != tt.expected {
				t.Errorf("ParseVersion(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
