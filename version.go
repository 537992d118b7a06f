package go_openid

import (
	"strconv"
	"strings"
)

// Version identifies a major.minor revision of the OpenID protocol.
// It is immutable after construction and orders totally on (major, minor).
type Version struct {
	major, minor uint16
}

// Protocol versions with distinct association vocabularies.
// Versions before 2.0 only expose HMAC-SHA1 signatures and the DH-SHA1 and
// no-encryption sessions; 2.0 adds the SHA-256 family.
var (
	Version10 = Version{major: 1, minor: 0}
	Version11 = Version{major: 1, minor: 1}
	Version20 = Version{major: 2, minor: 0}
)

// NewVersion constructs a Version from explicit components.
func NewVersion(major, minor uint16) Version {
	return Version{major: major, minor: minor}
}

// ParseVersion parses a version string of the form "major.minor".
//
// Malformed input is handled gracefully rather than rejected:
//   - Invalid segments default to 0 (e.g. "2.garbage" → Version{2, 0})
//   - Missing segments default to 0 (e.g. "2" → Version{2, 0})
//   - Logs a warning for parsing failures to aid debugging
//
// A claimed version arriving over the wire therefore never faults the
// caller; nonsense collapses to a version that matches nothing we support.
func ParseVersion(str string) Version {
	var v Version
	segments := strings.Split(str, ".")
	if len(segments) > 0 {
		v.major = parseVersionSegment(segments[0], "major", str)
	}
	if len(segments) > 1 {
		v.minor = parseVersionSegment(segments[1], "minor", str)
	}
	return v
}

// parseVersionSegment parses a single version segment string into a uint16.
// Returns 0 and logs a warning if parsing fails.
func parseVersionSegment(segment, segmentName, fullVersion string) uint16 {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 {
		Warning("Invalid %s version '%s' in protocol version '%s', defaulting to 0", segmentName, segment, fullVersion)
		return 0
	}
	return uint16(i)
}

// Compare returns -1, 0 or 1 as v orders before, equal to or after other.
func (v Version) Compare(other Version) int {
	if v.major != other.major {
		if v.major > other.major {
			return 1
		}
		return -1
	}
	if v.minor != other.minor {
		if v.minor > other.minor {
			return 1
		}
		return -1
	}
	return 0
}

// AtLeast reports whether v is the same as or newer than other.
func (v Version) AtLeast(other Version) bool {
	return v.Compare(other) >= 0
}

// String returns the wire form of the version, e.g. "2.0".
func (v Version) String() string {
	return strconv.Itoa(int(v.major)) + "." + strconv.Itoa(int(v.minor))
}
