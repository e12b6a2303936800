// Package version provides the polymorphic version algebra used by jitrel.
//
// Each project subscribes to exactly one versioning scheme, fixed at
// autodetection time. Versions within a scheme are totally ordered; versions
// across schemes are never compared.
package version

import (
	"fmt"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Scheme identifies a versioning scheme. The set is closed: adding a scheme
// means a new constant plus a Version implementation, and every switch over
// Scheme in this package must handle it.
type Scheme string

const (
	// SchemeSemver is semantic versioning (major.minor.patch with optional
	// prerelease and build metadata).
	SchemeSemver Scheme = "semver"
	// SchemePEP440 is the Python-style scheme: release segments with
	// optional epoch, dev, and post markers.
	SchemePEP440 Scheme = "pep440"
	// SchemeQuad is the bounded four-component numeric scheme
	// (major.minor.micro.revision, each at most 65534). The fourth
	// component has no bump rule and is preserved by every bump.
	SchemeQuad Scheme = "quad"
)

// IsValid returns true if the scheme is a known scheme.
func (s Scheme) IsValid() bool {
	switch s {
	case SchemeSemver, SchemePEP440, SchemeQuad:
		return true
	default:
		return false
	}
}

// String returns the scheme name.
func (s Scheme) String() string {
	return string(s)
}

// ParseScheme parses a scheme name.
func ParseScheme(s string) (Scheme, error) {
	sc := Scheme(s)
	if !sc.IsValid() {
		return "", jerrors.Newf(jerrors.KindParse, "invalid version scheme: %q (must be semver, pep440, or quad)", s)
	}
	return sc, nil
}

// Version is a parsed version number under one of the supported schemes.
// Implementations are immutable value objects: Bump returns a new Version.
type Version interface {
	// Scheme returns the scheme this version belongs to.
	Scheme() Scheme

	// String formats the version. Parsing the result yields a Version
	// equal under Compare; formatting is semantic, not byte-for-byte,
	// for non-canonical input.
	String() string

	// Compare returns -1, 0, or 1. It panics if the other version
	// belongs to a different scheme: mixing schemes is a programming
	// error, not a user error.
	Compare(other Version) int

	// Bump applies a bump spec and returns the resulting version.
	Bump(spec BumpSpec) (Version, error)
}

// Parse parses text under the given scheme.
func Parse(scheme Scheme, text string) (Version, error) {
	switch scheme {
	case SchemeSemver:
		return ParseSemver(text)
	case SchemePEP440:
		return ParsePEP440(text)
	case SchemeQuad:
		return ParseQuad(text)
	default:
		return nil, jerrors.Newf(jerrors.KindParse, "unknown version scheme %q", scheme)
	}
}

// MustParse parses text under the given scheme and panics if invalid.
// Use only for known-good version strings.
func MustParse(scheme Scheme, text string) Version {
	v, err := Parse(scheme, text)
	if err != nil {
		panic(err)
	}
	return v
}

// schemeMismatch reports an attempt to compare versions across schemes.
func schemeMismatch(a, b Version) string {
	return fmt.Sprintf("version: cannot compare %s version %q with %s version %q",
		a.Scheme(), a, b.Scheme(), b)
}
