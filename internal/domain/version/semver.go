package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Semver is a semantic version. Immutable; all operations return new values.
type Semver struct {
	v *semver.Version
}

// ParseSemver parses a semantic version string.
func ParseSemver(text string) (Semver, error) {
	const op = "version.ParseSemver"

	v, err := semver.StrictNewVersion(text)
	if err != nil {
		return Semver{}, jerrors.ParseWrap(err, op, fmt.Sprintf("invalid semantic version %q", text))
	}
	return Semver{v: v}, nil
}

// NewSemver builds a semantic version from components.
func NewSemver(major, minor, patch uint64) Semver {
	return Semver{v: semver.New(major, minor, patch, "", "")}
}

// Scheme returns SchemeSemver.
func (s Semver) Scheme() Scheme { return SchemeSemver }

// Major returns the major component.
func (s Semver) Major() uint64 { return s.v.Major() }

// Minor returns the minor component.
func (s Semver) Minor() uint64 { return s.v.Minor() }

// Patch returns the patch component.
func (s Semver) Patch() uint64 { return s.v.Patch() }

// Prerelease returns the prerelease identifier, if any.
func (s Semver) Prerelease() string { return s.v.Prerelease() }

// String formats the version without a "v" prefix.
func (s Semver) String() string { return s.v.String() }

// Compare implements Version. Panics if other is not a Semver.
func (s Semver) Compare(other Version) int {
	o, ok := other.(Semver)
	if !ok {
		panic(schemeMismatch(s, other))
	}
	return s.v.Compare(o.v)
}

// Bump implements Version.
func (s Semver) Bump(spec BumpSpec) (Version, error) {
	switch spec.Kind() {
	case BumpMicro:
		nv := s.v.IncPatch()
		return Semver{v: &nv}, nil
	case BumpMinor:
		nv := s.v.IncMinor()
		return Semver{v: &nv}, nil
	case BumpMajor:
		nv := s.v.IncMajor()
		return Semver{v: &nv}, nil
	case BumpForce:
		return applyForce(s, spec)
	case BumpDevMode:
		// The current version is ignored: the development identifier is
		// freshly synthesized and sorts below every release under semver
		// prerelease rules, so it never competes with real releases.
		dev, err := semver.StrictNewVersion(fmt.Sprintf("0.0.0-dev.%s", spec.Datecode()))
		if err != nil {
			return nil, jerrors.Wrap(err, jerrors.KindInternal, "version.Bump", "building dev-mode identifier")
		}
		return Semver{v: dev}, nil
	default:
		return nil, jerrors.Newf(jerrors.KindVersion, "unsupported bump kind %q for semver", spec.Kind())
	}
}
