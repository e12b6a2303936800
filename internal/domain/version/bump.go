package version

import (
	"fmt"
	"strings"
	"time"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// BumpKind identifies how a version is advanced at release time.
type BumpKind string

const (
	// BumpMicro increments the lowest-order released component.
	BumpMicro BumpKind = "micro"
	// BumpMinor increments the minor component and zeroes lower components.
	BumpMinor BumpKind = "minor"
	// BumpMajor increments the major component and zeroes lower components.
	BumpMajor BumpKind = "major"
	// BumpForce sets an explicit version, which must exceed the current one.
	BumpForce BumpKind = "force"
	// BumpDevMode synthesizes an informational development identifier.
	// It is applied to every non-release commit and is never compared
	// against release versions.
	BumpDevMode BumpKind = "dev"
)

// BumpSpec is a request to transform an existing version into a new one.
// Applying a spec is a pure function of (version, spec).
type BumpSpec struct {
	kind  BumpKind
	force string    // explicit version text, only for BumpForce
	now   time.Time // datecode source, only for BumpDevMode
}

// MicroBump returns a micro bump spec.
func MicroBump() BumpSpec { return BumpSpec{kind: BumpMicro} }

// MinorBump returns a minor bump spec.
func MinorBump() BumpSpec { return BumpSpec{kind: BumpMinor} }

// MajorBump returns a major bump spec.
func MajorBump() BumpSpec { return BumpSpec{kind: BumpMajor} }

// ForceBump returns a spec that forces the version to the given text.
func ForceBump(text string) BumpSpec {
	return BumpSpec{kind: BumpForce, force: text}
}

// DevModeBump returns a spec producing a development identifier embedding
// the given timestamp.
func DevModeBump(now time.Time) BumpSpec {
	return BumpSpec{kind: BumpDevMode, now: now.UTC()}
}

// Kind returns the bump kind.
func (b BumpSpec) Kind() BumpKind { return b.kind }

// ForceText returns the explicit version text for force bumps.
func (b BumpSpec) ForceText() string { return b.force }

// Datecode returns the development datecode (yyyymmdd) for dev-mode bumps.
func (b BumpSpec) Datecode() string {
	return b.now.Format("20060102")
}

// IsZero returns true for the zero spec.
func (b BumpSpec) IsZero() bool { return b.kind == "" }

// String renders the spec in the changelog stanza syntax accepted by
// ParseBumpSpec.
func (b BumpSpec) String() string {
	switch b.kind {
	case BumpMicro, BumpMinor, BumpMajor:
		return fmt.Sprintf("%s bump", b.kind)
	case BumpForce:
		return fmt.Sprintf("force %s", b.force)
	case BumpDevMode:
		return "dev-mode"
	default:
		return "unspecified"
	}
}

// ParseBumpSpec parses the stanza syntax written into changelog placeholders:
// "micro bump", "minor bump", "major bump", "force <version>", "dev-mode".
func ParseBumpSpec(text string) (BumpSpec, error) {
	const op = "version.ParseBumpSpec"

	t := strings.TrimSpace(strings.ToLower(text))
	switch t {
	case "micro bump":
		return MicroBump(), nil
	case "minor bump":
		return MinorBump(), nil
	case "major bump":
		return MajorBump(), nil
	case "dev-mode":
		return DevModeBump(time.Now()), nil
	}

	// Version text keeps its original casing.
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 2 && strings.EqualFold(fields[0], "force") {
		return ForceBump(fields[1]), nil
	}
	if len(fields) == 1 && strings.EqualFold(fields[0], "force") {
		return BumpSpec{}, jerrors.Parse(op, "force bump requires an explicit version")
	}

	return BumpSpec{}, jerrors.Parse(op, fmt.Sprintf("unrecognized bump specification %q", text)).
		WithDetail("input", text)
}

// applyForce parses the forced text under v's scheme and checks that it
// strictly exceeds v. Shared by every scheme's Bump implementation.
func applyForce(v Version, spec BumpSpec) (Version, error) {
	const op = "version.Bump"

	forced, err := Parse(v.Scheme(), spec.ForceText())
	if err != nil {
		return nil, jerrors.ParseWrap(err, op, fmt.Sprintf("invalid forced version %q", spec.ForceText()))
	}
	if forced.Compare(v) <= 0 {
		return nil, ErrNotForward(v, forced)
	}
	return forced, nil
}

// ErrNotForward constructs the error reported when a force bump does not
// exceed the current version.
func ErrNotForward(current, forced Version) error {
	return jerrors.Newf(jerrors.KindVersion, "forced version %s does not exceed current version %s", forced, current).
		WithDetail("current", current.String()).
		WithDetail("forced", forced.String())
}
