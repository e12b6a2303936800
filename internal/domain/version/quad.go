package version

import (
	"fmt"
	"regexp"
	"strconv"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// QuadMax is the largest value any component of a quad version may take.
// The bound comes from the Windows installer ecosystem, where each component
// is a 16-bit value with 65535 reserved.
const QuadMax = 65534

// Quad is a bounded four-component numeric version
// (major.minor.micro.revision). The revision component carries
// installer-specific meaning and is never mutated by any bump rule.
type Quad struct {
	major    uint32
	minor    uint32
	micro    uint32
	revision uint32
}

var quadRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)\.(\d+)$`)

// ParseQuad parses a four-component version string.
func ParseQuad(text string) (Quad, error) {
	const op = "version.ParseQuad"

	m := quadRegex.FindStringSubmatch(text)
	if m == nil {
		return Quad{}, jerrors.Parse(op, fmt.Sprintf("invalid quad version %q (want four dot-separated integers)", text))
	}

	var parts [4]uint32
	for i := 0; i < 4; i++ {
		n, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil || n > QuadMax {
			return Quad{}, jerrors.Parse(op, fmt.Sprintf("quad component %q out of range (max %d)", m[i+1], QuadMax))
		}
		parts[i] = uint32(n)
	}

	return Quad{major: parts[0], minor: parts[1], micro: parts[2], revision: parts[3]}, nil
}

// NewQuad builds a quad version from components. Components above QuadMax
// are rejected by ParseQuad; NewQuad trusts its caller.
func NewQuad(major, minor, micro, revision uint32) Quad {
	return Quad{major: major, minor: minor, micro: micro, revision: revision}
}

// Scheme returns SchemeQuad.
func (q Quad) Scheme() Scheme { return SchemeQuad }

// Components returns the four components in order.
func (q Quad) Components() [4]uint32 {
	return [4]uint32{q.major, q.minor, q.micro, q.revision}
}

// String formats the version.
func (q Quad) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", q.major, q.minor, q.micro, q.revision)
}

// Compare implements Version. Panics if other is not a Quad.
func (q Quad) Compare(other Version) int {
	o, ok := other.(Quad)
	if !ok {
		panic(schemeMismatch(q, other))
	}
	a, b := q.Components(), o.Components()
	for i := 0; i < 4; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Bump implements Version. Micro maps to the third component; the revision
// component is preserved unchanged by every bump.
func (q Quad) Bump(spec BumpSpec) (Version, error) {
	const op = "version.Bump"

	switch spec.Kind() {
	case BumpMicro:
		return q.inc(2)
	case BumpMinor:
		return q.inc(1)
	case BumpMajor:
		return q.inc(0)
	case BumpForce:
		return applyForce(q, spec)
	case BumpDevMode:
		// The datecode is folded into the bounded components: year in
		// the second slot, month*100+day in the third.
		t := spec.now
		return Quad{
			major: 0,
			minor: uint32(t.Year()),
			micro: uint32(int(t.Month())*100 + t.Day()),
		}, nil
	default:
		return nil, jerrors.Newf(jerrors.KindVersion, "unsupported bump kind %q for quad", spec.Kind())
	}
}

func (q Quad) inc(idx int) (Version, error) {
	parts := q.Components()
	if parts[idx] >= QuadMax {
		return nil, jerrors.Newf(jerrors.KindVersion, "quad component %d at maximum value %d, cannot bump", idx, QuadMax)
	}
	parts[idx]++
	for i := idx + 1; i < 3; i++ {
		parts[i] = 0
	}
	// parts[3] (revision) intentionally untouched.
	return Quad{major: parts[0], minor: parts[1], micro: parts[2], revision: parts[3]}, nil
}
