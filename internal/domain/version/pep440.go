package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// PEP440 is a Python-style version: an optional epoch, dotted release
// segments, and optional ".devN" / ".postN" markers. This covers the subset
// of PEP 440 that setup.py-managed projects use in practice; local version
// labels and pre-release letters are not modeled.
type PEP440 struct {
	epoch   uint64
	release []uint64
	dev     *uint64
	post    *uint64
}

var pep440Regex = regexp.MustCompile(`^(?:(\d+)!)?(\d+(?:\.\d+)*)(?:\.post(\d+))?(?:\.dev(\d+))?$`)

// ParsePEP440 parses a Python-style version string.
func ParsePEP440(text string) (PEP440, error) {
	const op = "version.ParsePEP440"

	m := pep440Regex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return PEP440{}, jerrors.Parse(op, fmt.Sprintf("invalid pep440 version %q", text))
	}

	var v PEP440

	if m[1] != "" {
		epoch, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return PEP440{}, jerrors.ParseWrap(err, op, "invalid epoch")
		}
		v.epoch = epoch
	}

	for _, seg := range strings.Split(m[2], ".") {
		n, err := strconv.ParseUint(seg, 10, 64)
		if err != nil {
			return PEP440{}, jerrors.ParseWrap(err, op, fmt.Sprintf("invalid release segment %q", seg))
		}
		v.release = append(v.release, n)
	}

	if m[3] != "" {
		post, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil {
			return PEP440{}, jerrors.ParseWrap(err, op, "invalid post segment")
		}
		v.post = &post
	}

	if m[4] != "" {
		dev, err := strconv.ParseUint(m[4], 10, 64)
		if err != nil {
			return PEP440{}, jerrors.ParseWrap(err, op, "invalid dev segment")
		}
		v.dev = &dev
	}

	return v, nil
}

// NewPEP440 builds a version from release segments.
func NewPEP440(release ...uint64) PEP440 {
	return PEP440{release: append([]uint64(nil), release...)}
}

// Scheme returns SchemePEP440.
func (p PEP440) Scheme() Scheme { return SchemePEP440 }

// Release returns a copy of the release segments.
func (p PEP440) Release() []uint64 {
	return append([]uint64(nil), p.release...)
}

// IsDev returns true if this is a development version.
func (p PEP440) IsDev() bool { return p.dev != nil }

// String formats the version.
func (p PEP440) String() string {
	var sb strings.Builder
	if p.epoch > 0 {
		fmt.Fprintf(&sb, "%d!", p.epoch)
	}
	for i, seg := range p.release {
		if i > 0 {
			sb.WriteByte('.')
		}
		fmt.Fprintf(&sb, "%d", seg)
	}
	if p.post != nil {
		fmt.Fprintf(&sb, ".post%d", *p.post)
	}
	if p.dev != nil {
		fmt.Fprintf(&sb, ".dev%d", *p.dev)
	}
	return sb.String()
}

// Compare implements Version. Panics if other is not a PEP440.
//
// Ordering follows PEP 440 for the modeled subset: epoch, then release
// segments (shorter sequences padded with zeros), then dev (a dev version
// sorts below its base), then post (a post version sorts above its base).
func (p PEP440) Compare(other Version) int {
	o, ok := other.(PEP440)
	if !ok {
		panic(schemeMismatch(p, other))
	}

	if p.epoch != o.epoch {
		return cmpUint64(p.epoch, o.epoch)
	}

	n := len(p.release)
	if len(o.release) > n {
		n = len(o.release)
	}
	for i := 0; i < n; i++ {
		a, b := uint64(0), uint64(0)
		if i < len(p.release) {
			a = p.release[i]
		}
		if i < len(o.release) {
			b = o.release[i]
		}
		if a != b {
			return cmpUint64(a, b)
		}
	}

	// Same base release: dev < final < post.
	if c := cmpUint64(pepRank(p), pepRank(o)); c != 0 {
		return c
	}
	if p.dev != nil && o.dev != nil {
		return cmpUint64(*p.dev, *o.dev)
	}
	if p.post != nil && o.post != nil {
		return cmpUint64(*p.post, *o.post)
	}
	return 0
}

func pepRank(p PEP440) uint64 {
	switch {
	case p.dev != nil:
		return 0
	case p.post != nil:
		return 2
	default:
		return 1
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Bump implements Version. Component bumps operate on the first three
// release segments (padding with zeros as needed), zero lower-order
// segments, and clear dev/post markers.
func (p PEP440) Bump(spec BumpSpec) (Version, error) {
	switch spec.Kind() {
	case BumpMicro:
		return p.bumpComponent(2), nil
	case BumpMinor:
		return p.bumpComponent(1), nil
	case BumpMajor:
		return p.bumpComponent(0), nil
	case BumpForce:
		return applyForce(p, spec)
	case BumpDevMode:
		// Fresh identifier embedding the datecode; sorts below every
		// release because dev versions precede their base version.
		dev, err := strconv.ParseUint(spec.Datecode(), 10, 64)
		if err != nil {
			return nil, jerrors.Wrap(err, jerrors.KindInternal, "version.Bump", "building dev-mode identifier")
		}
		return PEP440{release: []uint64{0, 0, 0}, dev: &dev}, nil
	default:
		return nil, jerrors.Newf(jerrors.KindVersion, "unsupported bump kind %q for pep440", spec.Kind())
	}
}

func (p PEP440) bumpComponent(idx int) PEP440 {
	release := make([]uint64, len(p.release))
	copy(release, p.release)
	for len(release) <= idx {
		release = append(release, 0)
	}
	release[idx]++
	for i := idx + 1; i < len(release); i++ {
		release[i] = 0
	}
	return PEP440{epoch: p.epoch, release: release}
}
