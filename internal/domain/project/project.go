// Package project provides the registry of versioned projects discovered in
// a repository, path-prefix ownership, and the commit-anchored internal
// dependency model.
package project

import (
	"fmt"
	"strings"

	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// ID is an internal, unique identifier for a project within one process
// invocation. IDs are not persisted and carry no semantics beyond cheap
// equality.
type ID int

// QualifiedName is a globally unique project name: an ecosystem tag plus the
// ecosystem-local name, e.g. "npm:@scope/pkg".
type QualifiedName struct {
	Ecosystem string
	Name      string
}

// ParseQualifiedName parses "ecosystem:name" syntax.
func ParseQualifiedName(s string) (QualifiedName, error) {
	const op = "project.ParseQualifiedName"

	idx := strings.Index(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return QualifiedName{}, jerrors.Parse(op, fmt.Sprintf("invalid qualified name %q (want ecosystem:name)", s))
	}
	return QualifiedName{Ecosystem: s[:idx], Name: s[idx+1:]}, nil
}

// String returns the "ecosystem:name" form.
func (q QualifiedName) String() string {
	return q.Ecosystem + ":" + q.Name
}

// Slug returns a form usable inside tag names: the local name with path
// separators flattened.
func (q QualifiedName) Slug() string {
	return strings.ReplaceAll(strings.TrimPrefix(q.Name, "@"), "/", "-")
}

// DepRequirement expresses what a depender requires of a dependee.
type DepRequirement struct {
	// Commit anchors the requirement: the depender needs a release of
	// the dependee cut at this commit or a descendant of it. Empty if
	// the requirement is manual.
	Commit sourcecontrol.CommitHash
	// Manual is a user-specified literal requirement, supported for
	// bootstrapping. Empty if the requirement is commit-anchored.
	Manual string
}

// IsCommit returns true for commit-anchored requirements.
func (r DepRequirement) IsCommit() bool { return !r.Commit.IsEmpty() }

// Dependency is an internal dependency edge from the owning project to
// Dependee.
type Dependency struct {
	// Dependee names the project depended upon.
	Dependee QualifiedName
	// Literal is the requirement text currently present in the package
	// metadata file; on the main branch this is a dev placeholder such
	// as "0.0.0-dev.0" so everyday builds work.
	Literal string
	// Req is the logical requirement.
	Req DepRequirement
}

// PriorRelease records the most recent release of a project as read from
// the release branch.
type PriorRelease struct {
	// Version is the released version.
	Version version.Version
	// Commit is the release commit the version was assigned in.
	Commit sourcecontrol.CommitHash
	// Age is the number of consecutive release commits carrying this
	// version. Zero means the version was first released in Commit.
	Age int
}

// Project is a versioned deliverable rooted at a repository path prefix.
// Projects are created during autodetection and are read-only for the rest
// of the invocation; they are never deleted, only marked ignored.
type Project struct {
	id      ID
	qname   QualifiedName
	prefix  string
	scheme  version.Scheme
	current version.Version
	ignored bool
	deps    []Dependency
	prior   *PriorRelease
}

// NewProject creates a project rooted at prefix. The prefix is
// repository-relative; empty means the repository root, anything else is
// normalized to end with "/".
func NewProject(qname QualifiedName, prefix string, scheme version.Scheme, current version.Version) *Project {
	return &Project{
		qname:   qname,
		prefix:  normalizePrefix(prefix),
		scheme:  scheme,
		current: current,
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimPrefix(prefix, "./")
	if prefix == "" || prefix == "." {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// ID returns the in-process identifier, assigned when the project is added
// to a Registry.
func (p *Project) ID() ID { return p.id }

// QualifiedName returns the project's globally unique name.
func (p *Project) QualifiedName() QualifiedName { return p.qname }

// Prefix returns the project's repository prefix ("" for the root).
func (p *Project) Prefix() string { return p.prefix }

// Scheme returns the versioning scheme, fixed at autodetection.
func (p *Project) Scheme() version.Scheme { return p.scheme }

// CurrentVersion returns the version currently written in the project's
// metadata files.
func (p *Project) CurrentVersion() version.Version { return p.current }

// SetCurrentVersion replaces the in-memory version, typically after a bump
// has been computed during version application. Rewriters persist it.
func (p *Project) SetCurrentVersion(v version.Version) { p.current = v }

// Ignored reports whether the project is excluded from release handling.
func (p *Project) Ignored() bool { return p.ignored }

// SetIgnored marks the project ignored. Central-config overrides always win
// over loader autodetection.
func (p *Project) SetIgnored(ignored bool) { p.ignored = ignored }

// Dependencies returns the project's internal dependency edges.
func (p *Project) Dependencies() []Dependency { return p.deps }

// AddDependency appends an internal dependency edge.
func (p *Project) AddDependency(dep Dependency) {
	p.deps = append(p.deps, dep)
}

// PriorRelease returns the most recent release of this project, or nil if
// it has never been released.
func (p *Project) PriorRelease() *PriorRelease { return p.prior }

// SetPriorRelease records the most recent release.
func (p *Project) SetPriorRelease(prior *PriorRelease) { p.prior = prior }

// Owns reports whether the given repository-relative path falls under this
// project's prefix. The registry applies longest-prefix disambiguation on
// top of this.
func (p *Project) Owns(path string) bool {
	return strings.HasPrefix(path, p.prefix)
}
