package release

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// RequestEntry pairs a project with the bump requested for it.
type RequestEntry struct {
	Project *project.Project
	Bump    version.BumpSpec
	// Notes is the changelog text staged for this release, if any.
	Notes string
}

// ReleaseRequest is an ordered set of projects to release together with
// their bump specifications. Order follows the dependency-aware processing
// order chosen by the caller.
type ReleaseRequest struct {
	id      uuid.UUID
	entries []RequestEntry
}

// NewReleaseRequest creates an empty request.
func NewReleaseRequest() *ReleaseRequest {
	return &ReleaseRequest{id: uuid.New()}
}

// ID returns the request's identifier, used for log correlation only.
func (r *ReleaseRequest) ID() uuid.UUID { return r.id }

// Add appends a project to the request. Adding the same project twice is a
// caller bug and replaces the earlier entry's bump.
func (r *ReleaseRequest) Add(p *project.Project, bump version.BumpSpec, notes string) {
	for i := range r.entries {
		if r.entries[i].Project.ID() == p.ID() {
			r.entries[i].Bump = bump
			r.entries[i].Notes = notes
			return
		}
	}
	r.entries = append(r.entries, RequestEntry{Project: p, Bump: bump, Notes: notes})
}

// Entries returns the request entries in insertion order.
func (r *ReleaseRequest) Entries() []RequestEntry { return r.entries }

// IsEmpty reports whether no project is requested.
func (r *ReleaseRequest) IsEmpty() bool { return len(r.entries) == 0 }

// Contains reports whether the project is part of the request.
func (r *ReleaseRequest) Contains(id project.ID) bool {
	for _, e := range r.entries {
		if e.Project.ID() == id {
			return true
		}
	}
	return false
}

// Lookup returns the entry for a project, or nil.
func (r *ReleaseRequest) Lookup(id project.ID) *RequestEntry {
	for i := range r.entries {
		if r.entries[i].Project.ID() == id {
			return &r.entries[i]
		}
	}
	return nil
}

// Wire converts the request to its commit-message form.
func (r *ReleaseRequest) Wire() *RequestInfo {
	info := &RequestInfo{}
	for _, e := range r.entries {
		info.Projects = append(info.Projects, RequestedProject{
			QNames:   wireQNames(e.Project.QualifiedName()),
			BumpSpec: e.Bump.String(),
		})
	}
	return info
}

// BindRequest reconstructs a domain request from its wire form, resolving
// project names against the registry and parsing bump specifications.
// Projects named in the wire data but absent from the registry are an
// error: the rc commit and the working tree must describe the same world.
func BindRequest(reg *project.Registry, info *RequestInfo) (*ReleaseRequest, error) {
	const op = "release.BindRequest"

	req := NewReleaseRequest()
	for _, wp := range info.Projects {
		q, err := wp.QualifiedName()
		if err != nil {
			return nil, err
		}
		p, ok := reg.ByQualifiedName(q)
		if !ok {
			return nil, jerrors.Dependency(op,
				fmt.Sprintf("release request names unknown project %s", q)).
				WithDetail("project", q.String())
		}
		bump, err := version.ParseBumpSpec(wp.BumpSpec)
		if err != nil {
			return nil, jerrors.ParseWrap(err, op,
				fmt.Sprintf("invalid bump specification for %s", q))
		}
		req.Add(p, bump, "")
	}
	return req, nil
}

// BuildReleaseInfo assembles the release record for a new release commit.
// Every tracked project appears: projects in released get age zero and
// their (already bumped) current version, the rest carry their prior
// version forward with age incremented. Never-released projects outside
// the batch are omitted, matching the record's meaning of "versions
// assigned as of this commit".
func BuildReleaseInfo(reg *project.Registry, released map[project.ID]bool) *ReleaseInfo {
	info := &ReleaseInfo{}
	for _, p := range reg.All() {
		entry := ReleasedProject{QNames: wireQNames(p.QualifiedName())}
		switch {
		case released[p.ID()]:
			entry.Version = p.CurrentVersion().String()
			entry.Age = 0
		case p.PriorRelease() != nil:
			entry.Version = p.PriorRelease().Version.String()
			entry.Age = p.PriorRelease().Age + 1
		default:
			continue
		}
		info.Projects = append(info.Projects, entry)
	}
	return info
}
