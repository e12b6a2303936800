package release

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// ReleaseHistory lists the known releases of a project, ordered by
// increasing version.
type ReleaseHistory interface {
	ReleasesOf(ctx context.Context, q project.QualifiedName) ([]project.PriorRelease, error)
}

// ResolutionStatus classifies the outcome of resolving one dependency.
type ResolutionStatus int

const (
	// StatusResolved means an existing release satisfies the requirement.
	StatusResolved ResolutionStatus = iota
	// StatusSatisfiedByBatch means no existing release satisfies the
	// requirement but the dependee is being released in the same batch,
	// so its new version will.
	StatusSatisfiedByBatch
	// StatusUnsatisfied means no existing release satisfies the
	// requirement and the dependee is not in the batch. The release
	// cannot proceed.
	StatusUnsatisfied
	// StatusManual means the requirement is a user-specified literal and
	// was accepted as-is.
	StatusManual
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusSatisfiedByBatch:
		return "satisfied-by-batch"
	case StatusUnsatisfied:
		return "unsatisfied"
	case StatusManual:
		return "manual"
	default:
		return "unknown"
	}
}

// ResolvedDep is the resolution of a single dependency edge.
type ResolvedDep struct {
	Depender *project.Project
	Dep      project.Dependency
	Status   ResolutionStatus
	// Version is the minimal satisfying released version for
	// StatusResolved, and the newly assigned dependee version for
	// StatusSatisfiedByBatch once Complete has run. Nil otherwise.
	Version version.Version
	// Manual is the literal requirement text for StatusManual.
	Manual string
}

// ResolutionSet holds the resolution of every internal dependency of every
// active project, keyed by depender.
type ResolutionSet struct {
	byProject map[project.ID][]ResolvedDep
}

// For returns the resolutions of the given depender.
func (s *ResolutionSet) For(id project.ID) []ResolvedDep {
	return s.byProject[id]
}

// Unsatisfied returns every unsatisfied resolution.
func (s *ResolutionSet) Unsatisfied() []ResolvedDep {
	var out []ResolvedDep
	for _, deps := range s.byProject {
		for _, d := range deps {
			if d.Status == StatusUnsatisfied {
				out = append(out, d)
			}
		}
	}
	return out
}

// Err returns a dependency error enumerating every unsatisfied requirement,
// or nil when the set is fully satisfiable.
func (s *ResolutionSet) Err() error {
	const op = "release.ResolutionSet"

	unsat := s.Unsatisfied()
	if len(unsat) == 0 {
		return nil
	}
	var msgs []string
	for _, d := range unsat {
		msgs = append(msgs, fmt.Sprintf("%s requires %s at commit %s",
			d.Depender.QualifiedName(), d.Dep.Dependee, d.Dep.Req.Commit.Short()))
	}
	sort.Strings(msgs)
	return jerrors.Dependency(op,
		"unsatisfied internal dependencies: "+strings.Join(msgs, "; ")).
		WithDetail("count", len(unsat))
}

// Complete fills in the versions of batch-satisfied resolutions after new
// versions have been assigned. Every StatusSatisfiedByBatch dependee must
// appear in assigned.
func (s *ResolutionSet) Complete(reg *project.Registry, assigned map[project.ID]version.Version) error {
	const op = "release.ResolutionSet.Complete"

	for id, deps := range s.byProject {
		for i := range deps {
			if deps[i].Status != StatusSatisfiedByBatch {
				continue
			}
			dependee, ok := reg.ByQualifiedName(deps[i].Dep.Dependee)
			if !ok {
				return jerrors.Internal(op,
					fmt.Sprintf("resolution references unknown project %s", deps[i].Dep.Dependee))
			}
			v, ok := assigned[dependee.ID()]
			if !ok {
				return jerrors.Internal(op,
					fmt.Sprintf("no version assigned for batch member %s", deps[i].Dep.Dependee))
			}
			deps[i].Version = v
		}
		s.byProject[id] = deps
	}
	return nil
}

// Resolver resolves commit-anchored internal dependencies against the
// release history.
type Resolver struct {
	hist    sourcecontrol.HistoryReader
	history ReleaseHistory
}

// NewResolver creates a resolver over the given history sources.
func NewResolver(hist sourcecontrol.HistoryReader, history ReleaseHistory) *Resolver {
	return &Resolver{hist: hist, history: history}
}

// Resolve performs the first resolution phase for every active project in
// the registry. Dependencies of projects inside the batch that cannot be
// met by an existing release are deferred to the batch when the dependee is
// also in it; everything else unsatisfiable is marked unsatisfied. The
// returned set's Err method reports whether the batch can proceed.
func (r *Resolver) Resolve(ctx context.Context, reg *project.Registry, req *ReleaseRequest) (*ResolutionSet, error) {
	set := &ResolutionSet{byProject: make(map[project.ID][]ResolvedDep)}

	for _, p := range reg.Active() {
		for _, dep := range p.Dependencies() {
			resolved, err := r.resolveOne(ctx, reg, req, p, dep)
			if err != nil {
				return nil, err
			}
			set.byProject[p.ID()] = append(set.byProject[p.ID()], resolved)
		}
	}
	return set, nil
}

func (r *Resolver) resolveOne(ctx context.Context, reg *project.Registry, req *ReleaseRequest, p *project.Project, dep project.Dependency) (ResolvedDep, error) {
	const op = "release.Resolver.resolveOne"

	out := ResolvedDep{Depender: p, Dep: dep}

	if !dep.Req.IsCommit() {
		out.Status = StatusManual
		out.Manual = dep.Req.Manual
		return out, nil
	}

	dependee, ok := reg.ByQualifiedName(dep.Dependee)
	if !ok {
		return out, jerrors.Dependency(op,
			fmt.Sprintf("%s depends on unknown project %s", p.QualifiedName(), dep.Dependee))
	}

	releases, err := r.history.ReleasesOf(ctx, dep.Dependee)
	if err != nil {
		return out, err
	}

	// Releases arrive in increasing version order, so the first release
	// cut at or after the required commit is the minimal satisfying one.
	for _, rel := range releases {
		ok, err := r.hist.IsAncestor(ctx, dep.Req.Commit, rel.Commit)
		if err != nil {
			return out, err
		}
		if ok {
			out.Status = StatusResolved
			out.Version = rel.Version
			return out, nil
		}
	}

	if req != nil && req.Contains(dependee.ID()) {
		out.Status = StatusSatisfiedByBatch
		return out, nil
	}
	out.Status = StatusUnsatisfied
	return out, nil
}
