package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// BranchHistory reads release records off the release branch. Records are
// the authoritative version data: versions live in commit messages, not in
// the tree.
type BranchHistory struct {
	hist   sourcecontrol.HistoryReader
	branch string
	reg    *project.Registry

	loaded  bool
	records []*ReleaseInfo // newest first
}

// NewBranchHistory creates a history reader over the named release branch.
func NewBranchHistory(hist sourcecontrol.HistoryReader, branch string, reg *project.Registry) *BranchHistory {
	return &BranchHistory{hist: hist, branch: branch, reg: reg}
}

// Records returns every release record on the branch, newest first. A
// missing release branch yields an empty history, not an error: the first
// release of a repository starts from nothing.
func (h *BranchHistory) Records(ctx context.Context) ([]*ReleaseInfo, error) {
	const op = "release.BranchHistory.Records"

	if h.loaded {
		return h.records, nil
	}

	tip, err := h.hist.BranchHead(ctx, h.branch)
	if err != nil {
		if errors.Is(err, sourcecontrol.ErrBranchNotFound) {
			h.loaded = true
			return nil, nil
		}
		return nil, err
	}

	// Release commits form a first-parent chain: each merges the released
	// head as its second parent.
	for hash := tip; !hash.IsEmpty(); {
		commit, err := h.hist.GetCommit(ctx, hash)
		if err != nil {
			return nil, err
		}
		info, err := ParseReleaseInfo(commit.Message())
		if err != nil {
			if errors.Is(err, ErrNoInfoBlock) {
				return nil, jerrors.Parse(op,
					fmt.Sprintf("commit %s on branch %s carries no release info", hash.Short(), h.branch))
			}
			return nil, err
		}
		info.Commit = hash
		h.records = append(h.records, info)

		parents := commit.Parents()
		if len(parents) == 0 {
			break
		}
		hash = parents[0]
	}
	h.loaded = true
	return h.records, nil
}

// Latest returns the most recent release record, or nil when no release
// branch exists yet.
func (h *BranchHistory) Latest(ctx context.Context) (*ReleaseInfo, error) {
	records, err := h.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// ReleasesOf implements ReleaseHistory: the releases of a project in
// increasing version order. A release is a record entry with age zero; the
// release's source commit is the record's commit. Versions only move
// forward, so oldest-first chronological order is increasing version order.
func (h *BranchHistory) ReleasesOf(ctx context.Context, q project.QualifiedName) ([]project.PriorRelease, error) {
	const op = "release.BranchHistory.ReleasesOf"

	p, ok := h.reg.ByQualifiedName(q)
	if !ok {
		return nil, nil
	}

	records, err := h.Records(ctx)
	if err != nil {
		return nil, err
	}

	var releases []project.PriorRelease
	for i := len(records) - 1; i >= 0; i-- {
		entry := records[i].Lookup(q)
		if entry == nil || entry.Age != 0 {
			continue
		}
		v, err := version.Parse(p.Scheme(), entry.Version)
		if err != nil {
			return nil, jerrors.ParseWrap(err, op,
				fmt.Sprintf("release record for %s carries unparseable version %q", q, entry.Version))
		}
		releases = append(releases, project.PriorRelease{
			Version: v,
			Commit:  records[i].Commit,
		})
	}
	return releases, nil
}

// ApplyPriorReleases annotates every registry project with its most recent
// release from the latest record. Projects absent from the record are left
// unreleased.
func (h *BranchHistory) ApplyPriorReleases(ctx context.Context) error {
	const op = "release.BranchHistory.ApplyPriorReleases"

	latest, err := h.Latest(ctx)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	for _, p := range h.reg.All() {
		entry := latest.Lookup(p.QualifiedName())
		if entry == nil {
			continue
		}
		v, err := version.Parse(p.Scheme(), entry.Version)
		if err != nil {
			return jerrors.ParseWrap(err, op,
				fmt.Sprintf("release record for %s carries unparseable version %q",
					p.QualifiedName(), entry.Version))
		}

		// The version was assigned `age` release commits ago; walk back
		// to the record that introduced it so the prior-release commit
		// anchors relevance analysis correctly.
		commit := latest.Commit
		if entry.Age > 0 {
			records, err := h.Records(ctx)
			if err != nil {
				return err
			}
			if entry.Age >= len(records) {
				return jerrors.Parse(op,
					fmt.Sprintf("release record for %s claims age %d but branch %s has only %d release commits",
						p.QualifiedName(), entry.Age, h.branch, len(records))).
					WithDetail("project", p.QualifiedName().String()).
					WithDetail("age", entry.Age)
			}
			commit = records[entry.Age].Commit
		}

		p.SetPriorRelease(&project.PriorRelease{
			Version: v,
			Commit:  commit,
			Age:     entry.Age,
		})
	}
	return nil
}
