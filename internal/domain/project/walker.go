package project

import (
	"context"

	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// RelevantCommits returns the non-merge commits reachable from tip, newer
// than the project's last release, whose changed paths are attributed to the
// project under longest-prefix ownership. The reference point is the
// project's prior release commit, or the repository root if it has never
// been released.
func RelevantCommits(ctx context.Context, h sourcecontrol.HistoryReader, reg *Registry, tip sourcecontrol.CommitHash, p *Project) ([]*sourcecontrol.Commit, error) {
	const op = "project.RelevantCommits"

	var since sourcecontrol.CommitHash
	if prior := p.PriorRelease(); prior != nil {
		since = prior.Commit
	}

	commits, err := h.CommitsSince(ctx, tip, since)
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "walking history").
			WithDetail("project", p.QualifiedName().String())
	}

	var relevant []*sourcecontrol.Commit
	for _, c := range commits {
		if _, owns := reg.OwningProjects(c)[p.ID()]; owns {
			relevant = append(relevant, c)
		}
	}
	return relevant, nil
}
