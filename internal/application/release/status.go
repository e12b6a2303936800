package release

import (
	"context"

	"github.com/jitrel/jitrel/internal/domain/project"
)

// ProjectStatus is one project's line in the status report.
type ProjectStatus struct {
	QualifiedName string `json:"qualified_name"`
	Version       string `json:"version"`
	// RelevantCommits counts the commits since the project's last release
	// that touch its files.
	RelevantCommits int `json:"relevant_commits"`
	// Released is false for projects that have never been released.
	Released bool `json:"released"`
}

// StatusOutput is the status report, in dependency order.
type StatusOutput struct {
	Projects []ProjectStatus `json:"projects"`
}

// StatusUseCase reports each project's version and the amount of
// unreleased work sitting on top of it.
type StatusUseCase struct {
	session *Session
}

// NewStatusUseCase creates the status use case.
func NewStatusUseCase(session *Session) *StatusUseCase {
	return &StatusUseCase{session: session}
}

// Execute builds the status report.
func (uc *StatusUseCase) Execute(ctx context.Context) (*StatusOutput, error) {
	ordered, err := uc.session.Toposorted()
	if err != nil {
		return nil, err
	}

	head, err := uc.session.repo.Head(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{}
	for _, p := range ordered {
		relevant, err := project.RelevantCommits(ctx, uc.session.repo, uc.session.reg, head, p)
		if err != nil {
			return nil, err
		}
		out.Projects = append(out.Projects, ProjectStatus{
			QualifiedName:   p.QualifiedName().String(),
			Version:         p.CurrentVersion().String(),
			RelevantCommits: len(relevant),
			Released:        p.PriorRelease() != nil,
		})
	}
	return out, nil
}
