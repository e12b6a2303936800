package release

import (
	"context"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/release"
)

// StageInput selects the projects to stage for release. An empty Names
// stages every project with unreleased changes.
type StageInput struct {
	Names []string
	Force bool
}

// StageOutput reports what staging did.
type StageOutput struct {
	// Staged lists the projects whose changelogs received a stub stanza.
	Staged []string `json:"staged"`
	// Skipped lists explicitly named projects with no unreleased changes.
	// Naming an unreleasable project is a soft condition, not an error.
	Skipped []string `json:"skipped,omitempty"`
}

// StageUseCase writes stub release stanzas into the changelogs of projects
// planned for release.
type StageUseCase struct {
	session *Session
}

// NewStageUseCase creates the stage use case.
func NewStageUseCase(session *Session) *StageUseCase {
	return &StageUseCase{session: session}
}

// Execute stages the selected projects.
func (uc *StageUseCase) Execute(ctx context.Context, input StageInput) (*StageOutput, error) {
	s := uc.session

	if err := s.checkTransition(ctx, release.EventStage, input.Force); err != nil {
		return nil, err
	}
	if err := s.EnsureCleanTree(ctx, true, input.Force); err != nil {
		return nil, err
	}

	var selected []*project.Project
	explicit := len(input.Names) > 0
	if explicit {
		for _, name := range input.Names {
			p, err := s.reg.Resolve(name)
			if err != nil {
				return nil, err
			}
			selected = append(selected, p)
		}
	} else {
		selected = s.reg.Active()
	}

	head, err := s.repo.Head(ctx)
	if err != nil {
		return nil, err
	}

	out := &StageOutput{}
	for _, p := range selected {
		relevant, err := project.RelevantCommits(ctx, s.repo, s.reg, head, p)
		if err != nil {
			return nil, err
		}
		if len(relevant) == 0 {
			if explicit {
				s.logger.Warn("project has no unreleased changes", "project", p.QualifiedName())
				out.Skipped = append(out.Skipped, p.QualifiedName().String())
			}
			continue
		}
		if err := s.draftStanza(p, relevant); err != nil {
			return nil, err
		}
		s.logger.Info("staged project for release",
			"project", p.QualifiedName(), "commits", len(relevant))
		out.Staged = append(out.Staged, p.QualifiedName().String())
	}
	return out, nil
}
