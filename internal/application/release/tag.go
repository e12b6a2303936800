package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/jitrel/jitrel/internal/domain/release"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// TagReleaseInput configures tagging.
type TagReleaseInput struct {
	Force bool
}

// TagReleaseOutput lists the created tags.
type TagReleaseOutput struct {
	Tags []string `json:"tags"`
}

// TagReleaseUseCase creates one annotated tag per project released in the
// release commit at HEAD, named per the configured tag format.
type TagReleaseUseCase struct {
	session *Session
}

// NewTagReleaseUseCase creates the tag use case.
func NewTagReleaseUseCase(session *Session) *TagReleaseUseCase {
	return &TagReleaseUseCase{session: session}
}

// Execute tags the release at HEAD.
func (uc *TagReleaseUseCase) Execute(ctx context.Context, input TagReleaseInput) (*TagReleaseOutput, error) {
	const op = "release.TagRelease"
	s := uc.session

	if err := s.checkTransition(ctx, release.EventTag, input.Force); err != nil {
		return nil, err
	}

	head, err := s.repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	message, err := s.repo.CommitMessage(ctx, head)
	if err != nil {
		return nil, err
	}
	info, err := release.ParseReleaseInfo(message)
	if err != nil {
		if errors.Is(err, release.ErrNoInfoBlock) {
			return nil, jerrors.State(op,
				"HEAD is not a release commit; tags are created on the release branch")
		}
		return nil, err
	}

	out := &TagReleaseOutput{}
	for _, entry := range info.Projects {
		if entry.Age != 0 {
			continue
		}
		q, err := entry.QualifiedName()
		if err != nil {
			return nil, err
		}
		name := s.cfg.FormatTagName(q.Slug(), entry.Version)
		tagMessage := fmt.Sprintf("%s version %s", q, entry.Version)
		if err := s.repo.CreateTag(ctx, name, head, tagMessage); err != nil {
			return nil, err
		}
		s.logger.Info("created release tag", "tag", name, "project", q)
		out.Tags = append(out.Tags, name)
	}
	return out, nil
}
