package release

import (
	"context"
	"errors"

	"github.com/jitrel/jitrel/internal/domain/release"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// ConfirmInput configures the confirm use case.
type ConfirmInput struct {
	Force bool
}

// ConfirmOutput reports the created release request.
type ConfirmOutput struct {
	// Requested lists the projects bound into the request, dependency
	// order.
	Requested []string `json:"requested"`
	// Commit is the rc commit carrying the request. Empty when nothing
	// was staged.
	Commit sourcecontrol.CommitHash `json:"commit,omitempty"`
}

// ConfirmUseCase turns pending changelog stanzas into a release request
// commit on the rc branch. Every check runs before the first ref write, so
// a failed confirm leaves the rc branch untouched.
type ConfirmUseCase struct {
	session *Session
}

// NewConfirmUseCase creates the confirm use case.
func NewConfirmUseCase(session *Session) *ConfirmUseCase {
	return &ConfirmUseCase{session: session}
}

// Execute scans stanzas, validates the request, and commits it.
func (uc *ConfirmUseCase) Execute(ctx context.Context, input ConfirmInput) (*ConfirmOutput, error) {
	s := uc.session

	if err := s.checkTransition(ctx, release.EventConfirm, input.Force); err != nil {
		return nil, err
	}
	if err := s.EnsureCleanTree(ctx, true, input.Force); err != nil {
		return nil, err
	}

	// Toposort both validates acyclicity and fixes the request order.
	ordered, err := s.Toposorted()
	if err != nil {
		return nil, err
	}

	req := release.NewReleaseRequest()
	var paths []string
	for _, p := range ordered {
		spec, notes, ok, err := s.scanStanza(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bump, err := version.ParseBumpSpec(spec)
		if err != nil {
			return nil, jerrors.ParseWrap(err, "release.Confirm",
				"invalid bump specification in changelog for "+p.QualifiedName().String())
		}
		req.Add(p, bump, notes)
		paths = append(paths, changelogRelPath(p))
	}

	if req.IsEmpty() {
		s.logger.Info("no releases staged; nothing to confirm")
		return &ConfirmOutput{}, nil
	}

	resolver := release.NewResolver(s.repo, s.history)
	set, err := resolver.Resolve(ctx, s.reg, req)
	if err != nil {
		return nil, err
	}
	if err := set.Err(); err != nil {
		return nil, err
	}

	message, err := release.RenderRequestMessage(req.Wire())
	if err != nil {
		return nil, err
	}

	head, err := s.repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	parents := []sourcecontrol.CommitHash{head}
	if rcTip, err := s.repo.BranchHead(ctx, s.cfg.Repo.RCName); err == nil {
		parents = []sourcecontrol.CommitHash{rcTip, head}
	} else if !errors.Is(err, sourcecontrol.ErrBranchNotFound) {
		return nil, err
	}

	hash, err := s.repo.CreateCommit(ctx, sourcecontrol.CommitOptions{
		Branch:  s.cfg.Repo.RCName,
		Message: message,
		Parents: parents,
		Paths:   paths,
	})
	if err != nil {
		return nil, err
	}

	out := &ConfirmOutput{Commit: hash}
	for _, e := range req.Entries() {
		out.Requested = append(out.Requested, e.Project.QualifiedName().String())
		s.logger.Info("release requested",
			"project", e.Project.QualifiedName(), "bump", e.Bump)
	}
	s.logger.Info("staged release request", "branch", s.cfg.Repo.RCName, "commit", hash.Short())
	return out, nil
}
