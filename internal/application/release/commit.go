package release

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/release"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// CommitReleaseInput configures the release commit.
type CommitReleaseInput struct {
	Force bool
}

// CommitReleaseOutput reports the created release commit.
type CommitReleaseOutput struct {
	Commit sourcecontrol.CommitHash `json:"commit"`
	// Released lists the projects whose versions were assigned in this
	// commit.
	Released []string `json:"released"`
}

// CommitReleaseUseCase merges the rewritten working tree into the release
// branch. The commit's message carries the release record; its parents are
// the previous release commit, if any, and the released source HEAD. HEAD
// moves to the release branch afterwards so tagging operates on the new
// commit.
type CommitReleaseUseCase struct {
	session *Session
}

// NewCommitReleaseUseCase creates the commit use case.
func NewCommitReleaseUseCase(session *Session) *CommitReleaseUseCase {
	return &CommitReleaseUseCase{session: session}
}

// Execute creates the release commit. Everything is validated before the
// first ref write.
func (uc *CommitReleaseUseCase) Execute(ctx context.Context, input CommitReleaseInput) (*CommitReleaseOutput, error) {
	const op = "release.CommitRelease"
	s := uc.session

	if err := s.checkTransition(ctx, release.EventCommit, input.Force); err != nil {
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
	reqInfo, err := release.ParseRequestInfo(message)
	if err != nil {
		if errors.Is(err, release.ErrNoInfoBlock) {
			return nil, jerrors.State(op,
				"HEAD carries no release request; release commits are cut from the rc branch")
		}
		return nil, err
	}
	req, err := release.BindRequest(s.reg, reqInfo)
	if err != nil {
		return nil, err
	}

	released := make(map[project.ID]bool, len(req.Entries()))
	for _, e := range req.Entries() {
		released[e.Project.ID()] = true
	}

	info := release.BuildReleaseInfo(s.reg, released)
	commitMessage, err := release.RenderReleaseMessage(info)
	if err != nil {
		return nil, err
	}

	paths, err := uc.stagedPaths(req)
	if err != nil {
		return nil, err
	}

	parents := []sourcecontrol.CommitHash{head}
	if relTip, err := s.repo.BranchHead(ctx, s.cfg.Repo.ReleaseName); err == nil {
		parents = []sourcecontrol.CommitHash{relTip, head}
	} else if !errors.Is(err, sourcecontrol.ErrBranchNotFound) {
		return nil, err
	}

	hash, err := s.repo.CreateCommit(ctx, sourcecontrol.CommitOptions{
		Branch:     s.cfg.Repo.ReleaseName,
		Message:    commitMessage,
		Parents:    parents,
		Paths:      paths,
		SwitchHead: true,
	})
	if err != nil {
		return nil, err
	}

	out := &CommitReleaseOutput{Commit: hash}
	for _, e := range req.Entries() {
		out.Released = append(out.Released, e.Project.QualifiedName().String())
	}
	s.logger.Info("created release commit",
		"branch", s.cfg.Repo.ReleaseName, "commit", hash.Short(), "projects", len(out.Released))
	return out, nil
}

// stagedPaths collects the metadata files the rewriters maintain for every
// active project plus the changelogs of requested projects, filtered to
// files actually present.
func (uc *CommitReleaseUseCase) stagedPaths(req *release.ReleaseRequest) ([]string, error) {
	const op = "release.stagedPaths"
	s := uc.session

	var candidates []string
	for _, p := range s.reg.Active() {
		rw, ok := s.rewriters.ByEcosystem(p.QualifiedName().Ecosystem)
		if !ok {
			return nil, jerrors.Internal(op,
				"no rewriter for ecosystem "+p.QualifiedName().Ecosystem)
		}
		candidates = append(candidates, rw.Files(p.Prefix())...)
	}
	for _, e := range req.Entries() {
		candidates = append(candidates, changelogRelPath(e.Project))
	}

	var paths []string
	seen := make(map[string]bool, len(candidates))
	for _, rel := range candidates {
		if seen[rel] {
			continue
		}
		seen[rel] = true
		if _, err := os.Stat(filepath.Join(s.repo.Root(), filepath.FromSlash(rel))); err == nil {
			paths = append(paths, rel)
		}
	}
	return paths, nil
}
