// Package release implements the application use cases of the release
// pipeline: status reporting, changelog staging, release confirmation,
// version application, release commits, and tagging.
package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/felixgeelhaar/statekit"

	"github.com/jitrel/jitrel/internal/application/rewrite"
	"github.com/jitrel/jitrel/internal/config"
	"github.com/jitrel/jitrel/internal/domain/graph"
	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/release"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Session bundles the discovered repository state every use case operates
// on: the project registry, the release-branch history, and the ecosystem
// rewriters. A session is built once per invocation; the registry is
// read-only afterwards.
type Session struct {
	repo      sourcecontrol.Repository
	cfg       *config.Config
	rewriters *rewrite.Registry
	reg       *project.Registry
	history   *release.BranchHistory
	logger    *log.Logger
}

// NewSession discovers projects in the working tree, applies configured
// ignore overrides, and annotates every project with its most recent
// release from the release branch.
func NewSession(ctx context.Context, repo sourcecontrol.Repository, cfg *config.Config, rewriters *rewrite.Registry, logger *log.Logger) (*Session, error) {
	reg, err := rewrite.Discover(ctx, repo, rewriters, cfg.IgnoredProjects(), logger)
	if err != nil {
		return nil, err
	}

	history := release.NewBranchHistory(repo, cfg.Repo.ReleaseName, reg)
	if err := history.ApplyPriorReleases(ctx); err != nil {
		return nil, err
	}

	return &Session{
		repo:      repo,
		cfg:       cfg,
		rewriters: rewriters,
		reg:       reg,
		history:   history,
		logger:    logger,
	}, nil
}

// Registry returns the project registry.
func (s *Session) Registry() *project.Registry { return s.reg }

// History returns the release-branch history reader.
func (s *Session) History() *release.BranchHistory { return s.history }

// Repo returns the repository the session operates on.
func (s *Session) Repo() sourcecontrol.Repository { return s.repo }

// Config returns the loaded configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Toposorted returns the active projects in dependees-first order.
func (s *Session) Toposorted() ([]*project.Project, error) {
	g, err := graph.Build(s.reg)
	if err != nil {
		return nil, err
	}
	return g.Toposort()
}

// EnsureCleanTree checks that the working tree has no uncommitted changes.
// Changelog files may be exempted since staging necessarily dirties them.
// Force mode downgrades a dirty tree to a warning.
func (s *Session) EnsureCleanTree(ctx context.Context, allowChangelogs, force bool) error {
	const op = "release.Session.EnsureCleanTree"

	if !s.cfg.Workflow.RequireCleanWorkingTree {
		return nil
	}

	dirty, err := s.repo.DirtyPaths(ctx)
	if err != nil {
		return err
	}

	if allowChangelogs {
		exempt := make(map[string]bool, len(s.reg.All()))
		for _, p := range s.reg.All() {
			exempt[changelogRelPath(p)] = true
		}
		filtered := dirty[:0]
		for _, path := range dirty {
			if !exempt[path] {
				filtered = append(filtered, path)
			}
		}
		dirty = filtered
	}

	if len(dirty) == 0 {
		return nil
	}
	if force {
		s.logger.Warn("working tree is dirty, proceeding anyway",
			"paths", strings.Join(dirty, ", "))
		return nil
	}
	return jerrors.State(op,
		fmt.Sprintf("working tree has uncommitted changes (%s)", dirty[0])).
		WithDetail("paths", dirty)
}

// DeriveState infers the workflow position from repository evidence: the
// message of HEAD, the checked-out branch, and pending changelog stanzas.
// In-process interpreter state does not survive between invocations, so
// the pipeline is resumed from what the repository shows.
func (s *Session) DeriveState(ctx context.Context) (release.WorkflowState, error) {
	head, err := s.repo.Head(ctx)
	if err != nil {
		return "", err
	}
	message, err := s.repo.CommitMessage(ctx, head)
	if err != nil {
		return "", err
	}

	if _, err := release.ParseReleaseInfo(message); err == nil {
		return release.StateReleased, nil
	}

	branch, err := s.repo.CurrentBranch(ctx)
	if err == nil && branch == s.cfg.Repo.RCName {
		if _, err := release.ParseRequestInfo(message); err == nil {
			clean, err := s.repo.IsClean(ctx)
			if err != nil {
				return "", err
			}
			if clean {
				return release.StateRequested, nil
			}
			return release.StateVersionsApplied, nil
		}
	}

	for _, p := range s.reg.Active() {
		if _, _, ok, err := s.scanStanza(p); err != nil {
			return "", err
		} else if ok {
			return release.StateStaged, nil
		}
	}
	return release.StateDevelopment, nil
}

// checkTransition validates that the requested pipeline event is legal
// from the derived state. Force mode reduces a refusal to a warning.
func (s *Session) checkTransition(ctx context.Context, event statekit.EventType, force bool) error {
	state, err := s.DeriveState(ctx)
	if err != nil {
		return err
	}
	if err := release.ValidateTransition(state, event); err != nil {
		if force {
			s.logger.Warn("pipeline state check overridden", "state", state, "event", event)
			return nil
		}
		return err
	}
	return nil
}
