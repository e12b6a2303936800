package release

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/release"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// ApplyVersionsInput configures version application.
type ApplyVersionsInput struct {
	Force bool
	// Now is the timestamp used for dev-mode datecodes and changelog
	// release dates. Zero means the current time.
	Now time.Time
}

// ApplyVersionsOutput reports the assigned versions and mutated files.
type ApplyVersionsOutput struct {
	// Versions maps qualified names to assigned version texts. In rc mode
	// only requested projects get new versions; the rest are pinned at
	// their released versions.
	Versions map[string]string `json:"versions"`
	// ChangedPaths lists the repository-relative files the rewriters and
	// changelog finalization touched.
	ChangedPaths []string `json:"changed_paths"`
	// DevMode is true when versions were synthesized rather than read
	// from a release request.
	DevMode bool `json:"dev_mode"`
}

// ApplyVersionsUseCase computes new version numbers and writes them, plus
// resolved internal dependency requirements, into project metadata files.
// On the rc branch the bumps come from the request in HEAD's message;
// anywhere else every project gets a development placeholder. The
// operation only rewrites files, so rerunning it converges.
type ApplyVersionsUseCase struct {
	session *Session
}

// NewApplyVersionsUseCase creates the apply-versions use case.
func NewApplyVersionsUseCase(session *Session) *ApplyVersionsUseCase {
	return &ApplyVersionsUseCase{session: session}
}

// Execute applies versions per the current mode.
func (uc *ApplyVersionsUseCase) Execute(ctx context.Context, input ApplyVersionsInput) (*ApplyVersionsOutput, error) {
	s := uc.session
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	req, devMode, err := uc.loadRequest(ctx, now)
	if err != nil {
		return nil, err
	}
	if !devMode {
		if err := s.checkTransition(ctx, release.EventApplyVersions, input.Force); err != nil {
			return nil, err
		}
		s.logger.Info("computing new versions from release request data")
	} else {
		s.logger.Info("computing new versions assuming development mode")
	}

	resolver := release.NewResolver(s.repo, s.history)
	set, err := resolver.Resolve(ctx, s.reg, req)
	if err != nil {
		return nil, err
	}
	if err := set.Err(); err != nil {
		return nil, err
	}

	ordered, err := s.Toposorted()
	if err != nil {
		return nil, err
	}

	// Assign versions dependees-first so batch members can reference the
	// new versions of their dependencies.
	assigned := make(map[project.ID]version.Version)
	out := &ApplyVersionsOutput{Versions: make(map[string]string), DevMode: devMode}
	for _, p := range ordered {
		baseline := zeroVersion(p.Scheme())
		if prior := p.PriorRelease(); prior != nil {
			baseline = prior.Version
		}

		entry := req.Lookup(p.ID())
		if entry == nil {
			p.SetCurrentVersion(baseline)
			s.logger.Info("version unchanged", "project", p.QualifiedName(), "version", baseline)
			continue
		}

		next, err := baseline.Bump(entry.Bump)
		if err != nil {
			return nil, err
		}
		p.SetCurrentVersion(next)
		assigned[p.ID()] = next
		out.Versions[p.QualifiedName().String()] = next.String()
		s.logger.Info("version assigned",
			"project", p.QualifiedName(), "old", baseline, "new", next)
	}

	if err := set.Complete(s.reg, assigned); err != nil {
		return nil, err
	}

	changed, err := uc.rewriteMetadata(ctx, ordered, set)
	if err != nil {
		return nil, err
	}
	out.ChangedPaths = changed

	if !devMode {
		for _, e := range req.Entries() {
			done, err := s.finalizeStanza(e.Project, now)
			if err != nil {
				return nil, err
			}
			if done {
				out.ChangedPaths = append(out.ChangedPaths, changelogRelPath(e.Project))
			}
		}
	}
	return out, nil
}

// loadRequest reads the release request from the rc HEAD, or synthesizes a
// dev-mode request covering every active project.
func (uc *ApplyVersionsUseCase) loadRequest(ctx context.Context, now time.Time) (*release.ReleaseRequest, bool, error) {
	s := uc.session

	branch, err := s.repo.CurrentBranch(ctx)
	if err == nil && branch == s.cfg.Repo.RCName {
		head, err := s.repo.Head(ctx)
		if err != nil {
			return nil, false, err
		}
		message, err := s.repo.CommitMessage(ctx, head)
		if err != nil {
			return nil, false, err
		}
		info, err := release.ParseRequestInfo(message)
		if err == nil {
			req, err := release.BindRequest(s.reg, info)
			if err != nil {
				return nil, false, err
			}
			return req, false, nil
		}
		if !errors.Is(err, release.ErrNoInfoBlock) {
			return nil, false, err
		}
	}

	req := release.NewReleaseRequest()
	for _, p := range s.reg.Active() {
		req.Add(p, version.DevModeBump(now), "")
	}
	return req, true, nil
}

// rewriteMetadata hands the assigned versions and resolved dependency
// requirements to the ecosystem rewriters.
func (uc *ApplyVersionsUseCase) rewriteMetadata(ctx context.Context, ordered []*project.Project, set *release.ResolutionSet) ([]string, error) {
	const op = "release.rewriteMetadata"
	s := uc.session

	var changed []string
	for _, p := range ordered {
		rw, ok := s.rewriters.ByEcosystem(p.QualifiedName().Ecosystem)
		if !ok {
			return nil, jerrors.Internal(op,
				"no rewriter for ecosystem "+p.QualifiedName().Ecosystem)
		}
		dir := filepath.Join(s.repo.Root(), filepath.FromSlash(p.Prefix()))

		if err := rw.WriteVersion(ctx, dir, p.CurrentVersion()); err != nil {
			return nil, err
		}
		for _, res := range set.For(p.ID()) {
			switch res.Status {
			case release.StatusResolved, release.StatusSatisfiedByBatch:
				if err := rw.WriteDepRequirement(ctx, dir, res.Dep.Dependee.Name, res.Version); err != nil {
					return nil, err
				}
			case release.StatusManual:
				// The literal requirement already in the file stands.
			}
		}
		changed = append(changed, rw.Files(p.Prefix())...)
	}
	return changed, nil
}

func zeroVersion(scheme version.Scheme) version.Version {
	switch scheme {
	case version.SchemeQuad:
		return version.MustParse(scheme, "0.0.0.0")
	default:
		return version.MustParse(scheme, "0.0.0")
	}
}
