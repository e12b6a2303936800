package release

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// fakeHistory serves canned release lists keyed by qualified name.
type fakeHistory struct {
	releases map[project.QualifiedName][]project.PriorRelease
}

func (f *fakeHistory) ReleasesOf(_ context.Context, q project.QualifiedName) ([]project.PriorRelease, error) {
	return f.releases[q], nil
}

func semver(t *testing.T, s string) version.Version {
	t.Helper()
	return version.MustParse(version.SchemeSemver, s)
}

func TestResolveMinimalSatisfyingRelease(t *testing.T) {
	ctx := context.Background()
	repo := sourcecontrol.NewMemRepo("main")
	c1 := repo.AddCommit("main", "lib: add feature", "crates/foo_lib/src/lib.rs")
	c2 := repo.AddCommit("main", "lib: fix bug", "crates/foo_lib/src/lib.rs")
	c3 := repo.AddCommit("main", "lib: another fix", "crates/foo_lib/src/lib.rs")

	reg := project.NewRegistry()
	lib := newTestProject(t, reg, "cargo:foo_lib", "crates/foo_lib", "1.2.0")
	cli := newTestProject(t, reg, "cargo:foo_cli", "crates/foo_cli", "0.3.0")
	cli.AddDependency(project.Dependency{
		Dependee: lib.QualifiedName(),
		Req:      project.DepRequirement{Commit: c2},
	})

	// 1.0.0 predates the requirement, 1.1.0 is the minimal satisfying
	// release, 1.2.0 also satisfies but is not minimal.
	hist := &fakeHistory{releases: map[project.QualifiedName][]project.PriorRelease{
		lib.QualifiedName(): {
			{Version: semver(t, "1.0.0"), Commit: c1},
			{Version: semver(t, "1.1.0"), Commit: c2},
			{Version: semver(t, "1.2.0"), Commit: c3},
		},
	}}

	set, err := NewResolver(repo, hist).Resolve(ctx, reg, nil)
	require.NoError(t, err)
	require.NoError(t, set.Err())

	deps := set.For(cli.ID())
	require.Len(t, deps, 1)
	assert.Equal(t, StatusResolved, deps[0].Status)
	assert.Equal(t, "1.1.0", deps[0].Version.String())
}

func TestResolveSatisfiedByBatch(t *testing.T) {
	ctx := context.Background()
	repo := sourcecontrol.NewMemRepo("main")
	c1 := repo.AddCommit("main", "lib: initial", "lib/src.rs")
	c2 := repo.AddCommit("main", "lib: new api", "lib/src.rs")

	reg := project.NewRegistry()
	lib := newTestProject(t, reg, "cargo:lib", "lib", "1.0.0")
	app := newTestProject(t, reg, "cargo:app", "app", "0.1.0")
	app.AddDependency(project.Dependency{
		Dependee: lib.QualifiedName(),
		Req:      project.DepRequirement{Commit: c2},
	})

	hist := &fakeHistory{releases: map[project.QualifiedName][]project.PriorRelease{
		lib.QualifiedName(): {{Version: semver(t, "1.0.0"), Commit: c1}},
	}}

	req := NewReleaseRequest()
	req.Add(lib, version.MinorBump(), "")
	req.Add(app, version.MicroBump(), "")

	set, err := NewResolver(repo, hist).Resolve(ctx, reg, req)
	require.NoError(t, err)
	require.NoError(t, set.Err())

	deps := set.For(app.ID())
	require.Len(t, deps, 1)
	assert.Equal(t, StatusSatisfiedByBatch, deps[0].Status)
	assert.Nil(t, deps[0].Version)

	// Second phase: new versions assigned, resolution completed.
	newLib := semver(t, "1.1.0")
	require.NoError(t, set.Complete(reg, map[project.ID]version.Version{lib.ID(): newLib}))
	deps = set.For(app.ID())
	require.NotNil(t, deps[0].Version)
	assert.Equal(t, "1.1.0", deps[0].Version.String())
}

func TestResolveUnsatisfied(t *testing.T) {
	ctx := context.Background()
	repo := sourcecontrol.NewMemRepo("main")
	c1 := repo.AddCommit("main", "lib: initial", "lib/src.rs")
	c2 := repo.AddCommit("main", "lib: new api", "lib/src.rs")

	reg := project.NewRegistry()
	lib := newTestProject(t, reg, "cargo:lib", "lib", "1.0.0")
	app := newTestProject(t, reg, "cargo:app", "app", "0.1.0")
	app.AddDependency(project.Dependency{
		Dependee: lib.QualifiedName(),
		Req:      project.DepRequirement{Commit: c2},
	})

	hist := &fakeHistory{releases: map[project.QualifiedName][]project.PriorRelease{
		lib.QualifiedName(): {{Version: semver(t, "1.0.0"), Commit: c1}},
	}}

	// Only app is in the batch; lib is not, so nothing can satisfy the
	// requirement on c2.
	req := NewReleaseRequest()
	req.Add(app, version.MicroBump(), "")

	set, err := NewResolver(repo, hist).Resolve(ctx, reg, req)
	require.NoError(t, err)

	err = set.Err()
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindDependency))
	assert.Contains(t, err.Error(), "cargo:app requires cargo:lib")
	require.Len(t, set.Unsatisfied(), 1)
}

func TestResolveManualRequirement(t *testing.T) {
	ctx := context.Background()
	repo := sourcecontrol.NewMemRepo("main")

	reg := project.NewRegistry()
	lib := newTestProject(t, reg, "cargo:lib", "lib", "1.0.0")
	app := newTestProject(t, reg, "cargo:app", "app", "0.1.0")
	app.AddDependency(project.Dependency{
		Dependee: lib.QualifiedName(),
		Req:      project.DepRequirement{Manual: "^1.0"},
	})

	set, err := NewResolver(repo, &fakeHistory{}).Resolve(ctx, reg, nil)
	require.NoError(t, err)
	require.NoError(t, set.Err())

	deps := set.For(app.ID())
	require.Len(t, deps, 1)
	assert.Equal(t, StatusManual, deps[0].Status)
	assert.Equal(t, "^1.0", deps[0].Manual)
}

func TestResolveRequirementOnUnreleasedCommitLine(t *testing.T) {
	ctx := context.Background()
	repo := sourcecontrol.NewMemRepo("main")
	c1 := repo.AddCommit("main", "lib: initial", "lib/src.rs")
	repo.SwitchBranch("side")
	repo.AddCommit("side", "side work", "lib/other.rs")
	side := repo.AddCommit("side", "more side work", "lib/other.rs")
	repo.SwitchBranch("main")
	c3 := repo.AddCommit("main", "lib: mainline", "lib/src.rs")

	reg := project.NewRegistry()
	lib := newTestProject(t, reg, "cargo:lib", "lib", "1.1.0")
	app := newTestProject(t, reg, "cargo:app", "app", "0.1.0")
	app.AddDependency(project.Dependency{
		Dependee: lib.QualifiedName(),
		Req:      project.DepRequirement{Commit: side},
	})

	// Both releases were cut from main, neither descends from the side
	// branch commit the requirement is anchored to.
	hist := &fakeHistory{releases: map[project.QualifiedName][]project.PriorRelease{
		lib.QualifiedName(): {
			{Version: semver(t, "1.0.0"), Commit: c1},
			{Version: semver(t, "1.1.0"), Commit: c3},
		},
	}}

	set, err := NewResolver(repo, hist).Resolve(ctx, reg, nil)
	require.NoError(t, err)

	deps := set.For(app.ID())
	require.Len(t, deps, 1)
	assert.Equal(t, StatusUnsatisfied, deps[0].Status)
}
