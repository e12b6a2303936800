package release

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitrel/jitrel/internal/domain/release"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

func TestQueriesToposort(t *testing.T) {
	f := newFixture(t, true)
	q := NewQueries(f.session(t))

	order, err := q.Toposort()
	require.NoError(t, err)
	assert.Equal(t, []string{"cargo:foo_lib", "cargo:foo_cli"}, order)
}

func TestQueriesVersionFromRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	q := NewQueries(f.session(t))

	v, err := q.Version(ctx, "foo_lib")
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", v)

	v, err = q.Version(ctx, "cargo:foo_cli")
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", v)

	_, err = q.Version(ctx, "no_such_project")
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindNotFound))
}

func TestQueriesVersionNeverReleased(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	q := NewQueries(f.session(t))

	_, err := q.Version(ctx, "foo_lib")
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindNotFound))
	assert.Contains(t, err.Error(), "never been released")
}

func TestQueriesIfReleased(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	// A second release commit carries foo_cli's version forward while
	// releasing a new foo_lib.
	msg, err := release.RenderReleaseMessage(&release.ReleaseInfo{Projects: []release.ReleasedProject{
		{QNames: []string{"foo_cli", "cargo"}, Version: "0.2.0", Age: 1},
		{QNames: []string{"foo_lib", "cargo"}, Version: "0.1.2", Age: 0},
	}})
	require.NoError(t, err)
	f.repo.AddCommit("release", msg)
	f.repo.SwitchBranch("release")

	q := NewQueries(f.session(t))

	res, err := q.IfReleased(ctx, "foo_lib")
	require.NoError(t, err)
	assert.True(t, res.Released)
	assert.Equal(t, "0.1.2", res.Version)

	res, err = q.IfReleased(ctx, "foo_cli")
	require.NoError(t, err)
	assert.False(t, res.Released)
	assert.Empty(t, res.Version)
}

func TestQueriesIfReleasedOutsideReleaseCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	q := NewQueries(f.session(t))

	_, err := q.IfReleased(ctx, "foo_lib")
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindState))
}
