package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

func newTestProject(t *testing.T, reg *project.Registry, qname, prefix, current string) *project.Project {
	t.Helper()
	q, err := project.ParseQualifiedName(qname)
	require.NoError(t, err)
	p := project.NewProject(q, prefix, version.SchemeSemver,
		version.MustParse(version.SchemeSemver, current))
	require.NoError(t, reg.Add(p))
	return p
}

func TestReleaseRequestAddReplacesDuplicate(t *testing.T) {
	reg := project.NewRegistry()
	p := newTestProject(t, reg, "cargo:foo", "foo", "1.0.0")

	req := NewReleaseRequest()
	req.Add(p, version.MicroBump(), "")
	req.Add(p, version.MajorBump(), "breaking change")

	require.Len(t, req.Entries(), 1)
	assert.Equal(t, version.BumpMajor, req.Entries()[0].Bump.Kind())
	assert.Equal(t, "breaking change", req.Entries()[0].Notes)
	assert.True(t, req.Contains(p.ID()))
}

func TestReleaseRequestWireAndBind(t *testing.T) {
	reg := project.NewRegistry()
	lib := newTestProject(t, reg, "cargo:foo_lib", "crates/foo_lib", "1.2.3")
	cli := newTestProject(t, reg, "cargo:foo_cli", "crates/foo_cli", "0.3.0")

	req := NewReleaseRequest()
	req.Add(lib, version.MinorBump(), "")
	req.Add(cli, version.ForceBump("1.0.0"), "")

	wire := req.Wire()
	require.Len(t, wire.Projects, 2)
	assert.Equal(t, "minor bump", wire.Projects[0].BumpSpec)
	assert.Equal(t, "force 1.0.0", wire.Projects[1].BumpSpec)

	bound, err := BindRequest(reg, wire)
	require.NoError(t, err)
	require.Len(t, bound.Entries(), 2)
	assert.Equal(t, lib.ID(), bound.Entries()[0].Project.ID())
	assert.Equal(t, version.BumpMinor, bound.Entries()[0].Bump.Kind())
	assert.Equal(t, "1.0.0", bound.Entries()[1].Bump.ForceText())
}

func TestBindRequestUnknownProject(t *testing.T) {
	reg := project.NewRegistry()
	info := &RequestInfo{Projects: []RequestedProject{
		{QNames: []string{"ghost", "npm"}, BumpSpec: "micro bump"},
	}}

	_, err := BindRequest(reg, info)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindDependency))
}

func TestBindRequestBadBumpSpec(t *testing.T) {
	reg := project.NewRegistry()
	newTestProject(t, reg, "npm:pkg", "pkg", "1.0.0")
	info := &RequestInfo{Projects: []RequestedProject{
		{QNames: []string{"pkg", "npm"}, BumpSpec: "gigantic bump"},
	}}

	_, err := BindRequest(reg, info)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindParse))
}

func TestBuildReleaseInfo(t *testing.T) {
	reg := project.NewRegistry()
	released := newTestProject(t, reg, "cargo:foo_lib", "crates/foo_lib", "1.3.0")
	carried := newTestProject(t, reg, "cargo:foo_cli", "crates/foo_cli", "0.3.0")
	carried.SetPriorRelease(&project.PriorRelease{
		Version: version.MustParse(version.SchemeSemver, "0.3.0"),
		Commit:  sourcecontrol.CommitHash("c0001"),
		Age:     1,
	})
	newTestProject(t, reg, "npm:never", "web", "0.0.0")

	info := BuildReleaseInfo(reg, map[project.ID]bool{released.ID(): true})
	require.Len(t, info.Projects, 2)

	lib := info.Lookup(released.QualifiedName())
	require.NotNil(t, lib)
	assert.Equal(t, "1.3.0", lib.Version)
	assert.Equal(t, 0, lib.Age)

	cli := info.Lookup(carried.QualifiedName())
	require.NotNil(t, cli)
	assert.Equal(t, "0.3.0", cli.Version)
	assert.Equal(t, 2, cli.Age)
}
