package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

func mustQName(t *testing.T, s string) project.QualifiedName {
	t.Helper()
	q, err := project.ParseQualifiedName(s)
	require.NoError(t, err)
	return q
}

func addProject(t *testing.T, reg *project.Registry, qname, prefix string) *project.Project {
	t.Helper()
	p := project.NewProject(mustQName(t, qname), prefix,
		version.SchemeSemver, version.MustParse(version.SchemeSemver, "1.0.0"))
	require.NoError(t, reg.Add(p))
	return p
}

func depend(t *testing.T, depender, dependee *project.Project) {
	t.Helper()
	depender.AddDependency(project.Dependency{
		Dependee: dependee.QualifiedName(),
		Literal:  "0.0.0-dev.0",
	})
}

// position returns the index of p in ordered, failing the test if absent.
func position(t *testing.T, ordered []*project.Project, p *project.Project) int {
	t.Helper()
	for i, q := range ordered {
		if q.ID() == p.ID() {
			return i
		}
	}
	t.Fatalf("project %s missing from ordering", p.QualifiedName())
	return -1
}

func TestToposortDependeesFirst(t *testing.T) {
	reg := project.NewRegistry()
	lib := addProject(t, reg, "cargo:foo_lib", "crates/foo_lib")
	cli := addProject(t, reg, "cargo:foo_cli", "crates/foo_cli")
	py := addProject(t, reg, "pypi:foopy", "py")
	depend(t, cli, lib)
	depend(t, py, lib)
	depend(t, py, cli)

	g, err := Build(reg)
	require.NoError(t, err)

	ordered, err := g.Toposort()
	require.NoError(t, err)
	require.Len(t, ordered, 3)

	// Only the partial order is guaranteed; ties are arbitrary.
	assert.Less(t, position(t, ordered, lib), position(t, ordered, cli))
	assert.Less(t, position(t, ordered, lib), position(t, ordered, py))
	assert.Less(t, position(t, ordered, cli), position(t, ordered, py))
}

func TestToposortIndependentProjectsAllPresent(t *testing.T) {
	reg := project.NewRegistry()
	for _, name := range []string{"npm:a", "npm:b", "npm:c"} {
		addProject(t, reg, name, name[4:])
	}

	g, err := Build(reg)
	require.NoError(t, err)

	ordered, err := g.Toposort()
	require.NoError(t, err)
	assert.Len(t, ordered, 3)
}

func TestToposortCycleErrors(t *testing.T) {
	reg := project.NewRegistry()
	a := addProject(t, reg, "npm:a", "a")
	b := addProject(t, reg, "npm:b", "b")
	c := addProject(t, reg, "npm:c", "c")
	depend(t, a, b)
	depend(t, b, c)
	depend(t, c, a)

	g, err := Build(reg)
	require.NoError(t, err)

	_, err = g.Toposort()
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindGraph))
	assert.Contains(t, err.Error(), "npm:a")
	assert.Contains(t, err.Error(), "npm:b")
	assert.Contains(t, err.Error(), "npm:c")
}

func TestToposortTwoNodeCycle(t *testing.T) {
	reg := project.NewRegistry()
	a := addProject(t, reg, "npm:a", "a")
	b := addProject(t, reg, "npm:b", "b")
	addProject(t, reg, "npm:free", "free")
	depend(t, a, b)
	depend(t, b, a)

	g, err := Build(reg)
	require.NoError(t, err)

	_, err = g.Toposort()
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindGraph))
}

func TestBuildUnknownDependee(t *testing.T) {
	reg := project.NewRegistry()
	a := addProject(t, reg, "npm:a", "a")
	a.AddDependency(project.Dependency{Dependee: mustQName(t, "npm:ghost")})

	_, err := Build(reg)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindValidation))
	assert.Contains(t, err.Error(), "npm:ghost")
}

func TestToposortSkipsIgnoredProjects(t *testing.T) {
	reg := project.NewRegistry()
	lib := addProject(t, reg, "cargo:lib", "lib")
	app := addProject(t, reg, "cargo:app", "app")
	depend(t, app, lib)
	app.SetIgnored(true)

	g, err := Build(reg)
	require.NoError(t, err)

	ordered, err := g.Toposort()
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, lib.ID(), ordered[0].ID())
}
