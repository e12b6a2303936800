package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitrel/jitrel/internal/domain/version"
)

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		input   string
		want    QualifiedName
		wantErr bool
	}{
		{"npm:@scope/pkg", QualifiedName{Ecosystem: "npm", Name: "@scope/pkg"}, false},
		{"cargo:foo_lib", QualifiedName{Ecosystem: "cargo", Name: "foo_lib"}, false},
		{"pypi:tcprint", QualifiedName{Ecosystem: "pypi", Name: "tcprint"}, false},
		{"noseparator", QualifiedName{}, true},
		{":name", QualifiedName{}, true},
		{"eco:", QualifiedName{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQualifiedName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestQualifiedNameSlug(t *testing.T) {
	assert.Equal(t, "scope-pkg", QualifiedName{Ecosystem: "npm", Name: "@scope/pkg"}.Slug())
	assert.Equal(t, "foo_lib", QualifiedName{Ecosystem: "cargo", Name: "foo_lib"}.Slug())
}

func TestPrefixNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{".", ""},
		{"libs/core", "libs/core/"},
		{"libs/core/", "libs/core/"},
		{"./libs/core", "libs/core/"},
	}

	for _, tt := range tests {
		p := NewProject(QualifiedName{Ecosystem: "npm", Name: "x"}, tt.raw, version.SchemeSemver, nil)
		assert.Equal(t, tt.want, p.Prefix(), "prefix %q", tt.raw)
	}
}

func newTestProject(t *testing.T, qname, prefix string) *Project {
	t.Helper()
	q, err := ParseQualifiedName(qname)
	require.NoError(t, err)
	return NewProject(q, prefix, version.SchemeSemver, version.MustParse(version.SchemeSemver, "0.1.0"))
}

func TestRegistryAddRejectsDuplicatePrefix(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTestProject(t, "npm:a", "pkgs/a")))

	err := reg.Add(newTestProject(t, "cargo:a", "pkgs/a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same prefix")
}

func TestRegistryAddRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTestProject(t, "npm:a", "pkgs/a")))
	assert.Error(t, reg.Add(newTestProject(t, "npm:a", "pkgs/b")))
}

func TestRegistryLongestPrefixOwnership(t *testing.T) {
	reg := NewRegistry()
	root := newTestProject(t, "cargo:workspace", "")
	lib := newTestProject(t, "cargo:foo_lib", "crates/foo_lib")
	cli := newTestProject(t, "cargo:foo_cli", "crates/foo_cli")
	require.NoError(t, reg.Add(root))
	require.NoError(t, reg.Add(lib))
	require.NoError(t, reg.Add(cli))

	owner, ok := reg.Owner("crates/foo_lib/src/lib.rs")
	require.True(t, ok)
	assert.Equal(t, lib.QualifiedName(), owner.QualifiedName())

	owner, ok = reg.Owner("crates/foo_cli/src/main.rs")
	require.True(t, ok)
	assert.Equal(t, cli.QualifiedName(), owner.QualifiedName())

	// Paths outside any sub-project fall to the root project.
	owner, ok = reg.Owner("README.md")
	require.True(t, ok)
	assert.Equal(t, root.QualifiedName(), owner.QualifiedName())
}

func TestRegistryIgnoredProjectsStillClaimPaths(t *testing.T) {
	reg := NewRegistry()
	root := newTestProject(t, "cargo:workspace", "")
	vendored := newTestProject(t, "npm:vendored", "third_party/vendored")
	vendored.SetIgnored(true)
	require.NoError(t, reg.Add(root))
	require.NoError(t, reg.Add(vendored))

	owner, ok := reg.Owner("third_party/vendored/index.js")
	require.True(t, ok)
	assert.Equal(t, vendored.QualifiedName(), owner.QualifiedName())
	assert.True(t, owner.Ignored())

	assert.Len(t, reg.Active(), 1)
	assert.Len(t, reg.All(), 2)
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(newTestProject(t, "npm:shared", "js/shared")))
	require.NoError(t, reg.Add(newTestProject(t, "pypi:shared", "py/shared")))
	require.NoError(t, reg.Add(newTestProject(t, "cargo:unique", "rs/unique")))

	p, err := reg.Resolve("cargo:unique")
	require.NoError(t, err)
	assert.Equal(t, "unique", p.QualifiedName().Name)

	p, err = reg.Resolve("unique")
	require.NoError(t, err)
	assert.Equal(t, "cargo", p.QualifiedName().Ecosystem)

	_, err = reg.Resolve("shared")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = reg.Resolve("missing")
	assert.Error(t, err)
}
