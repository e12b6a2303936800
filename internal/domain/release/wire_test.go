package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitrel/jitrel/internal/domain/project"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

func TestReleaseInfoRoundTrip(t *testing.T) {
	info := &ReleaseInfo{
		Projects: []ReleasedProject{
			{QNames: []string{"foo_lib", "cargo"}, Version: "1.2.3", Age: 0},
			{QNames: []string{"tcprint", "pypi"}, Version: "0.1.1", Age: 3},
		},
	}

	msg, err := RenderReleaseMessage(info)
	require.NoError(t, err)
	assert.Contains(t, msg, "+++ jitrel-release-info-v1")
	assert.Contains(t, msg, "Release commit created with jitrel.")

	parsed, err := ParseReleaseInfo(msg)
	require.NoError(t, err)
	require.Len(t, parsed.Projects, 2)
	assert.Equal(t, []string{"foo_lib", "cargo"}, parsed.Projects[0].QNames)
	assert.Equal(t, "1.2.3", parsed.Projects[0].Version)
	assert.Equal(t, 3, parsed.Projects[1].Age)
}

func TestRequestInfoRoundTrip(t *testing.T) {
	info := &RequestInfo{
		Projects: []RequestedProject{
			{QNames: []string{"foo_lib", "cargo"}, BumpSpec: "minor bump"},
			{QNames: []string{"foo_cli", "cargo"}, BumpSpec: "force 2.0.0"},
		},
	}

	msg, err := RenderRequestMessage(info)
	require.NoError(t, err)
	assert.Contains(t, msg, "+++ jitrel-rc-info-v1")

	parsed, err := ParseRequestInfo(msg)
	require.NoError(t, err)
	require.Len(t, parsed.Projects, 2)
	assert.Equal(t, "minor bump", parsed.Projects[0].BumpSpec)
	assert.Equal(t, "force 2.0.0", parsed.Projects[1].BumpSpec)
}

func TestParseReleaseInfoNoBlock(t *testing.T) {
	_, err := ParseReleaseInfo("Merge pull request #42 from someone/feature")
	assert.ErrorIs(t, err, ErrNoInfoBlock)
}

func TestParseReleaseInfoUnterminated(t *testing.T) {
	msg := "Release\n\n+++ jitrel-release-info-v1\n[[projects]]\nqnames = [\"a\", \"npm\"]\n"
	_, err := ParseReleaseInfo(msg)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindParse))
}

func TestParseReleaseInfoMalformedTOML(t *testing.T) {
	msg := "Release\n\n+++ jitrel-release-info-v1\nnot valid = = toml\n+++\n"
	_, err := ParseReleaseInfo(msg)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindParse))
}

func TestReleaseInfoLookup(t *testing.T) {
	info := &ReleaseInfo{
		Projects: []ReleasedProject{
			{QNames: []string{"foo_lib", "cargo"}, Version: "1.2.3", Age: 0},
		},
	}

	hit := info.Lookup(project.QualifiedName{Ecosystem: "cargo", Name: "foo_lib"})
	require.NotNil(t, hit)
	assert.Equal(t, "1.2.3", hit.Version)

	miss := info.Lookup(project.QualifiedName{Ecosystem: "npm", Name: "foo_lib"})
	assert.Nil(t, miss)
}

func TestReleasedProjectQualifiedNameMalformed(t *testing.T) {
	_, err := ReleasedProject{QNames: []string{"only-name"}}.QualifiedName()
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindParse))
}
