package release

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// releasedFixture checks out the release branch so HEAD carries a release
// record.
func releasedFixture(t *testing.T) (*fixture, *Session) {
	t.Helper()
	f := newFixture(t, true)
	f.repo.SwitchBranch("release")
	return f, f.session(t)
}

func TestForeachReleasedRunsPerProject(t *testing.T) {
	ctx := context.Background()
	_, s := releasedFixture(t)

	var buf bytes.Buffer
	out, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{
		Command: []string{"sh", "-c", "echo $JITREL_RELEASED_PROJECT $JITREL_RELEASED_VERSION"},
		Stdout:  &buf,
		Stderr:  &buf,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cargo:foo_lib", "cargo:foo_cli"}, out.Ran)
	assert.Contains(t, buf.String(), "cargo:foo_lib 0.1.1")
	assert.Contains(t, buf.String(), "cargo:foo_cli 0.2.0")
}

func TestForeachReleasedValidatesInput(t *testing.T) {
	ctx := context.Background()
	_, s := releasedFixture(t)

	_, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{})
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindValidation))
}

func TestForeachReleasedRequiresReleaseCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := f.session(t)

	_, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{
		Command: []string{"true"},
	})
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindState))
}

func TestForeachReleasedStopsOnFailure(t *testing.T) {
	ctx := context.Background()
	_, s := releasedFixture(t)

	var buf bytes.Buffer
	out, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{
		Command: []string{"sh", "-c", "exit 3"},
		Stdout:  &buf,
		Stderr:  &buf,
	})
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindInternal))
	assert.Empty(t, out.Ran)
}

func TestForeachReleasedPause(t *testing.T) {
	ctx := context.Background()
	_, s := releasedFixture(t)

	var buf bytes.Buffer
	out, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{
		Command: []string{"true"},
		Pause:   true,
		Prompt:  strings.NewReader("\n\n"),
		Stdout:  &buf,
		Stderr:  &buf,
	})
	require.NoError(t, err)
	assert.Len(t, out.Ran, 2)
	assert.Contains(t, buf.String(), "press enter to continue...")
}

func TestForeachReleasedPauseStopsAtPromptEOF(t *testing.T) {
	ctx := context.Background()
	_, s := releasedFixture(t)

	// One newline, then EOF. The run still completes for every project;
	// the exhausted prompt just stops pausing.
	var buf bytes.Buffer
	out, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{
		Command: []string{"true"},
		Pause:   true,
		Prompt:  strings.NewReader("\n"),
		Stdout:  &buf,
		Stderr:  &buf,
	})
	require.NoError(t, err)
	assert.Len(t, out.Ran, 2)
}

func TestForeachReleasedPausePromptFailure(t *testing.T) {
	ctx := context.Background()
	_, s := releasedFixture(t)

	var buf bytes.Buffer
	out, err := NewForeachReleasedUseCase(s).Execute(ctx, ForeachInput{
		Command: []string{"true"},
		Pause:   true,
		Prompt:  iotest.ErrReader(errors.New("terminal went away")),
		Stdout:  &buf,
		Stderr:  &buf,
	})
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindIO))
	assert.Len(t, out.Ran, 1)
}
