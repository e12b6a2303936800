package release

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapText(t *testing.T) {
	assert.Nil(t, wrapText("", 10))
	assert.Equal(t, []string{"short subject"}, wrapText("short subject", 78))

	lines := wrapText(strings.TrimSpace(strings.Repeat("word ", 40)), 20)
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Equal(t, strings.Repeat("word ", 40), strings.Join(lines, " ")+" ")

	// A single overlong word occupies its own line.
	assert.Equal(t, []string{"antidisestablishmentarianism"},
		wrapText("antidisestablishmentarianism", 10))
}

func TestStripPendingStanza(t *testing.T) {
	existing := "# Version 0.1.0 (2026-01-01)\n\n- old note\n"

	stripped := stripPendingStanza([]byte("# rc: micro bump\n\n- new note\n\n" + existing))
	assert.Equal(t, existing, string(stripped))

	assert.Equal(t, existing, string(stripPendingStanza([]byte(existing))))

	// A changelog holding nothing but a pending stanza strips to empty.
	assert.Empty(t, stripPendingStanza([]byte("# rc: micro bump\n\n- new note\n")))
}

func TestScanStanza(t *testing.T) {
	f := newFixture(t, true)
	s := f.session(t)

	lib, err := s.reg.Resolve("foo_lib")
	require.NoError(t, err)

	_, _, ok, err := s.scanStanza(lib)
	require.NoError(t, err)
	assert.False(t, ok)

	writeTree(t, f.root, map[string]string{
		"foo_lib/CHANGELOG.md": "# rc: minor bump\n\n- one\n- two\n\n# Version 0.1.1 (2026-01-01)\n\n- old\n",
	})

	spec, notes, ok, err := s.scanStanza(lib)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "minor bump", spec)
	assert.Equal(t, "- one\n- two", notes)

	// A finalized changelog carries no pending stanza.
	writeTree(t, f.root, map[string]string{
		"foo_lib/CHANGELOG.md": "# Version 0.1.1 (2026-01-01)\n\n- old\n",
	})
	_, _, ok, err = s.scanStanza(lib)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestageReplacesPendingStanza(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := f.session(t)

	_, err := NewStageUseCase(s).Execute(ctx, StageInput{})
	require.NoError(t, err)
	_, err = NewStageUseCase(s).Execute(ctx, StageInput{})
	require.NoError(t, err)

	content := readTree(t, f.root, "foo_lib/CHANGELOG.md")
	assert.Equal(t, 1, strings.Count(content, "# rc:"))
}

func TestDraftStanzaPreservesReleasedHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := f.session(t)

	writeTree(t, f.root, map[string]string{
		"foo_lib/CHANGELOG.md": "# Version 0.1.1 (2026-01-01)\n\n- old note\n",
	})

	_, err := NewStageUseCase(s).Execute(ctx, StageInput{Names: []string{"foo_lib"}})
	require.NoError(t, err)

	content := readTree(t, f.root, "foo_lib/CHANGELOG.md")
	assert.True(t, strings.HasPrefix(content, "# rc: micro bump\n"))
	assert.Contains(t, content, "# Version 0.1.1 (2026-01-01)")
	assert.Contains(t, content, "- old note")
}
