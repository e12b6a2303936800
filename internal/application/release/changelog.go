package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
	"github.com/jitrel/jitrel/internal/fileutil"
)

// Changelogs double as the release request surface: staging writes a stub
// stanza headed "# rc: <bump spec>" above the existing contents, the user
// edits the notes, and confirm reads the stanza back. Applying versions
// finalizes the header into "# Version <version> (<date>)".
const (
	changelogBasename   = "CHANGELOG.md"
	stageHeaderPrefix   = "# rc:"
	releaseHeaderFormat = "# Version %s (%s)"
	wrapWidth           = 78
)

func changelogRelPath(p *project.Project) string {
	return p.Prefix() + changelogBasename
}

func (s *Session) changelogPath(p *project.Project) string {
	return filepath.Join(s.repo.Root(), filepath.FromSlash(changelogRelPath(p)))
}

// draftStanza rewrites the project's changelog with a stub release stanza
// derived from the relevant commits, preserving everything already there.
// Re-staging replaces an existing pending stanza instead of stacking a
// second one.
func (s *Session) draftStanza(p *project.Project, commits []*sourcecontrol.Commit) error {
	const op = "release.draftStanza"

	path := s.changelogPath(p)
	prev, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return jerrors.IOWrap(err, op, fmt.Sprintf("reading changelog for %s", p.QualifiedName()))
	}
	prev = stripPendingStanza(prev)

	var b strings.Builder
	b.WriteString(stageHeaderPrefix + " micro bump\n\n")
	for _, c := range commits {
		prefix := "- "
		for _, line := range wrapText(c.Subject(), wrapWidth) {
			b.WriteString(prefix + line + "\n")
			prefix = "  "
		}
	}
	b.WriteString("\n")
	b.Write(prev)

	if err := fileutil.AtomicWriteFile(path, []byte(b.String()), 0o644); err != nil {
		return jerrors.IOWrap(err, op, fmt.Sprintf("writing changelog for %s", p.QualifiedName()))
	}
	return nil
}

// scanStanza reads a pending release stanza from the project's changelog.
// ok is false when the changelog is missing or carries no stage header.
func (s *Session) scanStanza(p *project.Project) (spec string, notes string, ok bool, err error) {
	const op = "release.scanStanza"

	data, err := os.ReadFile(s.changelogPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", false, nil
		}
		return "", "", false, jerrors.IOWrap(err, op, fmt.Sprintf("reading changelog for %s", p.QualifiedName()))
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], stageHeaderPrefix) {
		return "", "", false, nil
	}
	spec = strings.TrimSpace(strings.TrimPrefix(lines[0], stageHeaderPrefix))

	var body []string
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "# ") {
			break
		}
		body = append(body, line)
	}
	notes = strings.TrimSpace(strings.Join(body, "\n"))
	return spec, notes, true, nil
}

// finalizeStanza replaces the pending stage header with the release header
// carrying the assigned version. A changelog without a pending stanza is
// left untouched, keeping version application idempotent.
func (s *Session) finalizeStanza(p *project.Project, now time.Time) (bool, error) {
	const op = "release.finalizeStanza"

	path := s.changelogPath(p)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, jerrors.IOWrap(err, op, fmt.Sprintf("reading changelog for %s", p.QualifiedName()))
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], stageHeaderPrefix) {
		return false, nil
	}
	lines[0] = fmt.Sprintf(releaseHeaderFormat,
		p.CurrentVersion(), now.Format("2006-01-02"))

	if err := fileutil.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return false, jerrors.IOWrap(err, op, fmt.Sprintf("writing changelog for %s", p.QualifiedName()))
	}
	return true, nil
}

// stripPendingStanza removes a leading stage stanza, up to but excluding
// the next header line.
func stripPendingStanza(data []byte) []byte {
	text := string(data)
	if !strings.HasPrefix(text, stageHeaderPrefix) {
		return data
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "# ") {
			return []byte(strings.Join(lines[i:], "\n"))
		}
	}
	return nil
}

// wrapText greedily wraps text at the given width. A single overlong word
// occupies its own line.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
