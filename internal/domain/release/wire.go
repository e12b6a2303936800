// Package release models the release workflow: request and release records
// embedded in commit messages, commit-anchored dependency resolution, and
// the state machine that sequences the rc-to-release pipeline.
package release

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Commit messages on the rc and release branches carry a fenced TOML block
// holding machine-readable release data. The fence version is part of the
// format; bump it on incompatible changes.
const (
	releaseInfoFence = "+++ jitrel-release-info-v1"
	requestInfoFence = "+++ jitrel-rc-info-v1"
	fenceClose       = "+++"
)

// ErrNoInfoBlock is returned when a commit message carries no fenced info
// block of the requested flavor.
var ErrNoInfoBlock = errors.New("commit message carries no release info block")

// ReleasedProject is one project's entry in a release record. Every tracked
// project appears in every release commit; Age distinguishes projects
// actually released in that commit (age zero) from ones carrying a version
// forward.
type ReleasedProject struct {
	// QNames is the project identity as [name, ecosystem].
	QNames []string `toml:"qnames"`
	// Version is the released version text.
	Version string `toml:"version"`
	// Age is the number of consecutive release commits that have carried
	// this version. Zero means the version was assigned in this commit.
	Age int `toml:"age"`
}

// QualifiedName reconstructs the project identity from the wire form.
func (r ReleasedProject) QualifiedName() (project.QualifiedName, error) {
	if len(r.QNames) != 2 {
		return project.QualifiedName{}, jerrors.Parse("release.QualifiedName",
			fmt.Sprintf("malformed qnames %v (want [name, ecosystem])", r.QNames))
	}
	return project.QualifiedName{Name: r.QNames[0], Ecosystem: r.QNames[1]}, nil
}

// wireQNames renders a qualified name in the wire order.
func wireQNames(q project.QualifiedName) []string {
	return []string{q.Name, q.Ecosystem}
}

// ReleaseInfo is the release record of one release commit: the full version
// state of every tracked project as of that commit.
type ReleaseInfo struct {
	// Commit is the release commit this record was read from. Zero when
	// the record is synthetic (no release branch exists yet).
	Commit sourcecontrol.CommitHash `toml:"-"`

	Projects []ReleasedProject `toml:"projects"`
}

// Lookup finds the entry for a project, or nil if the project predates this
// record.
func (i *ReleaseInfo) Lookup(q project.QualifiedName) *ReleasedProject {
	for idx := range i.Projects {
		rq, err := i.Projects[idx].QualifiedName()
		if err == nil && rq == q {
			return &i.Projects[idx]
		}
	}
	return nil
}

// RequestedProject is one project's entry in a release request.
type RequestedProject struct {
	// QNames is the project identity as [name, ecosystem].
	QNames []string `toml:"qnames"`
	// BumpSpec is the textual bump specification, e.g. "micro bump".
	BumpSpec string `toml:"bump_spec"`
}

// QualifiedName reconstructs the project identity from the wire form.
func (r RequestedProject) QualifiedName() (project.QualifiedName, error) {
	if len(r.QNames) != 2 {
		return project.QualifiedName{}, jerrors.Parse("release.QualifiedName",
			fmt.Sprintf("malformed qnames %v (want [name, ecosystem])", r.QNames))
	}
	return project.QualifiedName{Name: r.QNames[0], Ecosystem: r.QNames[1]}, nil
}

// RequestInfo is the wire form of a release request, carried in the message
// of an rc commit.
type RequestInfo struct {
	Projects []RequestedProject `toml:"projects"`
}

// ParseReleaseInfo extracts and decodes the release record embedded in a
// release commit message. ErrNoInfoBlock if the message has none.
func ParseReleaseInfo(message string) (*ReleaseInfo, error) {
	const op = "release.ParseReleaseInfo"

	body, err := extractBlock(message, releaseInfoFence)
	if err != nil {
		return nil, err
	}
	var info ReleaseInfo
	if err := toml.Unmarshal([]byte(body), &info); err != nil {
		return nil, jerrors.ParseWrap(err, op, "malformed release info block")
	}
	return &info, nil
}

// ParseRequestInfo extracts and decodes the release request embedded in an
// rc commit message. ErrNoInfoBlock if the message has none.
func ParseRequestInfo(message string) (*RequestInfo, error) {
	const op = "release.ParseRequestInfo"

	body, err := extractBlock(message, requestInfoFence)
	if err != nil {
		return nil, err
	}
	var info RequestInfo
	if err := toml.Unmarshal([]byte(body), &info); err != nil {
		return nil, jerrors.ParseWrap(err, op, "malformed release request block")
	}
	return &info, nil
}

// RenderReleaseMessage builds the full commit message for a release commit.
func RenderReleaseMessage(info *ReleaseInfo) (string, error) {
	const op = "release.RenderReleaseMessage"

	body, err := toml.Marshal(info)
	if err != nil {
		return "", jerrors.Wrap(err, jerrors.KindInternal, op, "encoding release info")
	}
	return fmt.Sprintf("Release commit created with jitrel.\n\n%s\n%s%s\n",
		releaseInfoFence, body, fenceClose), nil
}

// RenderRequestMessage builds the full commit message for an rc commit.
func RenderRequestMessage(info *RequestInfo) (string, error) {
	const op = "release.RenderRequestMessage"

	body, err := toml.Marshal(info)
	if err != nil {
		return "", jerrors.Wrap(err, jerrors.KindInternal, op, "encoding release request")
	}
	return fmt.Sprintf("Release request commit created with jitrel.\n\n%s\n%s%s\n",
		requestInfoFence, body, fenceClose), nil
}

// extractBlock returns the text between the opening fence line and the next
// closing fence line.
func extractBlock(message, fence string) (string, error) {
	const op = "release.extractBlock"

	lines := strings.Split(message, "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == fence {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", ErrNoInfoBlock
	}
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == fenceClose {
			return strings.Join(lines[start:i], "\n") + "\n", nil
		}
	}
	return "", jerrors.Parse(op, "unterminated info block in commit message")
}
