package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/jitrel/jitrel/internal/domain/release"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Queries bundle the read-only lookups backing the show subcommands.
// Version answers come from release records, never from metadata files:
// the working tree carries dev placeholders most of the time.
type Queries struct {
	session *Session
}

// NewQueries creates the query surface.
func NewQueries(session *Session) *Queries {
	return &Queries{session: session}
}

// Toposort returns the qualified names of the active projects in
// dependees-first order.
func (q *Queries) Toposort() ([]string, error) {
	ordered, err := q.session.Toposorted()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ordered))
	for i, p := range ordered {
		names[i] = p.QualifiedName().String()
	}
	return names, nil
}

// Version returns the released version of the named project per the most
// recent release record.
func (q *Queries) Version(ctx context.Context, name string) (string, error) {
	const op = "release.Queries.Version"

	p, err := q.session.reg.Resolve(name)
	if err != nil {
		return "", err
	}
	latest, err := q.session.history.Latest(ctx)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", jerrors.NotFound(op,
			fmt.Sprintf("%s has never been released", p.QualifiedName()))
	}
	entry := latest.Lookup(p.QualifiedName())
	if entry == nil {
		return "", jerrors.NotFound(op,
			fmt.Sprintf("%s has never been released", p.QualifiedName()))
	}
	return entry.Version, nil
}

// IfReleasedResult answers whether a project was released in the release
// commit at HEAD.
type IfReleasedResult struct {
	Released bool   `json:"released"`
	Version  string `json:"version,omitempty"`
}

// IfReleased reports whether the named project's version was assigned in
// the release commit checked out at HEAD.
func (q *Queries) IfReleased(ctx context.Context, name string) (*IfReleasedResult, error) {
	const op = "release.Queries.IfReleased"

	p, err := q.session.reg.Resolve(name)
	if err != nil {
		return nil, err
	}

	head, err := q.session.repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	message, err := q.session.repo.CommitMessage(ctx, head)
	if err != nil {
		return nil, err
	}
	info, err := release.ParseReleaseInfo(message)
	if err != nil {
		if errors.Is(err, release.ErrNoInfoBlock) {
			return nil, jerrors.State(op, "HEAD is not a release commit")
		}
		return nil, err
	}

	entry := info.Lookup(p.QualifiedName())
	if entry == nil || entry.Age != 0 {
		return &IfReleasedResult{Released: false}, nil
	}
	return &IfReleasedResult{Released: true, Version: entry.Version}, nil
}
