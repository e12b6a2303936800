package sourcecontrol

import (
	"context"
)

// HistoryReader provides read access to commit history.
type HistoryReader interface {
	// Head returns the hash of the current HEAD commit.
	Head(ctx context.Context) (CommitHash, error)

	// BranchHead returns the tip of the named branch, or ErrBranchNotFound.
	BranchHead(ctx context.Context, branch string) (CommitHash, error)

	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)

	// GetCommit returns a commit with parents and changed paths populated.
	GetCommit(ctx context.Context, hash CommitHash) (*Commit, error)

	// CommitsSince returns the non-merge commits reachable from tip but
	// not from since, in reverse-chronological order. Merge commits are
	// skipped but their ancestry is still followed. An empty since walks
	// back to the repository root.
	CommitsSince(ctx context.Context, tip, since CommitHash) ([]*Commit, error)

	// IsAncestor reports whether a is an ancestor of (or equal to) b.
	IsAncestor(ctx context.Context, a, b CommitHash) (bool, error)

	// CommitMessage returns the full message of a commit.
	CommitMessage(ctx context.Context, hash CommitHash) (string, error)
}

// TreeReader provides read access to the checked-out tree.
type TreeReader interface {
	// Root returns the absolute path of the working-tree root.
	Root() string

	// ListPaths returns every tracked repository-relative path.
	ListPaths(ctx context.Context) ([]string, error)

	// IsClean reports whether the working tree has no uncommitted
	// changes. Untracked and ignored files are allowed.
	IsClean(ctx context.Context) (bool, error)

	// DirtyPaths returns the repository-relative paths with uncommitted
	// changes, untracked and ignored files excluded.
	DirtyPaths(ctx context.Context) ([]string, error)
}

// CommitOptions describes a commit to be created on a branch ref.
type CommitOptions struct {
	// Branch is the local branch ref to create or advance.
	Branch string
	// Message is the full commit message, including any embedded
	// release-info block.
	Message string
	// Parents are the parent hashes, first parent first. The branch ref
	// is forced to the new commit.
	Parents []CommitHash
	// Paths are the working-tree paths to stage into the commit's tree,
	// relative to the repository root. An empty list stages nothing
	// beyond the first parent's tree.
	Paths []string
	// SwitchHead moves HEAD to the branch after committing.
	SwitchHead bool
}

// RefWriter provides the branch/tag mutation surface. Every failure from
// these operations is fatal and must not be retried.
type RefWriter interface {
	// CreateCommit writes a commit per opts and returns its hash.
	CreateCommit(ctx context.Context, opts CommitOptions) (CommitHash, error)

	// CreateTag creates an annotated tag pointing at target, or
	// ErrTagAlreadyExists.
	CreateTag(ctx context.Context, name string, target CommitHash, message string) error

	// ListTags returns all tag names.
	ListTags(ctx context.Context) ([]string, error)
}

// Repository is the full capability the release engine consumes.
type Repository interface {
	HistoryReader
	TreeReader
	RefWriter

	// UpstreamName returns the name of the upstream remote hosting the
	// rc and release branches of record.
	UpstreamName() string
}
