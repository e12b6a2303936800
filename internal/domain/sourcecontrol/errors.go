package sourcecontrol

import "errors"

// Domain errors for source control operations.
var (
	// ErrNotARepository indicates the path is not a git repository.
	ErrNotARepository = errors.New("not a git repository")

	// ErrCommitNotFound indicates the commit was not found.
	ErrCommitNotFound = errors.New("commit not found")

	// ErrBranchNotFound indicates the branch was not found.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrTagAlreadyExists indicates the tag already exists.
	ErrTagAlreadyExists = errors.New("tag already exists")

	// ErrWorkingTreeDirty indicates the working tree has uncommitted changes.
	ErrWorkingTreeDirty = errors.New("working tree has uncommitted changes")

	// ErrNoUpstreamRemote indicates no usable upstream remote was found.
	ErrNoUpstreamRemote = errors.New("no upstream remote identified")
)
