// Package sourcecontrol provides domain types for the backing repository.
//
// The engine never talks to git directly: it consumes the narrow Repository
// capability defined here, which the go-git adapter implements for real
// checkouts and MemRepo implements for deterministic tests.
package sourcecontrol

import (
	"time"
)

// CommitHash represents a commit identifier.
type CommitHash string

// Short returns the short (7 character) hash.
func (h CommitHash) Short() string {
	if len(h) > 7 {
		return string(h[:7])
	}
	return string(h)
}

// String returns the full hash.
func (h CommitHash) String() string {
	return string(h)
}

// IsEmpty returns true if the hash is empty.
func (h CommitHash) IsEmpty() bool {
	return h == ""
}

// Author represents a commit author or committer.
type Author struct {
	Name  string
	Email string
}

// Commit is an opaque history node: a stable identifier, parent pointers,
// the set of paths it changed, and a merge flag. Merge commits are excluded
// from relevance analysis.
type Commit struct {
	hash    CommitHash
	message string
	author  Author
	date    time.Time
	parents []CommitHash
	paths   []string
}

// NewCommit creates a new Commit entity.
func NewCommit(hash CommitHash, message string, author Author, date time.Time) *Commit {
	return &Commit{
		hash:    hash,
		message: message,
		author:  author,
		date:    date,
	}
}

// Hash returns the commit hash.
func (c *Commit) Hash() CommitHash {
	return c.hash
}

// Message returns the full commit message.
func (c *Commit) Message() string {
	return c.message
}

// Subject returns the first line of the commit message.
func (c *Commit) Subject() string {
	for i, r := range c.message {
		if r == '\n' {
			return c.message[:i]
		}
	}
	return c.message
}

// Author returns the commit author.
func (c *Commit) Author() Author {
	return c.author
}

// Date returns the commit date.
func (c *Commit) Date() time.Time {
	return c.date
}

// Parents returns the parent commit hashes.
func (c *Commit) Parents() []CommitHash {
	return c.parents
}

// SetParents sets the parent hashes.
func (c *Commit) SetParents(parents []CommitHash) {
	c.parents = parents
}

// IsMerge returns true if this commit has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.parents) > 1
}

// ChangedPaths returns the repository-relative paths this commit changed.
func (c *Commit) ChangedPaths() []string {
	return c.paths
}

// SetChangedPaths sets the changed paths.
func (c *Commit) SetChangedPaths(paths []string) {
	c.paths = paths
}
