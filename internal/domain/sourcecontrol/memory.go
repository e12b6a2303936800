package sourcecontrol

import (
	"context"
	"fmt"
	"time"
)

// MemRepo is an in-memory commit-DAG implementation of Repository, used for
// deterministic tests of everything above the git layer. It mirrors the real
// adapter's observable behavior: first-parent ordering, merge exclusion, and
// descendant-or-equal ancestry.
type MemRepo struct {
	commits  map[CommitHash]*Commit
	branches map[string]CommitHash
	tags     map[string]CommitHash
	head     string
	root     string
	clean    bool
	dirty    []string
	paths    []string
	upstream string
	seq      int

	// ancestorMemo caches IsAncestor answers; ancestry queries are the
	// hot path of dependency resolution.
	ancestorMemo map[[2]CommitHash]bool
}

// Compile-time interface check.
var _ Repository = (*MemRepo)(nil)

// NewMemRepo creates an empty in-memory repository with HEAD on branch.
func NewMemRepo(branch string) *MemRepo {
	return &MemRepo{
		commits:      make(map[CommitHash]*Commit),
		branches:     make(map[string]CommitHash),
		tags:         make(map[string]CommitHash),
		head:         branch,
		root:         "/mem",
		clean:        true,
		upstream:     "origin",
		ancestorMemo: make(map[[2]CommitHash]bool),
	}
}

// SetClean sets the working-tree cleanliness reported by IsClean.
func (r *MemRepo) SetClean(clean bool) { r.clean = clean }

// SetDirtyPaths sets the modified paths reported by DirtyPaths and marks
// the tree dirty when the list is non-empty.
func (r *MemRepo) SetDirtyPaths(paths []string) {
	r.dirty = paths
	r.clean = len(paths) == 0
}

// SetRoot sets the working-tree root returned by Root.
func (r *MemRepo) SetRoot(root string) { r.root = root }

// SetTrackedPaths sets the paths returned by ListPaths.
func (r *MemRepo) SetTrackedPaths(paths []string) { r.paths = paths }

// AddCommit appends a commit to the named branch and returns its hash.
// The hash is derived from an internal sequence so tests can predict it,
// and the sequence doubles as the commit timestamp for stable ordering.
func (r *MemRepo) AddCommit(branch, message string, changedPaths ...string) CommitHash {
	var parents []CommitHash
	if tip, ok := r.branches[branch]; ok {
		parents = []CommitHash{tip}
	}
	return r.addNode(branch, message, parents, changedPaths)
}

// AddMerge appends a merge commit to branch with the given extra parents.
func (r *MemRepo) AddMerge(branch, message string, others ...CommitHash) CommitHash {
	var parents []CommitHash
	if tip, ok := r.branches[branch]; ok {
		parents = []CommitHash{tip}
	}
	parents = append(parents, others...)
	return r.addNode(branch, message, parents, nil)
}

// SwitchBranch points HEAD at the named branch.
func (r *MemRepo) SwitchBranch(branch string) { r.head = branch }

// TagTarget returns the commit a tag points to, for test assertions.
func (r *MemRepo) TagTarget(name string) (CommitHash, bool) {
	h, ok := r.tags[name]
	return h, ok
}

func (r *MemRepo) addNode(branch, message string, parents []CommitHash, changedPaths []string) CommitHash {
	r.seq++
	hash := CommitHash(fmt.Sprintf("c%04d", r.seq))
	c := NewCommit(hash, message, Author{Name: "test", Email: "test@example.com"},
		time.Unix(int64(r.seq), 0).UTC())
	c.SetParents(parents)
	c.SetChangedPaths(changedPaths)
	r.commits[hash] = c
	r.branches[branch] = hash
	return hash
}

// Head implements HistoryReader.
func (r *MemRepo) Head(_ context.Context) (CommitHash, error) {
	tip, ok := r.branches[r.head]
	if !ok {
		return "", ErrCommitNotFound
	}
	return tip, nil
}

// BranchHead implements HistoryReader.
func (r *MemRepo) BranchHead(_ context.Context, branch string) (CommitHash, error) {
	tip, ok := r.branches[branch]
	if !ok {
		return "", ErrBranchNotFound
	}
	return tip, nil
}

// CurrentBranch implements HistoryReader.
func (r *MemRepo) CurrentBranch(_ context.Context) (string, error) {
	return r.head, nil
}

// GetCommit implements HistoryReader.
func (r *MemRepo) GetCommit(_ context.Context, hash CommitHash) (*Commit, error) {
	c, ok := r.commits[hash]
	if !ok {
		return nil, ErrCommitNotFound
	}
	return c, nil
}

// CommitsSince implements HistoryReader.
func (r *MemRepo) CommitsSince(_ context.Context, tip, since CommitHash) ([]*Commit, error) {
	if _, ok := r.commits[tip]; !ok {
		return nil, ErrCommitNotFound
	}

	stop := map[CommitHash]bool{}
	if !since.IsEmpty() {
		r.markReachable(since, stop)
	}

	var out []*Commit
	seen := map[CommitHash]bool{}
	stack := []CommitHash{tip}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] || stop[h] {
			continue
		}
		seen[h] = true
		c := r.commits[h]
		if c == nil {
			continue
		}
		if !c.IsMerge() {
			out = append(out, c)
		}
		stack = append(stack, c.Parents()...)
	}

	// Reverse-chronological by construction sequence.
	sortCommitsNewestFirst(out)
	return out, nil
}

func sortCommitsNewestFirst(commits []*Commit) {
	for i := 1; i < len(commits); i++ {
		for j := i; j > 0 && commits[j].Date().After(commits[j-1].Date()); j-- {
			commits[j], commits[j-1] = commits[j-1], commits[j]
		}
	}
}

func (r *MemRepo) markReachable(from CommitHash, set map[CommitHash]bool) {
	stack := []CommitHash{from}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if set[h] {
			continue
		}
		set[h] = true
		if c := r.commits[h]; c != nil {
			stack = append(stack, c.Parents()...)
		}
	}
}

// IsAncestor implements HistoryReader.
func (r *MemRepo) IsAncestor(_ context.Context, a, b CommitHash) (bool, error) {
	if _, ok := r.commits[a]; !ok {
		return false, ErrCommitNotFound
	}
	if _, ok := r.commits[b]; !ok {
		return false, ErrCommitNotFound
	}

	key := [2]CommitHash{a, b}
	if ans, ok := r.ancestorMemo[key]; ok {
		return ans, nil
	}

	found := false
	stack := []CommitHash{b}
	seen := map[CommitHash]bool{}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true
		if h == a {
			found = true
			break
		}
		if c := r.commits[h]; c != nil {
			stack = append(stack, c.Parents()...)
		}
	}

	r.ancestorMemo[key] = found
	return found, nil
}

// CommitMessage implements HistoryReader.
func (r *MemRepo) CommitMessage(_ context.Context, hash CommitHash) (string, error) {
	c, ok := r.commits[hash]
	if !ok {
		return "", ErrCommitNotFound
	}
	return c.Message(), nil
}

// Root implements TreeReader.
func (r *MemRepo) Root() string { return r.root }

// ListPaths implements TreeReader.
func (r *MemRepo) ListPaths(_ context.Context) ([]string, error) {
	return append([]string(nil), r.paths...), nil
}

// IsClean implements TreeReader.
func (r *MemRepo) IsClean(_ context.Context) (bool, error) {
	return r.clean, nil
}

// DirtyPaths implements TreeReader.
func (r *MemRepo) DirtyPaths(_ context.Context) ([]string, error) {
	return append([]string(nil), r.dirty...), nil
}

// CreateCommit implements RefWriter.
func (r *MemRepo) CreateCommit(_ context.Context, opts CommitOptions) (CommitHash, error) {
	for _, p := range opts.Parents {
		if _, ok := r.commits[p]; !ok {
			return "", ErrCommitNotFound
		}
	}
	hash := r.addNode(opts.Branch, opts.Message, opts.Parents, opts.Paths)
	if opts.SwitchHead {
		r.head = opts.Branch
	}
	return hash, nil
}

// CreateTag implements RefWriter.
func (r *MemRepo) CreateTag(_ context.Context, name string, target CommitHash, _ string) error {
	if _, exists := r.tags[name]; exists {
		return ErrTagAlreadyExists
	}
	if _, ok := r.commits[target]; !ok {
		return ErrCommitNotFound
	}
	r.tags[name] = target
	return nil
}

// ListTags implements RefWriter.
func (r *MemRepo) ListTags(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(r.tags))
	for name := range r.tags {
		names = append(names, name)
	}
	return names, nil
}

// UpstreamName implements Repository.
func (r *MemRepo) UpstreamName() string { return r.upstream }
