// Package git implements the sourcecontrol repository port on top of go-git.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Repository adapts a local git repository to the domain port.
type Repository struct {
	repo     *git.Repository
	worktree *git.Worktree
	upstream string

	ancestorMu   sync.Mutex
	ancestorMemo map[[2]plumbing.Hash]bool
}

var _ sourcecontrol.Repository = (*Repository)(nil)

// Open opens the repository at path. upstreamURLs are user-configured URLs
// identifying the upstream remote; they break ties when neither a sole
// remote nor one named "origin" exists.
func Open(path string, upstreamURLs []string) (*Repository, error) {
	const op = "git.Open"

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get absolute path")
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, sourcecontrol.ErrNotARepository
		}
		return nil, jerrors.GitWrap(err, op, "failed to open repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get worktree")
	}

	upstream, err := detectUpstream(repo, upstreamURLs)
	if err != nil {
		return nil, err
	}

	return &Repository{
		repo:         repo,
		worktree:     worktree,
		upstream:     upstream,
		ancestorMemo: make(map[[2]plumbing.Hash]bool),
	}, nil
}

// detectUpstream picks the remote of record: a sole remote wins, then one
// named "origin", then one whose URL is in the configured list.
func detectUpstream(repo *git.Repository, upstreamURLs []string) (string, error) {
	const op = "git.detectUpstream"

	remotes, err := repo.Remotes()
	if err != nil {
		return "", jerrors.GitWrap(err, op, "failed to list remotes")
	}
	if len(remotes) == 1 {
		return remotes[0].Config().Name, nil
	}
	for _, remote := range remotes {
		if remote.Config().Name == "origin" {
			return "origin", nil
		}
	}
	for _, remote := range remotes {
		for _, url := range remote.Config().URLs {
			for _, want := range upstreamURLs {
				if url == want {
					return remote.Config().Name, nil
				}
			}
		}
	}
	return "", sourcecontrol.ErrNoUpstreamRemote
}

// UpstreamName implements sourcecontrol.Repository.
func (r *Repository) UpstreamName() string { return r.upstream }

// Head implements sourcecontrol.HistoryReader.
func (r *Repository) Head(_ context.Context) (sourcecontrol.CommitHash, error) {
	const op = "git.Head"

	head, err := r.repo.Head()
	if err != nil {
		return "", jerrors.GitWrap(err, op, "failed to get HEAD")
	}
	return sourcecontrol.CommitHash(head.Hash().String()), nil
}

// BranchHead implements sourcecontrol.HistoryReader.
func (r *Repository) BranchHead(_ context.Context, branch string) (sourcecontrol.CommitHash, error) {
	const op = "git.BranchHead"

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", sourcecontrol.ErrBranchNotFound
		}
		return "", jerrors.GitWrap(err, op, fmt.Sprintf("failed to resolve branch %s", branch))
	}
	return sourcecontrol.CommitHash(ref.Hash().String()), nil
}

// CurrentBranch implements sourcecontrol.HistoryReader.
func (r *Repository) CurrentBranch(_ context.Context) (string, error) {
	const op = "git.CurrentBranch"

	head, err := r.repo.Head()
	if err != nil {
		return "", jerrors.GitWrap(err, op, "failed to get HEAD")
	}
	if !head.Name().IsBranch() {
		return "", jerrors.Git(op, "HEAD is detached")
	}
	return head.Name().Short(), nil
}

// GetCommit implements sourcecontrol.HistoryReader.
func (r *Repository) GetCommit(_ context.Context, hash sourcecontrol.CommitHash) (*sourcecontrol.Commit, error) {
	const op = "git.GetCommit"

	commit, err := r.repo.CommitObject(plumbing.NewHash(string(hash)))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, sourcecontrol.ErrCommitNotFound
		}
		return nil, jerrors.GitWrap(err, op, "failed to get commit")
	}
	return r.convertCommit(commit)
}

// CommitMessage implements sourcecontrol.HistoryReader.
func (r *Repository) CommitMessage(_ context.Context, hash sourcecontrol.CommitHash) (string, error) {
	const op = "git.CommitMessage"

	commit, err := r.repo.CommitObject(plumbing.NewHash(string(hash)))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", sourcecontrol.ErrCommitNotFound
		}
		return "", jerrors.GitWrap(err, op, "failed to get commit")
	}
	return commit.Message, nil
}

// CommitsSince implements sourcecontrol.HistoryReader.
func (r *Repository) CommitsSince(ctx context.Context, tip, since sourcecontrol.CommitHash) ([]*sourcecontrol.Commit, error) {
	const op = "git.CommitsSince"

	exclude := make(map[plumbing.Hash]bool)
	if !since.IsEmpty() {
		sinceCommit, err := r.repo.CommitObject(plumbing.NewHash(string(since)))
		if err != nil {
			return nil, jerrors.GitWrap(err, op, "failed to resolve since commit")
		}
		iter := object.NewCommitPreorderIter(sinceCommit, nil, nil)
		err = iter.ForEach(func(c *object.Commit) error {
			exclude[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, jerrors.GitWrap(err, op, "failed to walk excluded history")
		}
	}

	start, err := r.repo.CommitObject(plumbing.NewHash(string(tip)))
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to resolve tip commit")
	}

	var commits []*sourcecontrol.Commit
	iter := object.NewCommitIterCTime(start, exclude, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Merge commits are never attributed to a project, but their
		// ancestry is still walked.
		if c.NumParents() > 1 {
			return nil
		}
		converted, err := r.convertCommit(c)
		if err != nil {
			return err
		}
		commits = append(commits, converted)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, jerrors.GitWrap(ctx.Err(), op, "operation canceled")
		}
		return nil, jerrors.GitWrap(err, op, "failed to iterate commits")
	}
	return commits, nil
}

// IsAncestor implements sourcecontrol.HistoryReader. Results are memoized:
// dependency resolution asks the same ancestry questions repeatedly.
func (r *Repository) IsAncestor(_ context.Context, a, b sourcecontrol.CommitHash) (bool, error) {
	const op = "git.IsAncestor"

	ha := plumbing.NewHash(string(a))
	hb := plumbing.NewHash(string(b))
	if ha == hb {
		return true, nil
	}

	key := [2]plumbing.Hash{ha, hb}
	r.ancestorMu.Lock()
	if cached, ok := r.ancestorMemo[key]; ok {
		r.ancestorMu.Unlock()
		return cached, nil
	}
	r.ancestorMu.Unlock()

	ca, err := r.repo.CommitObject(ha)
	if err != nil {
		return false, jerrors.GitWrap(err, op, "failed to resolve ancestor candidate")
	}
	cb, err := r.repo.CommitObject(hb)
	if err != nil {
		return false, jerrors.GitWrap(err, op, "failed to resolve descendant candidate")
	}

	ok, err := ca.IsAncestor(cb)
	if err != nil {
		return false, jerrors.GitWrap(err, op, "ancestry query failed")
	}

	r.ancestorMu.Lock()
	r.ancestorMemo[key] = ok
	r.ancestorMu.Unlock()
	return ok, nil
}

// Root implements sourcecontrol.TreeReader.
func (r *Repository) Root() string {
	return r.worktree.Filesystem.Root()
}

// ListPaths implements sourcecontrol.TreeReader.
func (r *Repository) ListPaths(_ context.Context) ([]string, error) {
	const op = "git.ListPaths"

	head, err := r.repo.Head()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get HEAD")
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get HEAD commit")
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get HEAD tree")
	}

	var paths []string
	err = tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to list tree files")
	}
	return paths, nil
}

// IsClean implements sourcecontrol.TreeReader.
func (r *Repository) IsClean(_ context.Context) (bool, error) {
	const op = "git.IsClean"

	status, err := r.worktree.Status()
	if err != nil {
		return false, jerrors.GitWrap(err, op, "failed to get worktree status")
	}
	for _, s := range status {
		if s.Worktree == git.Untracked {
			continue
		}
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			return false, nil
		}
	}
	return true, nil
}

// DirtyPaths implements sourcecontrol.TreeReader.
func (r *Repository) DirtyPaths(_ context.Context) ([]string, error) {
	const op = "git.DirtyPaths"

	status, err := r.worktree.Status()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get worktree status")
	}
	var dirty []string
	for path, s := range status {
		if s.Worktree == git.Untracked {
			continue
		}
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			dirty = append(dirty, path)
		}
	}
	sort.Strings(dirty)
	return dirty, nil
}

// CreateCommit implements sourcecontrol.RefWriter. The commit is created
// through the worktree, then the target branch ref is pointed at it; the
// previously checked-out branch is restored unless it is the target.
func (r *Repository) CreateCommit(_ context.Context, opts sourcecontrol.CommitOptions) (sourcecontrol.CommitHash, error) {
	const op = "git.CreateCommit"

	head, err := r.repo.Head()
	if err != nil {
		return "", jerrors.GitWrap(err, op, "failed to get HEAD")
	}

	for _, p := range opts.Paths {
		if _, err := r.worktree.Add(p); err != nil {
			return "", jerrors.GitWrap(err, op, fmt.Sprintf("failed to stage %s", p))
		}
	}

	parents := make([]plumbing.Hash, len(opts.Parents))
	for i, p := range opts.Parents {
		parents[i] = plumbing.NewHash(string(p))
	}

	sig := &object.Signature{Name: "jitrel", Email: "jitrel@devnull", When: time.Now()}
	hash, err := r.worktree.Commit(opts.Message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", jerrors.GitWrap(err, op, "failed to create commit")
	}

	branchRef := plumbing.NewBranchReferenceName(opts.Branch)
	if head.Name() != branchRef {
		// Commit advanced the checked-out branch; put it back.
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(head.Name(), head.Hash())); err != nil {
			return "", jerrors.GitWrap(err, op, "failed to restore checked-out branch")
		}
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, hash)); err != nil {
		return "", jerrors.GitWrap(err, op, fmt.Sprintf("failed to update branch %s", opts.Branch))
	}
	if opts.SwitchHead {
		if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)); err != nil {
			return "", jerrors.GitWrap(err, op, "failed to move HEAD")
		}
	}
	return sourcecontrol.CommitHash(hash.String()), nil
}

// CreateTag implements sourcecontrol.RefWriter.
func (r *Repository) CreateTag(_ context.Context, name string, target sourcecontrol.CommitHash, message string) error {
	const op = "git.CreateTag"

	_, err := r.repo.CreateTag(name, plumbing.NewHash(string(target)), &git.CreateTagOptions{
		Message: message,
		Tagger:  &object.Signature{Name: "jitrel", Email: "jitrel@devnull", When: time.Now()},
	})
	if err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return sourcecontrol.ErrTagAlreadyExists
		}
		return jerrors.GitWrap(err, op, fmt.Sprintf("failed to create tag %s", name))
	}
	return nil
}

// ListTags implements sourcecontrol.RefWriter.
func (r *Repository) ListTags(_ context.Context) ([]string, error) {
	const op = "git.ListTags"

	iter, err := r.repo.Tags()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to list tags")
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to iterate tags")
	}
	return names, nil
}

// convertCommit converts a go-git commit, populating parents and changed
// paths.
func (r *Repository) convertCommit(c *object.Commit) (*sourcecontrol.Commit, error) {
	commit := sourcecontrol.NewCommit(
		sourcecontrol.CommitHash(c.Hash.String()),
		c.Message,
		sourcecontrol.Author{Name: c.Author.Name, Email: c.Author.Email},
		c.Author.When,
	)

	parents := make([]sourcecontrol.CommitHash, c.NumParents())
	for i, h := range c.ParentHashes {
		parents[i] = sourcecontrol.CommitHash(h.String())
	}
	commit.SetParents(parents)

	paths, err := r.changedPaths(c)
	if err != nil {
		return nil, err
	}
	commit.SetChangedPaths(paths)
	return commit, nil
}

// changedPaths diffs the commit against its first parent. A root commit
// changes everything in its tree.
func (r *Repository) changedPaths(c *object.Commit) ([]string, error) {
	const op = "git.changedPaths"

	tree, err := c.Tree()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get commit tree")
	}

	if c.NumParents() == 0 {
		var paths []string
		err = tree.Files().ForEach(func(f *object.File) error {
			paths = append(paths, f.Name)
			return nil
		})
		if err != nil {
			return nil, jerrors.GitWrap(err, op, "failed to list root tree")
		}
		return paths, nil
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get parent commit")
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to get parent tree")
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, jerrors.GitWrap(err, op, "failed to diff trees")
	}

	seen := make(map[string]bool)
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				paths = append(paths, name)
			}
		}
	}
	return paths, nil
}
