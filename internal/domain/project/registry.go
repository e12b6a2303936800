package project

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// Registry is the set of projects discovered in the repository. It owns ID
// assignment, name lookup, and path-prefix ownership.
type Registry struct {
	projects []*Project
	byQName  map[QualifiedName]*Project
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byQName: make(map[QualifiedName]*Project),
	}
}

// Add registers a project and assigns its ID. Two projects claiming an
// identical prefix is an autodetection conflict surfaced to the user, never
// silently resolved.
func (r *Registry) Add(p *Project) error {
	const op = "project.Registry.Add"

	if _, dup := r.byQName[p.qname]; dup {
		return jerrors.Validation(op, fmt.Sprintf("duplicate project %s", p.qname)).
			WithDetail("project", p.qname.String())
	}
	for _, existing := range r.projects {
		if existing.prefix == p.prefix {
			return jerrors.Validation(op,
				fmt.Sprintf("projects %s and %s claim the same prefix %q",
					existing.qname, p.qname, displayPrefix(p.prefix))).
				WithDetail("prefix", p.prefix)
		}
	}

	p.id = ID(len(r.projects))
	r.projects = append(r.projects, p)
	r.byQName[p.qname] = p
	return nil
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "."
	}
	return prefix
}

// All returns every registered project, ignored ones included, in ID order.
func (r *Registry) All() []*Project {
	return r.projects
}

// Active returns the non-ignored projects in ID order.
func (r *Registry) Active() []*Project {
	out := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		if !p.ignored {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the project with the given ID.
func (r *Registry) Get(id ID) (*Project, bool) {
	if int(id) < 0 || int(id) >= len(r.projects) {
		return nil, false
	}
	return r.projects[id], true
}

// ByQualifiedName returns the project with the given qualified name.
func (r *Registry) ByQualifiedName(q QualifiedName) (*Project, bool) {
	p, ok := r.byQName[q]
	return p, ok
}

// Resolve looks a project up by user input: a full qualified name
// ("npm:@scope/pkg") or a bare local name when it is unambiguous.
func (r *Registry) Resolve(name string) (*Project, error) {
	const op = "project.Registry.Resolve"

	if strings.Contains(name, ":") {
		q, err := ParseQualifiedName(name)
		if err != nil {
			return nil, err
		}
		if p, ok := r.byQName[q]; ok {
			return p, nil
		}
		return nil, jerrors.NotFound(op, fmt.Sprintf("no project named %s", q))
	}

	var matches []*Project
	for _, p := range r.projects {
		if p.qname.Name == name {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, jerrors.NotFound(op, fmt.Sprintf("no project named %q", name))
	default:
		quals := make([]string, len(matches))
		for i, p := range matches {
			quals[i] = p.qname.String()
		}
		sort.Strings(quals)
		return nil, jerrors.Validation(op,
			fmt.Sprintf("name %q is ambiguous between %s", name, strings.Join(quals, ", ")))
	}
}

// Owner returns the project owning the given repository-relative path,
// using longest-matching-prefix: a path under a more specific project's
// prefix is attributed only to that project, never to an ancestor-prefix
// project. Ignored projects still claim their paths so that their files are
// not misattributed to a parent project.
func (r *Registry) Owner(path string) (*Project, bool) {
	var best *Project
	for _, p := range r.projects {
		if !p.Owns(path) {
			continue
		}
		if best == nil || len(p.prefix) > len(best.prefix) {
			best = p
		}
	}
	return best, best != nil
}

// OwningProjects maps a commit to the set of projects it affects via its
// changed paths.
func (r *Registry) OwningProjects(c *sourcecontrol.Commit) map[ID]*Project {
	owners := make(map[ID]*Project)
	for _, path := range c.ChangedPaths() {
		if p, ok := r.Owner(path); ok {
			owners[p.id] = p
		}
	}
	return owners
}
