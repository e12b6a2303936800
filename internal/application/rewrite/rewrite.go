// Package rewrite implements the ecosystem loader/rewriter surface: one
// implementation per packaging ecosystem knows how to detect a project's
// manifest, read its version and internal dependencies, and write assigned
// versions and resolved requirements back. Nothing outside this package
// touches ecosystem file syntax.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// DepMeta is a declared dependency as read from a manifest.
type DepMeta struct {
	// Name is the ecosystem-local name of the dependee.
	Name string
	// Literal is the requirement text currently in the file, typically a
	// dev placeholder on the main branch.
	Literal string
	// Requirement is the internal requirement annotation: a commit hash
	// or "manual:<text>". Empty if the manifest carries none.
	Requirement string
}

// ProjectMeta is what a rewriter learns from one manifest.
type ProjectMeta struct {
	// Name is the ecosystem-local project name.
	Name string
	// Version is the version text currently in the manifest.
	Version string
	// Deps are the declared dependencies; discovery filters them down to
	// edges between projects of this repository.
	Deps []DepMeta
}

// Rewriter is the per-ecosystem capability. Paths passed in are absolute
// directories holding the manifest.
type Rewriter interface {
	// Ecosystem returns the ecosystem tag used in qualified names.
	Ecosystem() string

	// Scheme returns the version scheme native to this ecosystem.
	Scheme() version.Scheme

	// Detect reports whether dir holds a manifest this rewriter owns.
	Detect(dir string) bool

	// Load reads the manifest in dir.
	Load(ctx context.Context, dir string) (*ProjectMeta, error)

	// WriteVersion rewrites the manifest's own version in place,
	// preserving the file's formatting.
	WriteVersion(ctx context.Context, dir string, v version.Version) error

	// WriteDepRequirement rewrites the requirement literal of the named
	// internal dependency to a concrete minimum version.
	WriteDepRequirement(ctx context.Context, dir, depName string, minimum version.Version) error

	// Files returns the repo-relative paths the rewriter mutates for a
	// project at the given prefix.
	Files(prefix string) []string
}

// Registry holds the registered rewriters. The engine iterates it without
// knowing concrete ecosystems.
type Registry struct {
	rewriters []Rewriter
}

// NewRegistry returns a registry with every built-in rewriter.
func NewRegistry() *Registry {
	return &Registry{rewriters: []Rewriter{
		&NPMRewriter{},
		&CargoRewriter{},
		&PythonRewriter{},
		&CsprojRewriter{},
		&GoModuleRewriter{},
	}}
}

// All returns the registered rewriters.
func (r *Registry) All() []Rewriter { return r.rewriters }

// ByEcosystem returns the rewriter for an ecosystem tag.
func (r *Registry) ByEcosystem(eco string) (Rewriter, bool) {
	for _, rw := range r.rewriters {
		if rw.Ecosystem() == eco {
			return rw, true
		}
	}
	return nil, false
}

// Register appends a rewriter. Later registrations do not shadow earlier
// ones; Detect order follows registration order.
func (r *Registry) Register(rw Rewriter) {
	r.rewriters = append(r.rewriters, rw)
}

// ParseRequirement parses a manifest requirement annotation: "manual:<text>"
// or a commit hash.
func ParseRequirement(text string) (project.DepRequirement, error) {
	const op = "rewrite.ParseRequirement"

	text = strings.TrimSpace(text)
	if text == "" {
		return project.DepRequirement{}, jerrors.Parse(op, "empty dependency requirement")
	}
	if manual, ok := strings.CutPrefix(text, "manual:"); ok {
		if manual == "" {
			return project.DepRequirement{}, jerrors.Parse(op, "empty manual requirement")
		}
		return project.DepRequirement{Manual: manual}, nil
	}
	for _, c := range text {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return project.DepRequirement{}, jerrors.Parse(op,
				fmt.Sprintf("requirement %q is neither a commit hash nor a manual: spec", text))
		}
	}
	return project.DepRequirement{Commit: sourcecontrol.CommitHash(text)}, nil
}

// FormatRequirement renders a requirement back into annotation syntax.
func FormatRequirement(req project.DepRequirement) string {
	if req.IsCommit() {
		return string(req.Commit)
	}
	return "manual:" + req.Manual
}
