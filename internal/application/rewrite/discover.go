package rewrite

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/jitrel/jitrel/internal/domain/project"
	"github.com/jitrel/jitrel/internal/domain/sourcecontrol"
	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
)

// devPlaceholder is the version assumed for manifests that carry none.
func devPlaceholder(scheme version.Scheme) string {
	switch scheme {
	case version.SchemePEP440:
		return "0.0.0.dev0"
	case version.SchemeQuad:
		return "0.0.0.0"
	default:
		return "0.0.0-dev.0"
	}
}

// Discover scans the tracked tree for project manifests and builds the
// project registry: autodetection, central ignore overrides, then internal
// dependency edges between discovered projects of the same ecosystem.
func Discover(ctx context.Context, tree sourcecontrol.TreeReader, rewriters *Registry, ignored map[string]bool, logger *log.Logger) (*project.Registry, error) {
	const op = "rewrite.Discover"

	paths, err := tree.ListPaths(ctx)
	if err != nil {
		return nil, err
	}

	dirSet := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(p)
		if dir == "." {
			dir = ""
		}
		dirSet[dir] = true
	}
	dirs := make([]string, 0, len(dirSet))
	for dir := range dirSet {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	reg := project.NewRegistry()
	metas := make(map[project.ID]*ProjectMeta)

	for _, dir := range dirs {
		absDir := filepath.Join(tree.Root(), dir)
		for _, rw := range rewriters.All() {
			if !rw.Detect(absDir) {
				continue
			}
			meta, err := rw.Load(ctx, absDir)
			if err != nil {
				return nil, err
			}

			text := meta.Version
			if text == "" {
				text = devPlaceholder(rw.Scheme())
			}
			current, err := version.Parse(rw.Scheme(), text)
			if err != nil {
				return nil, jerrors.ParseWrap(err, op,
					"manifest version for "+meta.Name+" is unparseable")
			}

			qname := project.QualifiedName{Ecosystem: rw.Ecosystem(), Name: meta.Name}
			p := project.NewProject(qname, dir, rw.Scheme(), current)
			if err := reg.Add(p); err != nil {
				return nil, err
			}
			metas[p.ID()] = meta
			logger.Debug("discovered project",
				"project", qname.String(), "prefix", p.Prefix(), "version", current.String())
		}
	}

	for _, p := range reg.All() {
		if ignored[p.QualifiedName().String()] {
			p.SetIgnored(true)
		}
	}

	// Second pass: dependency edges between discovered projects. Deps on
	// anything outside the repository are not internal and are dropped.
	for _, p := range reg.All() {
		meta := metas[p.ID()]
		for _, dep := range meta.Deps {
			dependee, ok := reg.ByQualifiedName(project.QualifiedName{
				Ecosystem: p.QualifiedName().Ecosystem,
				Name:      dep.Name,
			})
			if !ok {
				continue
			}

			var req project.DepRequirement
			if dep.Requirement == "" {
				logger.Warn("missing internal dependency requirement",
					"project", p.QualifiedName().String(),
					"dependee", dependee.QualifiedName().String())
				literal := dep.Literal
				if literal == "" {
					literal = "*"
				}
				req = project.DepRequirement{Manual: literal}
			} else {
				req, err = ParseRequirement(dep.Requirement)
				if err != nil {
					return nil, err
				}
			}

			p.AddDependency(project.Dependency{
				Dependee: dependee.QualifiedName(),
				Literal:  dep.Literal,
				Req:      req,
			})
		}
	}

	return reg, nil
}
