package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
	"github.com/jitrel/jitrel/internal/fileutil"
)

// NPMRewriter handles package.json projects.
type NPMRewriter struct{}

// Ecosystem implements Rewriter.
func (w *NPMRewriter) Ecosystem() string { return "npm" }

// Scheme implements Rewriter.
func (w *NPMRewriter) Scheme() version.Scheme { return version.SchemeSemver }

// Detect implements Rewriter.
func (w *NPMRewriter) Detect(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "package.json"))
	return err == nil
}

// Load implements Rewriter.
func (w *NPMRewriter) Load(_ context.Context, dir string) (*ProjectMeta, error) {
	const op = "rewrite.NPMRewriter.Load"

	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jerrors.IOWrap(err, op, "reading package.json")
	}

	var pkg struct {
		Name            string            `json:"name"`
		Version         string            `json:"version"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
		InternalDeps    map[string]string `json:"internalDepVersions"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, jerrors.ParseWrap(err, op, "parsing package.json")
	}
	if pkg.Name == "" {
		return nil, jerrors.Parse(op, fmt.Sprintf("package.json in %s has no name", dir))
	}

	meta := &ProjectMeta{Name: pkg.Name, Version: pkg.Version}
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for name, literal := range deps {
			meta.Deps = append(meta.Deps, DepMeta{
				Name:        name,
				Literal:     literal,
				Requirement: pkg.InternalDeps[name],
			})
		}
	}
	return meta, nil
}

// WriteVersion implements Rewriter. The file is decoded into a generic map
// so unknown fields survive the round trip.
func (w *NPMRewriter) WriteVersion(_ context.Context, dir string, v version.Version) error {
	const op = "rewrite.NPMRewriter.WriteVersion"

	return w.mutate(op, dir, func(pkg map[string]any) error {
		pkg["version"] = v.String()
		return nil
	})
}

// WriteDepRequirement implements Rewriter. npm requirement syntax is a
// caret range anchored at the minimum version.
func (w *NPMRewriter) WriteDepRequirement(_ context.Context, dir, depName string, minimum version.Version) error {
	const op = "rewrite.NPMRewriter.WriteDepRequirement"

	return w.mutate(op, dir, func(pkg map[string]any) error {
		req := "^" + minimum.String()
		updated := false
		for _, key := range []string{"dependencies", "devDependencies"} {
			deps, ok := pkg[key].(map[string]any)
			if !ok {
				continue
			}
			if _, ok := deps[depName]; ok {
				deps[depName] = req
				updated = true
			}
		}
		if !updated {
			return jerrors.Dependency(op,
				fmt.Sprintf("package.json declares no dependency on %s", depName))
		}
		return nil
	})
}

func (w *NPMRewriter) mutate(op, dir string, fn func(map[string]any) error) error {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading package.json")
	}

	var pkg map[string]any
	if err := json.Unmarshal(data, &pkg); err != nil {
		return jerrors.ParseWrap(err, op, "parsing package.json")
	}
	if err := fn(pkg); err != nil {
		return err
	}

	output, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return jerrors.Wrap(err, jerrors.KindInternal, op, "marshaling package.json")
	}
	output = append(output, '\n')
	if err := fileutil.AtomicWriteFile(path, output, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing package.json")
	}
	return nil
}

// Files implements Rewriter.
func (w *NPMRewriter) Files(prefix string) []string {
	return []string{filepath.Join(prefix, "package.json")}
}
