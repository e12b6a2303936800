package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
	"github.com/jitrel/jitrel/internal/fileutil"
)

// PythonRewriter handles pyproject.toml and setup.py projects.
type PythonRewriter struct{}

// Ecosystem implements Rewriter.
func (w *PythonRewriter) Ecosystem() string { return "pypi" }

// Scheme implements Rewriter.
func (w *PythonRewriter) Scheme() version.Scheme { return version.SchemePEP440 }

// Detect implements Rewriter.
func (w *PythonRewriter) Detect(dir string) bool {
	for _, f := range []string{"pyproject.toml", "setup.py"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err == nil {
			return true
		}
	}
	return false
}

// Load implements Rewriter. pyproject.toml wins over setup.py.
func (w *PythonRewriter) Load(_ context.Context, dir string) (*ProjectMeta, error) {
	const op = "rewrite.PythonRewriter.Load"

	pyprojectPath := filepath.Join(dir, "pyproject.toml")
	if data, err := os.ReadFile(pyprojectPath); err == nil {
		var manifest struct {
			Project struct {
				Name         string   `toml:"name"`
				Version      string   `toml:"version"`
				Dependencies []string `toml:"dependencies"`
			} `toml:"project"`
			Tool struct {
				Jitrel struct {
					InternalDeps map[string]string `toml:"internal_dep_versions"`
				} `toml:"jitrel"`
			} `toml:"tool"`
		}
		if err := toml.Unmarshal(data, &manifest); err != nil {
			return nil, jerrors.ParseWrap(err, op, "parsing pyproject.toml")
		}
		if manifest.Project.Name != "" {
			meta := &ProjectMeta{Name: manifest.Project.Name, Version: manifest.Project.Version}
			for _, spec := range manifest.Project.Dependencies {
				name, literal := splitPEP508(spec)
				meta.Deps = append(meta.Deps, DepMeta{
					Name:        name,
					Literal:     literal,
					Requirement: manifest.Tool.Jitrel.InternalDeps[name],
				})
			}
			return meta, nil
		}
	}

	setupPath := filepath.Join(dir, "setup.py")
	data, err := os.ReadFile(setupPath)
	if err != nil {
		return nil, jerrors.IOWrap(err, op, "reading python project files")
	}
	nameRe := regexp.MustCompile(`name\s*=\s*["']([^"']+)["']`)
	versionRe := regexp.MustCompile(`version\s*=\s*["']([^"']+)["']`)
	nameMatch := nameRe.FindSubmatch(data)
	if len(nameMatch) < 2 {
		return nil, jerrors.Parse(op, fmt.Sprintf("no project name found in %s", setupPath))
	}
	meta := &ProjectMeta{Name: string(nameMatch[1])}
	if versionMatch := versionRe.FindSubmatch(data); len(versionMatch) >= 2 {
		meta.Version = string(versionMatch[1])
	}
	return meta, nil
}

// splitPEP508 splits a requirement spec like "foo >=1.2" into name and the
// trailing specifier text.
func splitPEP508(spec string) (name, literal string) {
	spec = strings.TrimSpace(spec)
	idx := strings.IndexAny(spec, " <>=!~;[")
	if idx < 0 {
		return spec, ""
	}
	return strings.TrimSpace(spec[:idx]), strings.TrimSpace(spec[idx:])
}

// WriteVersion implements Rewriter.
func (w *PythonRewriter) WriteVersion(_ context.Context, dir string, v version.Version) error {
	const op = "rewrite.PythonRewriter.WriteVersion"

	wrote := false
	pyprojectPath := filepath.Join(dir, "pyproject.toml")
	if data, err := os.ReadFile(pyprojectPath); err == nil {
		re := regexp.MustCompile(`(?m)^(\s*version\s*=\s*)"[^"]+"`)
		if re.Match(data) {
			newData := re.ReplaceAll(data, []byte(fmt.Sprintf(`${1}"%s"`, v)))
			if err := fileutil.AtomicWriteFile(pyprojectPath, newData, 0o644); err != nil {
				return jerrors.IOWrap(err, op, "writing pyproject.toml")
			}
			wrote = true
		}
	}

	setupPath := filepath.Join(dir, "setup.py")
	if data, err := os.ReadFile(setupPath); err == nil {
		re := regexp.MustCompile(`(version\s*=\s*)["'][^"']+["']`)
		if re.Match(data) {
			newData := re.ReplaceAll(data, []byte(fmt.Sprintf(`${1}"%s"`, v)))
			if err := fileutil.AtomicWriteFile(setupPath, newData, 0o644); err != nil {
				return jerrors.IOWrap(err, op, "writing setup.py")
			}
			wrote = true
		}
	}

	if !wrote {
		return jerrors.Parse(op, "no python version declaration found to update")
	}
	return nil
}

// WriteDepRequirement implements Rewriter. Only pyproject.toml dependency
// lists are rewritten; setup.py requirement editing is not supported.
func (w *PythonRewriter) WriteDepRequirement(_ context.Context, dir, depName string, minimum version.Version) error {
	const op = "rewrite.PythonRewriter.WriteDepRequirement"

	path := filepath.Join(dir, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading pyproject.toml")
	}

	re := regexp.MustCompile(fmt.Sprintf(`"(%s)\s*[^"]*"`, regexp.QuoteMeta(depName)))
	if !re.Match(data) {
		return jerrors.Dependency(op,
			fmt.Sprintf("pyproject.toml declares no dependency on %s", depName))
	}
	newData := re.ReplaceAll(data, []byte(fmt.Sprintf(`"${1} >=%s"`, minimum)))
	if err := fileutil.AtomicWriteFile(path, newData, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing pyproject.toml")
	}
	return nil
}

// Files implements Rewriter.
func (w *PythonRewriter) Files(prefix string) []string {
	var files []string
	for _, f := range []string{"pyproject.toml", "setup.py"} {
		files = append(files, filepath.Join(prefix, f))
	}
	return files
}
