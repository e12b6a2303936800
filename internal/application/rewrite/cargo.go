package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
	"github.com/jitrel/jitrel/internal/fileutil"
)

// CargoRewriter handles Cargo.toml projects.
type CargoRewriter struct{}

// Ecosystem implements Rewriter.
func (w *CargoRewriter) Ecosystem() string { return "cargo" }

// Scheme implements Rewriter.
func (w *CargoRewriter) Scheme() version.Scheme { return version.SchemeSemver }

// Detect implements Rewriter. Workspace-only manifests have no [package]
// table and are not projects.
func (w *CargoRewriter) Detect(dir string) bool {
	data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return false
	}
	var manifest struct {
		Package *struct{} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return false
	}
	return manifest.Package != nil
}

// Load implements Rewriter.
func (w *CargoRewriter) Load(_ context.Context, dir string) (*ProjectMeta, error) {
	const op = "rewrite.CargoRewriter.Load"

	path := filepath.Join(dir, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jerrors.IOWrap(err, op, "reading Cargo.toml")
	}

	var manifest struct {
		Package struct {
			Name     string `toml:"name"`
			Version  string `toml:"version"`
			Metadata struct {
				InternalDeps map[string]string `toml:"internal_dep_versions"`
			} `toml:"metadata"`
		} `toml:"package"`
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, jerrors.ParseWrap(err, op, "parsing Cargo.toml")
	}
	if manifest.Package.Name == "" {
		return nil, jerrors.Parse(op, fmt.Sprintf("Cargo.toml in %s has no package name", dir))
	}

	meta := &ProjectMeta{Name: manifest.Package.Name, Version: manifest.Package.Version}
	for _, deps := range []map[string]any{manifest.Dependencies, manifest.DevDependencies} {
		for name, raw := range deps {
			literal := ""
			switch v := raw.(type) {
			case string:
				literal = v
			case map[string]any:
				if ver, ok := v["version"].(string); ok {
					literal = ver
				}
			}
			meta.Deps = append(meta.Deps, DepMeta{
				Name:        name,
				Literal:     literal,
				Requirement: manifest.Package.Metadata.InternalDeps[name],
			})
		}
	}
	return meta, nil
}

// WriteVersion implements Rewriter. The version line under [package] is
// rewritten in place to preserve formatting.
func (w *CargoRewriter) WriteVersion(_ context.Context, dir string, v version.Version) error {
	const op = "rewrite.CargoRewriter.WriteVersion"

	path := filepath.Join(dir, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading Cargo.toml")
	}

	re := regexp.MustCompile(`(?m)^(\s*version\s*=\s*)"[^"]+"`)
	if !re.Match(data) {
		return jerrors.Parse(op, "version not found in Cargo.toml")
	}
	newData := re.ReplaceAll(data, []byte(fmt.Sprintf(`${1}"%s"`, v)))
	if err := fileutil.AtomicWriteFile(path, newData, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing Cargo.toml")
	}
	return nil
}

// WriteDepRequirement implements Rewriter. Handles the inline form
// (`foo = "0.0.0-dev.0"`) and the expanded form with a version key inside
// a `[dependencies.foo]` style table or inline table.
func (w *CargoRewriter) WriteDepRequirement(_ context.Context, dir, depName string, minimum version.Version) error {
	const op = "rewrite.CargoRewriter.WriteDepRequirement"

	path := filepath.Join(dir, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading Cargo.toml")
	}

	name := regexp.QuoteMeta(depName)
	req := "^" + minimum.String()

	inline := regexp.MustCompile(fmt.Sprintf(`(?m)^(\s*%s\s*=\s*)"[^"]+"`, name))
	inlineTable := regexp.MustCompile(fmt.Sprintf(`(?m)^(\s*%s\s*=\s*\{[^}]*version\s*=\s*)"[^"]+"`, name))
	section := regexp.MustCompile(fmt.Sprintf(`(?ms)^(\[(?:dev-)?dependencies\.%s\][^\[]*?^\s*version\s*=\s*)"[^"]+"`, name))

	updated := false
	for _, re := range []*regexp.Regexp{inline, inlineTable, section} {
		if re.Match(data) {
			data = re.ReplaceAll(data, []byte(fmt.Sprintf(`${1}"%s"`, req)))
			updated = true
		}
	}
	if !updated {
		return jerrors.Dependency(op,
			fmt.Sprintf("Cargo.toml declares no dependency on %s", depName))
	}
	if err := fileutil.AtomicWriteFile(path, data, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing Cargo.toml")
	}
	return nil
}

// Files implements Rewriter.
func (w *CargoRewriter) Files(prefix string) []string {
	return []string{filepath.Join(prefix, "Cargo.toml")}
}
