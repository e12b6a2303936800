package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
	"github.com/jitrel/jitrel/internal/fileutil"
)

// GoModuleRewriter handles Go modules. The module's version lives in a
// version.go constant since go.mod carries no own-version field;
// in-repository module dependencies are release-tagged, so requirement
// rewriting is not supported and internal deps must be manual.
type GoModuleRewriter struct{}

// Ecosystem implements Rewriter.
func (w *GoModuleRewriter) Ecosystem() string { return "gomod" }

// Scheme implements Rewriter.
func (w *GoModuleRewriter) Scheme() version.Scheme { return version.SchemeSemver }

var (
	goModuleRe  = regexp.MustCompile(`(?m)^module\s+(\S+)`)
	goVersionRe = regexp.MustCompile(`(?m)^(\s*(?:const\s+)?Version\s*(?:string\s*)?=\s*)"([^"]+)"`)
)

func goVersionFile(dir string) string {
	paths := []string{
		filepath.Join(dir, "version.go"),
		filepath.Join(dir, "internal", "version", "version.go"),
		filepath.Join(dir, "pkg", "version", "version.go"),
	}
	for _, p := range paths {
		if data, err := os.ReadFile(p); err == nil && goVersionRe.Match(data) {
			return p
		}
	}
	return ""
}

// Detect implements Rewriter. A go.mod alone is not enough: without a
// version.go constant there is nothing to rewrite.
func (w *GoModuleRewriter) Detect(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err != nil {
		return false
	}
	return goVersionFile(dir) != ""
}

// Load implements Rewriter.
func (w *GoModuleRewriter) Load(_ context.Context, dir string) (*ProjectMeta, error) {
	const op = "rewrite.GoModuleRewriter.Load"

	modData, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return nil, jerrors.IOWrap(err, op, "reading go.mod")
	}
	m := goModuleRe.FindSubmatch(modData)
	if len(m) < 2 {
		return nil, jerrors.Parse(op, fmt.Sprintf("no module directive in %s/go.mod", dir))
	}
	name := filepath.Base(string(m[1]))

	vf := goVersionFile(dir)
	if vf == "" {
		return nil, jerrors.NotFound(op, fmt.Sprintf("no version.go constant found under %s", dir))
	}
	data, err := os.ReadFile(vf)
	if err != nil {
		return nil, jerrors.IOWrap(err, op, "reading version file")
	}
	vm := goVersionRe.FindSubmatch(data)

	return &ProjectMeta{Name: name, Version: string(vm[2])}, nil
}

// WriteVersion implements Rewriter.
func (w *GoModuleRewriter) WriteVersion(_ context.Context, dir string, v version.Version) error {
	const op = "rewrite.GoModuleRewriter.WriteVersion"

	vf := goVersionFile(dir)
	if vf == "" {
		return jerrors.NotFound(op, fmt.Sprintf("no version.go constant found under %s", dir))
	}
	data, err := os.ReadFile(vf)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading version file")
	}
	newData := goVersionRe.ReplaceAll(data, []byte(fmt.Sprintf(`${1}"%s"`, v)))
	if err := fileutil.AtomicWriteFile(vf, newData, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing version file")
	}
	return nil
}

// WriteDepRequirement implements Rewriter.
func (w *GoModuleRewriter) WriteDepRequirement(_ context.Context, _ string, depName string, _ version.Version) error {
	const op = "rewrite.GoModuleRewriter.WriteDepRequirement"

	return jerrors.Dependency(op,
		fmt.Sprintf("go modules resolve %s through release tags; use a manual requirement", depName))
}

// Files implements Rewriter.
func (w *GoModuleRewriter) Files(prefix string) []string {
	return []string{
		filepath.Join(prefix, "version.go"),
		filepath.Join(prefix, "internal", "version", "version.go"),
		filepath.Join(prefix, "pkg", "version", "version.go"),
	}
}
