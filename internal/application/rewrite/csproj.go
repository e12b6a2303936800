package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jitrel/jitrel/internal/domain/version"
	jerrors "github.com/jitrel/jitrel/internal/errors"
	"github.com/jitrel/jitrel/internal/fileutil"
)

// CsprojRewriter handles .NET projects described by a .csproj file. .NET
// assembly versions are four bounded components, hence the quad scheme.
type CsprojRewriter struct{}

// Ecosystem implements Rewriter.
func (w *CsprojRewriter) Ecosystem() string { return "nuget" }

// Scheme implements Rewriter.
func (w *CsprojRewriter) Scheme() version.Scheme { return version.SchemeQuad }

func findCsproj(dir string) string {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.csproj"))
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// Detect implements Rewriter.
func (w *CsprojRewriter) Detect(dir string) bool {
	return findCsproj(dir) != ""
}

// Load implements Rewriter. The project name is the csproj basename; the
// version comes from the <Version> property.
func (w *CsprojRewriter) Load(_ context.Context, dir string) (*ProjectMeta, error) {
	const op = "rewrite.CsprojRewriter.Load"

	path := findCsproj(dir)
	if path == "" {
		return nil, jerrors.NotFound(op, fmt.Sprintf("no .csproj file in %s", dir))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jerrors.IOWrap(err, op, "reading .csproj")
	}

	meta := &ProjectMeta{
		Name: strings.TrimSuffix(filepath.Base(path), ".csproj"),
	}
	versionRe := regexp.MustCompile(`<Version>([^<]+)</Version>`)
	if m := versionRe.FindSubmatch(data); len(m) >= 2 {
		meta.Version = string(m[1])
	}

	// Internal requirements ride in comment-free ProjectReference-adjacent
	// properties: <JitrelInternalDep Include="Name" Requirement="..."/>.
	depRe := regexp.MustCompile(`<JitrelInternalDep\s+Include="([^"]+)"\s+Requirement="([^"]+)"`)
	for _, m := range depRe.FindAllSubmatch(data, -1) {
		meta.Deps = append(meta.Deps, DepMeta{
			Name:        string(m[1]),
			Requirement: string(m[2]),
		})
	}
	return meta, nil
}

// WriteVersion implements Rewriter.
func (w *CsprojRewriter) WriteVersion(_ context.Context, dir string, v version.Version) error {
	const op = "rewrite.CsprojRewriter.WriteVersion"

	path := findCsproj(dir)
	if path == "" {
		return jerrors.NotFound(op, fmt.Sprintf("no .csproj file in %s", dir))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading .csproj")
	}

	re := regexp.MustCompile(`(<Version>)[^<]+(</Version>)`)
	if !re.Match(data) {
		return jerrors.Parse(op, "no <Version> property found in .csproj")
	}
	newData := re.ReplaceAll(data, []byte(fmt.Sprintf("${1}%s${2}", v)))
	if err := fileutil.AtomicWriteFile(path, newData, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing .csproj")
	}
	return nil
}

// WriteDepRequirement implements Rewriter. Rewrites the matching
// PackageReference version attribute.
func (w *CsprojRewriter) WriteDepRequirement(_ context.Context, dir, depName string, minimum version.Version) error {
	const op = "rewrite.CsprojRewriter.WriteDepRequirement"

	path := findCsproj(dir)
	if path == "" {
		return jerrors.NotFound(op, fmt.Sprintf("no .csproj file in %s", dir))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return jerrors.IOWrap(err, op, "reading .csproj")
	}

	re := regexp.MustCompile(fmt.Sprintf(
		`(<PackageReference\s+Include="%s"\s+Version=")[^"]+(")`, regexp.QuoteMeta(depName)))
	if !re.Match(data) {
		return jerrors.Dependency(op,
			fmt.Sprintf(".csproj declares no PackageReference to %s", depName))
	}
	newData := re.ReplaceAll(data, []byte(fmt.Sprintf("${1}%s${2}", minimum)))
	if err := fileutil.AtomicWriteFile(path, newData, 0o644); err != nil {
		return jerrors.IOWrap(err, op, "writing .csproj")
	}
	return nil
}

// Files implements Rewriter.
func (w *CsprojRewriter) Files(prefix string) []string {
	// Repo-relative glob resolution happens at the call site; report the
	// conventional single csproj for the prefix directory name.
	base := filepath.Base(strings.TrimSuffix(prefix, "/"))
	if base == "." || base == "" {
		return nil
	}
	return []string{filepath.Join(prefix, base+".csproj")}
}
