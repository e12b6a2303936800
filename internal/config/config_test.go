package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "rc", cfg.Repo.RCName)
	assert.Equal(t, "release", cfg.Repo.ReleaseName)
	assert.Equal(t, "{project_slug}@{version}", cfg.Repo.ReleaseTagNameFormat)
	assert.True(t, cfg.Workflow.RequireCleanWorkingTree)
	assert.Equal(t, "info", cfg.Output.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutConfigFile(t *testing.T) {
	cfg, err := LoadFromDirectory(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "rc", cfg.Repo.RCName)
	assert.Equal(t, "release", cfg.Repo.ReleaseName)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".jitrel.yaml")
	content := `repo:
  rc_name: candidate
  release_tag_name_format: "v{version}"
  upstream_urls:
    - https://example.com/widgets.git
projects:
  "pypi:tcprint":
    ignore: true
output:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "candidate", cfg.Repo.RCName)
	assert.Equal(t, "release", cfg.Repo.ReleaseName)
	assert.Equal(t, []string{"https://example.com/widgets.git"}, cfg.Repo.UpstreamURLs)
	assert.Equal(t, "debug", cfg.Output.LogLevel)
	assert.True(t, cfg.IsIgnored("pypi:tcprint"))
	assert.False(t, cfg.IsIgnored("npm:webapp"))
	assert.Equal(t, map[string]bool{"pypi:tcprint": true}, cfg.IgnoredProjects())
}

func TestLoadFromDirectorySearch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jitrel.config.yml")
	require.NoError(t, os.WriteFile(path, []byte("repo:\n  release_name: stable\n"), 0o644))

	cfg, err := LoadFromDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, "stable", cfg.Repo.ReleaseName)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".jitrel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repo:\n  rc_name: release\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindValidation))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty rc name",
			mutate:  func(c *Config) { c.Repo.RCName = "" },
			wantErr: "rc_name",
		},
		{
			name:    "empty release name",
			mutate:  func(c *Config) { c.Repo.ReleaseName = "" },
			wantErr: "release_name",
		},
		{
			name:    "identical branch names",
			mutate:  func(c *Config) { c.Repo.RCName = "release" },
			wantErr: "must differ",
		},
		{
			name:    "tag format without version",
			mutate:  func(c *Config) { c.Repo.ReleaseTagNameFormat = "{project_slug}" },
			wantErr: "{version}",
		},
		{
			name: "unqualified project key",
			mutate: func(c *Config) {
				c.Projects = map[string]ProjectConfig{"webapp": {Ignore: true}}
			},
			wantErr: "qualified name",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Output.LogLevel = "loud" },
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, jerrors.IsKind(err, jerrors.KindValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFormatTagName(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "webapp@1.2.0", cfg.FormatTagName("webapp", "1.2.0"))

	cfg.Repo.ReleaseTagNameFormat = "releases/{project_slug}/v{version}"
	assert.Equal(t, "releases/widgets/v0.1.2", cfg.FormatTagName("widgets", "0.1.2"))
}

func TestWriteAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".jitrel.yaml")

	require.NoError(t, WriteDefaultConfig(path))
	assert.True(t, ConfigExists(dir))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rc", cfg.Repo.RCName)
	assert.Equal(t, "{project_slug}@{version}", cfg.Repo.ReleaseTagNameFormat)
}

func TestFindConfigFileMissing(t *testing.T) {
	_, err := FindConfigFile(t.TempDir())
	require.Error(t, err)
	assert.True(t, jerrors.IsKind(err, jerrors.KindNotFound))
}
