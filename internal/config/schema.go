// Package config provides configuration management for jitrel.
package config

// Config is the root configuration for jitrel.
type Config struct {
	// Repo configures repository-level settings.
	Repo RepoConfig `mapstructure:"repo" json:"repo"`
	// Projects holds per-project overrides keyed by qualified name.
	Projects map[string]ProjectConfig `mapstructure:"projects" json:"projects,omitempty"`
	// Workflow configures the release workflow.
	Workflow WorkflowConfig `mapstructure:"workflow" json:"workflow"`
	// Output configures output settings.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// RepoConfig configures repository-level settings.
type RepoConfig struct {
	// RCName is the name of the release-candidate branch.
	RCName string `mapstructure:"rc_name" json:"rc_name"`
	// ReleaseName is the name of the release branch.
	ReleaseName string `mapstructure:"release_name" json:"release_name"`
	// ReleaseTagNameFormat is the template for per-project release tags.
	// Supports {project_slug} and {version} placeholders.
	ReleaseTagNameFormat string `mapstructure:"release_tag_name_format" json:"release_tag_name_format"`
	// UpstreamURLs identifies the canonical upstream remote when the
	// repository has several remotes and none is named "origin".
	UpstreamURLs []string `mapstructure:"upstream_urls" json:"upstream_urls,omitempty"`
}

// ProjectConfig holds per-project overrides.
type ProjectConfig struct {
	// Ignore removes the project from the registry regardless of
	// loader detection.
	Ignore bool `mapstructure:"ignore" json:"ignore"`
}

// WorkflowConfig configures the release workflow.
type WorkflowConfig struct {
	// RequireCleanWorkingTree refuses mutating operations on a dirty tree.
	RequireCleanWorkingTree bool `mapstructure:"require_clean_working_tree" json:"require_clean_working_tree"`
}

// OutputConfig configures output settings.
type OutputConfig struct {
	// Color enables colored terminal output.
	Color bool `mapstructure:"color" json:"color"`
	// JSON switches query commands to machine-readable output.
	JSON bool `mapstructure:"json" json:"json"`
	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// ConfigFileNames are the base names searched for a config file.
var ConfigFileNames = []string{".jitrel", "jitrel.config"}

// ConfigFileExtensions are the recognized config file extensions.
var ConfigFileExtensions = []string{"yaml", "yml"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			RCName:               "rc",
			ReleaseName:          "release",
			ReleaseTagNameFormat: "{project_slug}@{version}",
		},
		Workflow: WorkflowConfig{
			RequireCleanWorkingTree: true,
		},
		Output: OutputConfig{
			Color:    true,
			LogLevel: "info",
		},
	}
}

// IsIgnored reports whether the named project is forced out of the
// registry by configuration.
func (c *Config) IsIgnored(qname string) bool {
	p, ok := c.Projects[qname]
	return ok && p.Ignore
}

// IgnoredProjects returns the qualified names forced to ignored.
func (c *Config) IgnoredProjects() map[string]bool {
	out := make(map[string]bool, len(c.Projects))
	for qname, p := range c.Projects {
		if p.Ignore {
			out[qname] = true
		}
	}
	return out
}
