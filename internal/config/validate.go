package config

import (
	"fmt"
	"strings"

	jerrors "github.com/jitrel/jitrel/internal/errors"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.Repo.RCName == "" {
		return jerrors.Validation(op, "repo.rc_name must not be empty")
	}
	if c.Repo.ReleaseName == "" {
		return jerrors.Validation(op, "repo.release_name must not be empty")
	}
	if c.Repo.RCName == c.Repo.ReleaseName {
		return jerrors.Validation(op, fmt.Sprintf("repo.rc_name and repo.release_name must differ, both are %q", c.Repo.RCName))
	}

	if !strings.Contains(c.Repo.ReleaseTagNameFormat, "{version}") {
		return jerrors.Validation(op, "repo.release_tag_name_format must contain the {version} placeholder")
	}

	for qname := range c.Projects {
		if !strings.Contains(qname, ":") {
			return jerrors.Validation(op, fmt.Sprintf("project key %q is not a qualified name (expected ecosystem:name)", qname))
		}
	}

	if !validLogLevels[c.Output.LogLevel] {
		return jerrors.Validation(op, fmt.Sprintf("output.log_level %q is not one of debug, info, warn, error", c.Output.LogLevel))
	}

	return nil
}

// FormatTagName expands the release tag template for a project slug and
// version string.
func (c *Config) FormatTagName(projectSlug, version string) string {
	name := strings.ReplaceAll(c.Repo.ReleaseTagNameFormat, "{project_slug}", projectSlug)
	return strings.ReplaceAll(name, "{version}", version)
}
