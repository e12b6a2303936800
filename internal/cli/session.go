package cli

import (
	"context"
	"encoding/json"
	"os"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
	"github.com/jitrel/jitrel/internal/application/rewrite"
	"github.com/jitrel/jitrel/internal/infrastructure/git"
)

// openSession opens the repository enclosing the working directory and
// discovers its projects and release history.
func openSession(ctx context.Context) (*apprelease.Session, error) {
	repo, err := git.Open(".", cfg.Repo.UpstreamURLs)
	if err != nil {
		return nil, err
	}
	return apprelease.NewSession(ctx, repo, cfg, rewrite.NewRegistry(), logger)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
