package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
)

var (
	confirmForce bool
	confirmYes   bool
)

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Turn staged changelog stanzas into a release request",
	Long: `Scan the pending changelog stanzas, validate internal dependencies,
and commit the resulting release request to the rc branch.

The rc commit's message carries the requested projects and bump
specifications in a machine-readable block; pushing the rc branch hands
the request to CI, which runs the release-workflow commands against it.

Examples:
  # Request release of everything staged
  jitrel confirm

  # Skip the confirmation prompt
  jitrel confirm --yes`,
	RunE: runConfirm,
}

func init() {
	confirmCmd.Flags().BoolVarP(&confirmForce, "force", "f", false, "proceed despite a dirty tree or pipeline state")
	confirmCmd.Flags().BoolVarP(&confirmYes, "yes", "y", false, "create the request without prompting")
	rootCmd.AddCommand(confirmCmd)
}

// promptForConfirmation asks before writing the rc branch. JSON mode is
// assumed non-interactive and never prompts.
func promptForConfirmation() (bool, error) {
	if confirmYes || cfg.Output.JSON {
		return true, nil
	}

	proceed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Commit the release request to branch %q?", cfg.Repo.RCName)).
			Affirmative("Confirm").
			Negative("Cancel").
			Value(&proceed),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return proceed, nil
}

func runConfirm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	proceed, err := promptForConfirmation()
	if err != nil {
		return err
	}
	if !proceed {
		printInfo("release request canceled")
		return nil
	}

	out, err := apprelease.NewConfirmUseCase(session).Execute(ctx, apprelease.ConfirmInput{
		Force: confirmForce,
	})
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}

	if out.Commit.IsEmpty() {
		printInfo("nothing staged; no release request created")
		return nil
	}
	for _, name := range out.Requested {
		printSuccess(fmt.Sprintf("release requested: %s", name))
	}
	fmt.Println()
	printSubtle(fmt.Sprintf("Request committed to %q as %s. Push the branch to hand it to CI.",
		cfg.Repo.RCName, out.Commit.Short()))
	return nil
}
