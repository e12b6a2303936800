package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
)

var stageForce bool

var stageCmd = &cobra.Command{
	Use:   "stage [projects...]",
	Short: "Draft changelog stanzas for projects planned for release",
	Long: `Write stub release stanzas into the changelogs of projects with
unreleased changes.

Each stanza opens with a "# rc: micro bump" header followed by the
subjects of the relevant commits. Edit the header to request a different
bump ("minor bump", "major bump", "force 1.2.3") and rewrite the notes
before running 'jitrel confirm'.

Without arguments every project with unreleased changes is staged.

Examples:
  # Stage everything with unreleased work
  jitrel stage

  # Stage two specific projects
  jitrel stage core_lib cli`,
	RunE: runStage,
}

func init() {
	stageCmd.Flags().BoolVarP(&stageForce, "force", "f", false, "proceed despite a dirty tree or pipeline state")
	rootCmd.AddCommand(stageCmd)
}

func runStage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out, err := apprelease.NewStageUseCase(session).Execute(ctx, apprelease.StageInput{
		Names: args,
		Force: stageForce,
	})
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}

	for _, name := range out.Staged {
		printSuccess(fmt.Sprintf("staged %s", name))
	}
	for _, name := range out.Skipped {
		printWarning(fmt.Sprintf("%s has no unreleased changes, skipped", name))
	}
	if len(out.Staged) == 0 && len(out.Skipped) == 0 {
		printInfo("no projects with unreleased changes")
		return nil
	}
	if len(out.Staged) > 0 {
		fmt.Println()
		printSubtle("Edit the changelog stanzas, then run 'jitrel confirm'.")
	}
	return nil
}
