package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
)

var (
	applyForce  bool
	commitForce bool
	tagForce    bool
)

var releaseWorkflowCmd = &cobra.Command{
	Use:   "release-workflow",
	Short: "CI-side steps of the release pipeline",
	Long: `Commands run by the release automation against a pushed rc branch.

The expected sequence is:
  jitrel release-workflow apply-versions
  <build and test the rewritten tree>
  jitrel release-workflow commit
  jitrel release-workflow tag`,
}

var applyVersionsCmd = &cobra.Command{
	Use:   "apply-versions",
	Short: "Compute new versions and write them into project files",
	Long: `Compute version numbers and stamp them, along with resolved internal
dependency requirements, into project metadata files.

On the rc branch the bumps come from the release request in HEAD's
commit message and pending changelog stanzas are finalized. On any
other branch every project receives a dated development version, which
is useful for building one-off snapshots.`,
	RunE: runApplyVersions,
}

var commitReleaseCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the released tree to the release branch",
	Long: `Merge the version-stamped tree into the release branch.

The commit message records the version of every tracked project; its
parents are the previous release commit and the released rc commit.
HEAD moves to the release branch so that tagging operates on the new
commit.`,
	RunE: runCommitRelease,
}

var tagReleaseCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag the projects released in the commit at HEAD",
	Long: `Create one annotated tag per project whose version was assigned in
the release commit at HEAD, named per repo.release_tag_name_format.`,
	RunE: runTagRelease,
}

func init() {
	applyVersionsCmd.Flags().BoolVarP(&applyForce, "force", "f", false, "proceed despite the pipeline state")
	commitReleaseCmd.Flags().BoolVarP(&commitForce, "force", "f", false, "proceed despite the pipeline state")
	tagReleaseCmd.Flags().BoolVarP(&tagForce, "force", "f", false, "proceed despite the pipeline state")

	releaseWorkflowCmd.AddCommand(applyVersionsCmd)
	releaseWorkflowCmd.AddCommand(commitReleaseCmd)
	releaseWorkflowCmd.AddCommand(tagReleaseCmd)
	rootCmd.AddCommand(releaseWorkflowCmd)
}

func runApplyVersions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out, err := apprelease.NewApplyVersionsUseCase(session).Execute(ctx, apprelease.ApplyVersionsInput{
		Force: applyForce,
	})
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}

	if out.DevMode {
		printInfo("not on the rc branch; development versions applied")
	}
	names := make([]string, 0, len(out.Versions))
	for name := range out.Versions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printSuccess(fmt.Sprintf("%s → %s", name, out.Versions[name]))
	}
	if len(names) == 0 {
		printInfo("no versions to assign")
	}
	return nil
}

func runCommitRelease(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out, err := apprelease.NewCommitReleaseUseCase(session).Execute(ctx, apprelease.CommitReleaseInput{
		Force: commitForce,
	})
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}

	for _, name := range out.Released {
		printSuccess(fmt.Sprintf("released %s", name))
	}
	fmt.Println()
	printSubtle(fmt.Sprintf("Release commit %s created on %q. Push the branch and its tags after tagging.",
		out.Commit.Short(), cfg.Repo.ReleaseName))
	return nil
}

func runTagRelease(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out, err := apprelease.NewTagReleaseUseCase(session).Execute(ctx, apprelease.TagReleaseInput{
		Force: tagForce,
	})
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}

	for _, tag := range out.Tags {
		printSuccess(fmt.Sprintf("tagged %s", tag))
	}
	if len(out.Tags) == 0 {
		printInfo("nothing released in this commit; no tags created")
	}
	return nil
}
