package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Query project and release information",
}

var showToposortCmd = &cobra.Command{
	Use:   "toposort",
	Short: "Print the projects in dependency order",
	Long: `Print the qualified name of every tracked project, dependees before
the projects that depend on them. Useful for driving per-project build
steps in the right order.`,
	Args: cobra.NoArgs,
	RunE: runShowToposort,
}

var showVersionCmd = &cobra.Command{
	Use:   "version <project>",
	Short: "Print a project's most recently released version",
	Long: `Print the released version of a project as recorded on the release
branch. The answer comes from release records, never from the metadata
files in the working tree, which usually carry development placeholders.`,
	Args: cobra.ExactArgs(1),
	RunE: runShowVersion,
}

var showIfReleasedCmd = &cobra.Command{
	Use:   "if-released <project>",
	Short: "Report whether HEAD's release commit released a project",
	Long: `Report whether the named project's version was assigned in the
release commit checked out at HEAD. Deployment scripts use this to act
only on projects actually released in the current batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runShowIfReleased,
}

func init() {
	showCmd.AddCommand(showToposortCmd)
	showCmd.AddCommand(showVersionCmd)
	showCmd.AddCommand(showIfReleasedCmd)
	rootCmd.AddCommand(showCmd)
}

func runShowToposort(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	names, err := apprelease.NewQueries(session).Toposort()
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(names)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runShowVersion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	version, err := apprelease.NewQueries(session).Version(ctx, args[0])
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(map[string]string{"version": version})
	}
	fmt.Println(version)
	return nil
}

func runShowIfReleased(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	res, err := apprelease.NewQueries(session).IfReleased(ctx, args[0])
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(res)
	}
	if res.Released {
		fmt.Printf("released %s\n", res.Version)
	} else {
		fmt.Println("not released")
	}
	return nil
}
