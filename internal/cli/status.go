package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-project release status",
	Long: `Display every tracked project with its version and the amount of
unreleased work sitting on top of it.

Projects are listed in dependency order. The commit count covers commits
since the project's last release that touch its files.

Examples:
  # Check project status
  jitrel status

  # Output as JSON
  jitrel status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out, err := apprelease.NewStatusUseCase(session).Execute(ctx)
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}
	return outputStatusText(out)
}

func outputStatusText(out *apprelease.StatusOutput) error {
	printTitle("Project Status")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tVERSION\tUNRELEASED COMMITS\tRELEASED")
	for _, p := range out.Projects {
		released := "yes"
		if !p.Released {
			released = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.QualifiedName, p.Version, p.RelevantCommits, released)
	}
	return w.Flush()
}
