package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apprelease "github.com/jitrel/jitrel/internal/application/release"
)

var foreachPause bool

var foreachCmd = &cobra.Command{
	Use:   "foreach-released -- <command> [args...]",
	Short: "Run a command for every project released at HEAD",
	Long: `Run a command once in the directory of every project released in the
release commit at HEAD, in record order.

The environment variables JITREL_RELEASED_PROJECT and
JITREL_RELEASED_VERSION carry the project's qualified name and version
into the command. The first failing command aborts the run.

Examples:
  # Publish every released crate
  jitrel foreach-released -- cargo publish

  # Inspect each result before moving on
  jitrel foreach-released --pause -- npm publish`,
	Args: cobra.MinimumNArgs(1),
	RunE: runForeachReleased,
}

func init() {
	foreachCmd.Flags().BoolVar(&foreachPause, "pause", false, "wait for enter between commands")
	rootCmd.AddCommand(foreachCmd)
}

func runForeachReleased(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out, err := apprelease.NewForeachReleasedUseCase(session).Execute(ctx, apprelease.ForeachInput{
		Command: args,
		Pause:   foreachPause,
		Prompt:  os.Stdin,
	})
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return printJSON(out)
	}
	printSuccess(fmt.Sprintf("command ran for %d released project(s)", len(out.Ran)))
	return nil
}
