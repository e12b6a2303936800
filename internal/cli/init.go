package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jitrel/jitrel/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default jitrel configuration",
	Long: `Write a .jitrel.yaml with the default settings to the current
directory.

The defaults name the release-candidate branch "rc", the release branch
"release", and tag releases as "{project_slug}@{version}". Projects are
autodetected from the metadata files in the tree; add entries under
"projects" only to override detection.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	existing, err := config.FindConfigFile(".")
	if err == nil && !initForce {
		printWarning(fmt.Sprintf("config file already exists: %s", existing))
		printInfo("use --force to overwrite")
		return nil
	}

	const path = ".jitrel.yaml"
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("wrote %s", path))
	printSubtle("Run 'jitrel status' to see the detected projects.")
	return nil
}
