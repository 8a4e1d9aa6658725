package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgbuilder",
		Short: "Build and stage packages from PKGBUILD recipes",
		Long: `Pkgbuilder reads a PKGBUILD recipe, validates its metadata and runs
its build and package steps against the project source tree, staging the
result into a destination root.

The recipe directory's parent is the project root: it must hold the
LICENSE file and the setup.py used by the Python build tooling.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./pkgbuilder.{toml,yaml} if present)")

	// Add subcommands
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewInfoCmd())
	rootCmd.AddCommand(NewSrcinfoCmd())
	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewVerifyCmd())

	return rootCmd
}
