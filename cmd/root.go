package cmd

import (
	"github.com/spf13/cobra"
)

// Linker flags set at release build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:           "zeebe-report",
	Short:         "Mail usage reports of started Zeebe processes.",
	Long:          `zeebe-report counts started process instances from the daily Zeebe export indices and mails daily, weekly and monthly summaries.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
