// Package app wires the covtrack command-line interface.
package app

import (
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covtrack/internal/logger"
)

// NewCovtrackCommand creates the root command for the covtrack tool.
func NewCovtrackCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "covtrack",
		Short: "Coverage diffing and fleet-wide coverage tracking.",
		Long: `Covtrack parses LCOV coverage reports, compares snapshots between
revisions, and persists historical records for fleet-wide trend tracking.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(NewPushCommand())
	cmd.AddCommand(NewPullRequestCommand())
	cmd.AddCommand(NewTrackingCommand())

	return cmd
}
