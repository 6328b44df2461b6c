package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covtrack/internal/config"
	"github.com/zjy-dev/covtrack/internal/pipeline"
	"github.com/zjy-dev/covtrack/internal/report"
	"github.com/zjy-dev/covtrack/internal/tracking"
)

// NewTrackingCommand creates the "tracking" subcommand group.
func NewTrackingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracking",
		Short: "Operations on the centralized tracking store.",
	}

	cmd.AddCommand(newTrackingRebuildCommand())

	return cmd
}

func newTrackingRebuildCommand() *cobra.Command {
	var (
		repoName  string
		team      string
		outputDir string
		storePath string
	)

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Replay stored records into a fresh aggregate view.",
		Long: `Replay the tracking store's history into a fresh aggregate view and
render it as markdown.

The aggregate is a pure function of the stored records, so rebuilding is
idempotent and recovers the view after corruption, schema changes, or
retroactive team onboarding.

Examples:
  # Rebuild the whole fleet view
  covtrack tracking rebuild --output reports_out

  # Rebuild only one repository's branches
  covtrack tracking rebuild --repo acme/widgets --output reports_out

  # Rebuild one team's repositories
  covtrack tracking rebuild --team platform --output reports_out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if !cmd.Flags().Changed("store") {
				storePath = cfg.Store.Path
			}
			if repoName != "" && team != "" {
				return fmt.Errorf("--repo and --team are mutually exclusive")
			}

			store, err := tracking.OpenSQLite(cmd.Context(), storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			p := pipeline.Pipeline{
				Reporter: &report.LogReporter{Threshold: cfg.Report.Threshold},
				Store:    store,
			}

			_, err = p.Rebuild(cmd.Context(), pipeline.RebuildParams{
				Scope:     tracking.Scope{Repo: repoName, Team: team},
				OutputDir: outputDir,
				Teams:     cfg.Teams,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&repoName, "repo", "", "Limit the rebuild to one repository")
	cmd.Flags().StringVar(&team, "team", "", "Limit the rebuild to one team")
	cmd.Flags().StringVar(&outputDir, "output", "reports_out", "Directory for the rendered markdown")
	cmd.Flags().StringVar(&storePath, "store", "", "Path to the tracking store database")

	return cmd
}
