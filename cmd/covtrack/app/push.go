package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covtrack/internal/config"
	"github.com/zjy-dev/covtrack/internal/pipeline"
	"github.com/zjy-dev/covtrack/internal/report"
	"github.com/zjy-dev/covtrack/internal/tracking"
)

// NewPushCommand creates the "push" subcommand.
func NewPushCommand() *cobra.Command {
	var (
		lcovFile     string
		repoName     string
		branch       string
		commit       string
		sourcePrefix string
		team         string
		withReport   bool
		storePath    string
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Report coverage for a single commit.",
		Long: `Report coverage for a single commit, without comparison.

With --with-report the parsed snapshot is also appended to the centralized
tracking store, labeled with the repository's team association.

Examples:
  # Report coverage for a commit
  covtrack push --lcov coverage.info --repo acme/widgets --commit abc123

  # Report and persist to the tracking store
  covtrack push --lcov coverage.info --repo acme/widgets --branch main \
    --commit abc123 --with-report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if !cmd.Flags().Changed("repo") {
				repoName = cfg.Repo
			}
			if !cmd.Flags().Changed("source-prefix") {
				sourcePrefix = cfg.SourcePrefix
			}
			if !cmd.Flags().Changed("store") {
				storePath = cfg.Store.Path
			}
			if !cmd.Flags().Changed("team") {
				team = cfg.TeamFor(repoName)
			}

			p := pipeline.Pipeline{
				Reporter: &report.LogReporter{Threshold: cfg.Report.Threshold},
				Epsilon:  cfg.Diff.Epsilon,
			}

			if withReport {
				store, err := tracking.OpenSQLite(cmd.Context(), storePath)
				if err != nil {
					return err
				}
				defer store.Close()
				p.Store = store
			}

			_, err = p.Push(cmd.Context(), pipeline.PushParams{
				LcovPath:     lcovFile,
				SourcePrefix: sourcePrefix,
				Repo:         repoName,
				Branch:       branch,
				Commit:       commit,
				Team:         team,
				Persist:      withReport,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&lcovFile, "lcov", "", "Path to the LCOV trace file")
	cmd.Flags().StringVar(&repoName, "repo", "", "Repository name in OWNER/REPO format")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch of the commit")
	cmd.Flags().StringVar(&commit, "commit", "", "Commit id the coverage was measured at")
	cmd.Flags().StringVar(&sourcePrefix, "source-prefix", "", "Prefix stripped from source paths (for example 'src/')")
	cmd.Flags().StringVar(&team, "team", "", "Team association for the tracking record")
	cmd.Flags().BoolVar(&withReport, "with-report", false, "Also persist the snapshot to the tracking store")
	cmd.Flags().StringVar(&storePath, "store", "", "Path to the tracking store database")

	_ = cmd.MarkFlagRequired("lcov")
	_ = cmd.MarkFlagRequired("commit")

	return cmd
}
