package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covtrack/internal/config"
	"github.com/zjy-dev/covtrack/internal/pipeline"
	"github.com/zjy-dev/covtrack/internal/report"
	"github.com/zjy-dev/covtrack/internal/tracking"
)

// NewPullRequestCommand creates the "pull-request" subcommand.
func NewPullRequestCommand() *cobra.Command {
	var (
		lcovFile     string
		baseLcovFile string
		repoName     string
		branch       string
		commit       string
		baseCommit   string
		prNumber     int
		sourcePrefix string
		storePath    string
		epsilon      float64
	)

	cmd := &cobra.Command{
		Use:   "pull-request",
		Short: "Compare coverage against a prior snapshot and report the delta.",
		Long: `Compare coverage for a pull request against a prior snapshot.

The base snapshot comes from --base-lcov when given, otherwise from the
tracking store keyed by --base-commit. Without either, the head coverage is
reported on its own.

Examples:
  # Compare two LCOV files
  covtrack pull-request --lcov head.info --base-lcov base.info \
    --repo acme/widgets --commit abc123 --pr 42

  # Compare against the stored snapshot of the base commit
  covtrack pull-request --lcov head.info --base-commit def456 \
    --repo acme/widgets --branch main --commit abc123 --pr 42`,
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
			if !cmd.Flags().Changed("epsilon") {
				epsilon = cfg.Diff.Epsilon
			}

			p := pipeline.Pipeline{
				Reporter: &report.LogReporter{Threshold: cfg.Report.Threshold},
				Epsilon:  epsilon,
			}

			if baseLcovFile == "" && baseCommit != "" {
				store, err := tracking.OpenSQLite(cmd.Context(), storePath)
				if err != nil {
					return err
				}
				defer store.Close()
				p.Store = store
			}

			_, err = p.PullRequest(cmd.Context(), pipeline.PullRequestParams{
				HeadLcovPath: lcovFile,
				BaseLcovPath: baseLcovFile,
				SourcePrefix: sourcePrefix,
				Repo:         repoName,
				Branch:       branch,
				Commit:       commit,
				BaseCommit:   baseCommit,
				PullRequest:  prNumber,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&lcovFile, "lcov", "", "Path to the head LCOV trace file")
	cmd.Flags().StringVar(&baseLcovFile, "base-lcov", "", "Path to the base LCOV trace file (optional)")
	cmd.Flags().StringVar(&repoName, "repo", "", "Repository name in OWNER/REPO format")
	cmd.Flags().StringVar(&branch, "branch", "", "Base branch of the pull request")
	cmd.Flags().StringVar(&commit, "commit", "", "Head commit id")
	cmd.Flags().StringVar(&baseCommit, "base-commit", "", "Base commit id for a store-backed comparison")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number")
	cmd.Flags().StringVar(&sourcePrefix, "source-prefix", "", "Prefix stripped from source paths (for example 'src/')")
	cmd.Flags().StringVar(&storePath, "store", "", "Path to the tracking store database")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0, "Minimum ratio difference for a file to count as modified")

	_ = cmd.MarkFlagRequired("lcov")
	_ = cmd.MarkFlagRequired("commit")

	return cmd
}
