package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zjy-dev/covtrack/internal/coverage"
	"github.com/zjy-dev/covtrack/internal/tracking"
)

// AggregateWriter renders a rebuilt aggregate view as markdown files: one
// trend report per tracked branch plus a fleet-wide index grouped by team.
type AggregateWriter struct {
	outputDir string
}

// NewAggregateWriter creates a writer rooted at outputDir.
func NewAggregateWriter(outputDir string) *AggregateWriter {
	return &AggregateWriter{outputDir: outputDir}
}

// WriteIndex writes README.md: one table per team listing every tracked
// branch with its latest coverage and trend deltas.
func (w *AggregateWriter) WriteIndex(view *tracking.AggregateView) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	grouped := view.ByTeam()
	teams := make([]string, 0, len(grouped))
	for team := range grouped {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	var b strings.Builder
	fmt.Fprintf(&b, "# Coverage Reports\n\nTracking coverage of %d branches\n", len(view.Branches))

	for _, team := range teams {
		trends := grouped[team]
		name := team
		if name == "" {
			name = "Unassigned"
		}
		fmt.Fprintf(&b, "\n## %s\n\nTracking coverage of %d branches in this group\n\n", name, len(trends))

		t := table.NewWriter()
		t.AppendHeader(table.Row{"Repository (Branch)", "Coverage", "Delta (Last)", "Delta (7 Days)", "Delta (30 Days)", "Delta (90 Days)", "Last Updated"})
		for _, trend := range trends {
			t.AppendRow(table.Row{
				fmt.Sprintf("[%s (%s)](%s)", trend.Repo, trend.Branch, branchReportPath(trend.Repo, trend.Branch)),
				Percent(trend.LatestRatio),
				SignedPercent(trend.LastDelta),
				SignedPercent(trend.Delta7d),
				SignedPercent(trend.Delta30d),
				SignedPercent(trend.Delta90d),
				humanize.Time(trend.LatestAt),
			})
		}
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n")
	}

	path := filepath.Join(w.outputDir, "README.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// WriteBranchReport writes the trend report for one branch, including the
// per-file coverage table of its latest record.
func (w *AggregateWriter) WriteBranchReport(trend *tracking.BranchTrend, latest *coverage.Report) error {
	path := filepath.Join(w.outputDir, branchReportPath(trend.Repo, trend.Branch))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", trend.Repo)
	fmt.Fprintf(&b, "### Branch: `%s`\n", trend.Branch)
	if trend.Team != "" {
		fmt.Fprintf(&b, "### Responsible Team: %s\n", trend.Team)
	}
	fmt.Fprintf(&b, "\n#### Last Updated: %s (%s)\n", trend.LatestAt.Format("2006-01-02 15:04:05 MST"), humanize.Time(trend.LatestAt))
	fmt.Fprintf(&b, "#### Coverage: %s\n", Percent(trend.LatestRatio))
	fmt.Fprintf(&b, "#### Last Delta: %s\n", SignedPercent(trend.LastDelta))
	fmt.Fprintf(&b, "#### 7 Day Delta: %s\n", SignedPercent(trend.Delta7d))
	fmt.Fprintf(&b, "#### 30 Day Delta: %s\n", SignedPercent(trend.Delta30d))
	fmt.Fprintf(&b, "#### 90 Day Delta: %s\n\n", SignedPercent(trend.Delta90d))

	if latest != nil {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"File", "Coverage", "Untested Lines"})
		for _, filePath := range latest.Paths() {
			f := latest.Files[filePath]
			t.AppendRow(table.Row{
				filePath,
				Percent(f.Ratio()),
				coverage.FormatLineRanges(f.UncoveredLines()),
			})
		}
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write branch report: %w", err)
	}
	return nil
}

// branchReportPath builds the relative markdown path for a branch report.
// Slashes in repo and branch names become directory levels.
func branchReportPath(repo, branch string) string {
	return filepath.Join("reports", repo, branch+".md")
}
