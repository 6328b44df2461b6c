package report

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zjy-dev/covtrack/internal/coverage"
	"github.com/zjy-dev/covtrack/internal/diff"
)

// Percent renders a ratio in [0,1] as a percentage with two decimals.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// SignedPercent renders a ratio delta with an explicit sign.
func SignedPercent(delta float64) string {
	return fmt.Sprintf("%+.2f%%", delta*100)
}

// Summary renders a per-file coverage table with a total footer.
func Summary(rep *coverage.Report) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"File", "Lines", "Hit", "Coverage", "Uncovered Lines"})

	for _, path := range rep.Paths() {
		f := rep.Files[path]
		t.AppendRow(table.Row{
			path,
			f.LinesFound(),
			f.LinesHit(),
			Percent(f.Ratio()),
			coverage.FormatLineRanges(f.UncoveredLines()),
		})
	}
	t.AppendFooter(table.Row{"Total", rep.LinesFound(), rep.LinesHit(), Percent(rep.TotalRatio()), ""})

	return t.Render()
}

// DeltaSummary renders the total delta and the per-file changes whose
// magnitude is at least threshold. Added and removed files are always
// shown; unchanged files never are.
func DeltaSummary(delta *diff.Delta, threshold float64) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"File", "Status", "Base", "Head", "Delta"})

	for _, path := range delta.Paths() {
		fd := delta.Files[path]
		switch fd.Status {
		case diff.StatusUnchanged:
			continue
		case diff.StatusModified:
			if math.Abs(fd.Delta) < threshold {
				continue
			}
		}
		t.AppendRow(table.Row{
			path,
			string(fd.Status),
			Percent(fd.BaseRatio),
			Percent(fd.HeadRatio),
			SignedPercent(fd.Delta),
		})
	}
	t.AppendFooter(table.Row{"Total", "", Percent(delta.BaseRatio), Percent(delta.HeadRatio), SignedPercent(delta.TotalDelta)})

	return fmt.Sprintf("Total: %s (delta %s)\n%s",
		Percent(delta.HeadRatio), SignedPercent(delta.TotalDelta), t.Render())
}
