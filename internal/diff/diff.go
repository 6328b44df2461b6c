package diff

import (
	"math"
	"sort"

	"github.com/zjy-dev/covtrack/internal/coverage"
)

// Status classifies how a file changed between base and head.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusModified  Status = "modified"
	StatusUnchanged Status = "unchanged"
)

// FileDelta is the coverage change for a single file.
type FileDelta struct {
	Path      string  `json:"path"`
	Status    Status  `json:"status"`
	BaseRatio float64 `json:"base_ratio"`
	HeadRatio float64 `json:"head_ratio"`
	Delta     float64 `json:"delta"`

	// NewlyCovered lists lines hit in head that were not hit in base.
	// NewlyUncovered lists instrumented lines with zero hits in head that
	// were either hit in base or newly instrumented.
	NewlyCovered   []int `json:"newly_covered,omitempty"`
	NewlyUncovered []int `json:"newly_uncovered,omitempty"`
}

// Delta is the coverage change between two reports. It is immutable once
// built and deterministic: identical inputs always produce an identical
// Delta, since every file's entry is computed independently by key lookup.
type Delta struct {
	Files map[string]*FileDelta `json:"files"`

	// HeadRatio is the head report's total ratio. BaseRatio is the base
	// total computed over files present in head only, so removed files do
	// not retroactively penalize head.
	HeadRatio  float64 `json:"head_ratio"`
	BaseRatio  float64 `json:"base_ratio"`
	TotalDelta float64 `json:"total_delta"`
}

// Options tunes the diff engine.
type Options struct {
	// Epsilon is the minimum |head-base| ratio difference for a file to be
	// classified as modified rather than unchanged. Zero means any
	// difference counts.
	Epsilon float64

	// PrefixOverride applies an extra source-prefix strip during path
	// reconciliation for reports that were parsed without one.
	PrefixOverride string
}

// Diff compares two reports with default options.
func Diff(base, head *coverage.Report) *Delta {
	return DiffWithOptions(base, head, Options{})
}

// DiffWithOptions compares two reports over the reconciled union of their
// file sets.
func DiffWithOptions(base, head *coverage.Report, opts Options) *Delta {
	delta := &Delta{Files: make(map[string]*FileDelta)}

	var headFound, headHit, baseFound, baseHit int

	for _, a := range Reconcile(base, head, opts.PrefixOverride) {
		fd := &FileDelta{Path: a.Path}

		switch {
		case a.InBase() && a.InHead():
			bf, hf := base.Files[a.BasePath], head.Files[a.HeadPath]
			fd.BaseRatio = bf.Ratio()
			fd.HeadRatio = hf.Ratio()
			fd.Delta = fd.HeadRatio - fd.BaseRatio
			if math.Abs(fd.Delta) > opts.Epsilon {
				fd.Status = StatusModified
			} else {
				fd.Status = StatusUnchanged
			}
			fd.NewlyCovered, fd.NewlyUncovered = lineChanges(bf, hf)

			headFound += hf.LinesFound()
			headHit += hf.LinesHit()
			baseFound += bf.LinesFound()
			baseHit += bf.LinesHit()

		case a.InHead():
			// An added file contributes its own ratio as the delta but is
			// never a regression baseline.
			hf := head.Files[a.HeadPath]
			fd.Status = StatusAdded
			fd.HeadRatio = hf.Ratio()
			fd.Delta = fd.HeadRatio
			fd.NewlyCovered, fd.NewlyUncovered = lineChanges(nil, hf)

			headFound += hf.LinesFound()
			headHit += hf.LinesHit()

		default:
			// Removed files are reported but excluded from the totals.
			fd.Status = StatusRemoved
			fd.BaseRatio = base.Files[a.BasePath].Ratio()
		}

		delta.Files[a.Path] = fd
	}

	delta.HeadRatio = ratio(headHit, headFound)
	delta.BaseRatio = ratio(baseHit, baseFound)
	delta.TotalDelta = delta.HeadRatio - delta.BaseRatio
	return delta
}

// Paths returns the file paths in the delta in sorted order.
func (d *Delta) Paths() []string {
	paths := make([]string, 0, len(d.Files))
	for p := range d.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Regressions returns the sorted paths whose coverage dropped.
func (d *Delta) Regressions() []string {
	var paths []string
	for p, fd := range d.Files {
		if fd.Status == StatusModified && fd.Delta < 0 {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// lineChanges computes the newly covered and newly uncovered line sets
// between two versions of one file. base may be nil for an added file.
func lineChanges(base, head *coverage.FileCoverage) (covered, uncovered []int) {
	baseHits := map[int]int{}
	if base != nil {
		baseHits = base.HitsByLine()
	}

	for _, l := range head.Lines {
		prev, known := baseHits[l.Line]
		switch {
		case l.Hits > 0 && (!known || prev == 0):
			covered = append(covered, l.Line)
		case l.Hits == 0 && (!known || prev > 0):
			uncovered = append(uncovered, l.Line)
		}
	}
	sort.Ints(covered)
	sort.Ints(uncovered)
	return covered, uncovered
}

func ratio(hit, found int) float64 {
	if found == 0 {
		return 0
	}
	return float64(hit) / float64(found)
}
