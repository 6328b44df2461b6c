// Package coverage defines the in-memory coverage model shared by the LCOV
// parser, the diff engine, and the tracking store.
package coverage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// LineRecord is the execution count for a single source line.
type LineRecord struct {
	Line int `json:"line"`
	Hits int `json:"hits"`
}

// BranchRecord is the execution count for a single branch of a conditional.
type BranchRecord struct {
	Line   int `json:"line"`
	Block  int `json:"block"`
	Branch int `json:"branch"`
	Hits   int `json:"hits"`
}

// FunctionRecord is the execution count for a single function.
type FunctionRecord struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	Hits int    `json:"hits"`
}

// FileCoverage holds the per-line, per-branch, and per-function execution
// counts for one source file. Path is always a forward-slash relative path
// with the configured source prefix already stripped.
//
// Line numbers are unique within Lines, and all record slices are kept
// sorted so that identical coverage serializes identically.
type FileCoverage struct {
	Path      string           `json:"path"`
	Lines     []LineRecord     `json:"lines"`
	Branches  []BranchRecord   `json:"branches,omitempty"`
	Functions []FunctionRecord `json:"functions,omitempty"`
}

// LinesFound returns the number of instrumented lines.
func (f *FileCoverage) LinesFound() int {
	return len(f.Lines)
}

// LinesHit returns the number of instrumented lines executed at least once.
func (f *FileCoverage) LinesHit() int {
	hit := 0
	for _, l := range f.Lines {
		if l.Hits > 0 {
			hit++
		}
	}
	return hit
}

// Ratio returns lines_hit / lines_found, or 0 for a file with no
// instrumented lines.
func (f *FileCoverage) Ratio() float64 {
	found := f.LinesFound()
	if found == 0 {
		return 0
	}
	return float64(f.LinesHit()) / float64(found)
}

// UncoveredLines returns the sorted line numbers with zero hits.
func (f *FileCoverage) UncoveredLines() []int {
	var lines []int
	for _, l := range f.Lines {
		if l.Hits == 0 {
			lines = append(lines, l.Line)
		}
	}
	sort.Ints(lines)
	return lines
}

// HitsByLine returns a line number to hit count lookup table.
func (f *FileCoverage) HitsByLine() map[int]int {
	m := make(map[int]int, len(f.Lines))
	for _, l := range f.Lines {
		m[l.Line] = l.Hits
	}
	return m
}

// Normalize sorts all record slices into their canonical order.
func (f *FileCoverage) Normalize() {
	sort.Slice(f.Lines, func(i, j int) bool { return f.Lines[i].Line < f.Lines[j].Line })
	sort.Slice(f.Branches, func(i, j int) bool {
		a, b := f.Branches[i], f.Branches[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.Branch < b.Branch
	})
	sort.Slice(f.Functions, func(i, j int) bool {
		a, b := f.Functions[i], f.Functions[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Line < b.Line
	})
}

// Report is a complete coverage snapshot produced by one parse. It is
// treated as immutable once built; components share read-only references.
type Report struct {
	Files map[string]*FileCoverage `json:"files"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{Files: make(map[string]*FileCoverage)}
}

// LinesFound returns the number of instrumented lines across all files.
func (r *Report) LinesFound() int {
	total := 0
	for _, f := range r.Files {
		total += f.LinesFound()
	}
	return total
}

// LinesHit returns the number of executed lines across all files.
func (r *Report) LinesHit() int {
	total := 0
	for _, f := range r.Files {
		total += f.LinesHit()
	}
	return total
}

// TotalRatio returns the aggregate coverage ratio over all files, or 0 for
// a report with no instrumented lines.
func (r *Report) TotalRatio() float64 {
	found := r.LinesFound()
	if found == 0 {
		return 0
	}
	return float64(r.LinesHit()) / float64(found)
}

// Paths returns the file paths in the report in sorted order.
func (r *Report) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Marshal serializes the report to canonical JSON: files keyed by path and
// record slices in sorted order, so identical coverage yields identical
// bytes.
func (r *Report) Marshal() ([]byte, error) {
	for _, f := range r.Files {
		f.Normalize()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("coverage: marshal report: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a report previously produced by Marshal.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("coverage: unmarshal report: %w", err)
	}
	if r.Files == nil {
		r.Files = make(map[string]*FileCoverage)
	}
	for path, f := range r.Files {
		if f.Path == "" {
			f.Path = path
		}
		f.Normalize()
	}
	return &r, nil
}

// FormatLineRanges renders sorted line numbers as clumped ranges, for
// example "1-4, 7, 9-12".
func FormatLineRanges(lines []int) string {
	if len(lines) == 0 {
		return ""
	}

	type span struct{ first, last int }
	var spans []span
	for _, line := range lines {
		if n := len(spans); n > 0 && spans[n-1].last == line-1 {
			spans[n-1].last = line
			continue
		}
		spans = append(spans, span{first: line, last: line})
	}

	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.first == s.last {
			parts = append(parts, fmt.Sprintf("%d", s.first))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", s.first, s.last))
		}
	}
	return strings.Join(parts, ", ")
}
