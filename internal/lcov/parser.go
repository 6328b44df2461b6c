// Package lcov parses LCOV trace files into coverage reports.
//
// The parser is line-oriented and single-pass. Directives may appear in any
// order inside a record, duplicate SF: sections for the same path are merged
// by summing hit counts, and a missing end_of_record at end of stream is
// treated as an implicit record close.
package lcov

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zjy-dev/covtrack/internal/coverage"
)

// ErrEmptyInput is returned when the input stream contains no SF: sections.
var ErrEmptyInput = errors.New("lcov: no coverage records found")

// MalformedInputError reports an input line that does not match the LCOV
// directive grammar. Line is the 1-based line number in the input.
type MalformedInputError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("lcov: malformed input at line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// maxLineSize bounds a single directive line. LCOV lines are short except
// for FN: entries carrying mangled C++ names.
const maxLineSize = 1024 * 1024

// branchKey identifies one branch within a file.
type branchKey struct {
	line, block, branch int
}

// fileState accumulates directive data for one source file. Duplicate SF:
// sections for the same path share a single fileState.
type fileState struct {
	path      string
	lines     map[int]int
	branches  map[branchKey]int
	funcLines map[string]int
	funcHits  map[string]int
}

func newFileState(path string) *fileState {
	return &fileState{
		path:      path,
		lines:     make(map[int]int),
		branches:  make(map[branchKey]int),
		funcLines: make(map[string]int),
		funcHits:  make(map[string]int),
	}
}

// ignoredDirectives are summary or metadata directives whose values the
// model recomputes from the raw DA:/BRDA:/FNDA: data.
var ignoredDirectives = []string{"TN:", "LF:", "LH:", "FNF:", "FNH:", "BRF:", "BRH:", "VER:"}

// ParseFile parses the LCOV trace file at path. See Parse.
func ParseFile(path, sourcePrefix string) (*coverage.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lcov: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, sourcePrefix)
}

// Parse reads an LCOV text stream and builds a coverage report. When
// sourcePrefix is non-empty it is stripped from every file path that starts
// with it; non-matching paths are kept as-is.
//
// On malformed input a *MalformedInputError naming the offending line is
// returned and no partial report is produced. A stream with zero SF:
// sections fails with ErrEmptyInput.
func Parse(r io.Reader, sourcePrefix string) (*coverage.Report, error) {
	files := make(map[string]*fileState)
	var current *fileState
	lineNo := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

scan:
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "SF:"):
			rawPath := strings.TrimSpace(strings.TrimPrefix(trimmed, "SF:"))
			if rawPath == "" {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "SF: with empty path"}
			}
			path := coverage.NormalizePath(rawPath, sourcePrefix)
			state, ok := files[path]
			if !ok {
				state = newFileState(path)
				files[path] = state
			}
			current = state

		case strings.HasPrefix(trimmed, "DA:"):
			if current == nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "DA: outside of a record"}
			}
			parts := strings.Split(strings.TrimPrefix(trimmed, "DA:"), ",")
			if len(parts) < 2 {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "DA: expects <line>,<hits>"}
			}
			num, err := parsePositiveInt(parts[0])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "DA: invalid line number"}
			}
			hits, err := parseNonNegativeInt(parts[1])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "DA: invalid hit count"}
			}
			current.lines[num] += hits

		case strings.HasPrefix(trimmed, "BRDA:"):
			if current == nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "BRDA: outside of a record"}
			}
			parts := strings.Split(strings.TrimPrefix(trimmed, "BRDA:"), ",")
			if len(parts) != 4 {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "BRDA: expects <line>,<block>,<branch>,<hits>"}
			}
			num, err := parsePositiveInt(parts[0])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "BRDA: invalid line number"}
			}
			block, err := parseNonNegativeInt(parts[1])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "BRDA: invalid block id"}
			}
			branch, err := parseNonNegativeInt(parts[2])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "BRDA: invalid branch id"}
			}
			// "-" means the branch was never reached.
			hits := 0
			if strings.TrimSpace(parts[3]) != "-" {
				hits, err = parseNonNegativeInt(parts[3])
				if err != nil {
					return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "BRDA: invalid hit count"}
				}
			}
			current.branches[branchKey{num, block, branch}] += hits

		case strings.HasPrefix(trimmed, "FN:"):
			if current == nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "FN: outside of a record"}
			}
			parts := strings.SplitN(strings.TrimPrefix(trimmed, "FN:"), ",", 2)
			if len(parts) != 2 || parts[1] == "" {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "FN: expects <line>,<name>"}
			}
			num, err := parsePositiveInt(parts[0])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "FN: invalid line number"}
			}
			current.funcLines[parts[1]] = num

		case strings.HasPrefix(trimmed, "FNDA:"):
			if current == nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "FNDA: outside of a record"}
			}
			parts := strings.SplitN(strings.TrimPrefix(trimmed, "FNDA:"), ",", 2)
			if len(parts) != 2 || parts[1] == "" {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "FNDA: expects <hits>,<name>"}
			}
			hits, err := parseNonNegativeInt(parts[0])
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "FNDA: invalid hit count"}
			}
			current.funcHits[parts[1]] += hits

		case trimmed == "end_of_record":
			current = nil

		default:
			for _, prefix := range ignoredDirectives {
				if strings.HasPrefix(trimmed, prefix) {
					continue scan
				}
			}
			return nil, &MalformedInputError{Line: lineNo, Text: line, Reason: "unrecognized directive"}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lcov: read input: %w", err)
	}

	if len(files) == 0 {
		return nil, ErrEmptyInput
	}

	report := coverage.NewReport()
	for path, state := range files {
		report.Files[path] = state.build()
	}
	return report, nil
}

// build converts accumulated directive data into the model representation.
func (s *fileState) build() *coverage.FileCoverage {
	fc := &coverage.FileCoverage{Path: s.path}

	for line, hits := range s.lines {
		fc.Lines = append(fc.Lines, coverage.LineRecord{Line: line, Hits: hits})
	}
	for key, hits := range s.branches {
		fc.Branches = append(fc.Branches, coverage.BranchRecord{
			Line:   key.line,
			Block:  key.block,
			Branch: key.branch,
			Hits:   hits,
		})
	}
	// A function record needs the line number an FN: declares; FNDA: hit
	// counts for undeclared functions are dropped.
	for name, line := range s.funcLines {
		fc.Functions = append(fc.Functions, coverage.FunctionRecord{
			Name: name,
			Line: line,
			Hits: s.funcHits[name],
		})
	}

	fc.Normalize()
	return fc
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value %d is not positive", n)
	}
	return n, nil
}

func parseNonNegativeInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("value %d is negative", n)
	}
	return n, nil
}
