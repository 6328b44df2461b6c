package lcov

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleRecord(t *testing.T) {
	input := `SF:a.rs
DA:1,1
DA:2,0
end_of_record
`
	rep, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)

	f, ok := rep.Files["a.rs"]
	require.True(t, ok)
	assert.Equal(t, 2, f.LinesFound())
	assert.Equal(t, 1, f.LinesHit())
	assert.InDelta(t, 0.5, f.Ratio(), 1e-12)
	assert.Equal(t, []int{2}, f.UncoveredLines())
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	// A test-name directive alone still carries no records.
	_, err = Parse(strings.NewReader("TN:unit\n"), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParse_MalformedDirective(t *testing.T) {
	input := `SF:a.rs
DA:x,1
end_of_record
`
	_, err := Parse(strings.NewReader(input), "")
	require.Error(t, err)

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
	assert.Equal(t, "DA:x,1", malformed.Text)
}

func TestParse_NegativeHitCount(t *testing.T) {
	input := `SF:a.rs
DA:1,-3
end_of_record
`
	_, err := Parse(strings.NewReader(input), "")

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
}

func TestParse_UnrecognizedDirective(t *testing.T) {
	input := `SF:a.rs
XX:nonsense
end_of_record
`
	_, err := Parse(strings.NewReader(input), "")

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "unrecognized directive", malformed.Reason)
}

func TestParse_DataOutsideRecord(t *testing.T) {
	_, err := Parse(strings.NewReader("DA:1,1\n"), "")

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Line)
}

func TestParse_MissingEndOfRecord(t *testing.T) {
	input := `SF:a.rs
DA:1,1
DA:2,0`
	rep, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Files["a.rs"].LinesFound())
}

func TestParse_DuplicateSourceFilesMerge(t *testing.T) {
	// Two test runs instrumenting the same file merge by summing hits.
	input := `SF:a.rs
DA:1,1
DA:2,0
end_of_record
SF:a.rs
DA:2,3
DA:5,0
end_of_record
`
	rep, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)
	require.Len(t, rep.Files, 1)

	f := rep.Files["a.rs"]
	hits := f.HitsByLine()
	assert.Equal(t, 1, hits[1])
	assert.Equal(t, 3, hits[2])
	assert.Equal(t, 0, hits[5])
	assert.Equal(t, 3, f.LinesFound())
	assert.Equal(t, 2, f.LinesHit())
}

func TestParse_DirectiveOrderIrrelevant(t *testing.T) {
	input := `SF:a.c
FNDA:4,main
DA:10,4
FN:1,main
BRDA:10,0,0,2
BRDA:10,0,1,-
end_of_record
`
	rep, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)

	f := rep.Files["a.c"]
	require.Len(t, f.Functions, 1)
	assert.Equal(t, "main", f.Functions[0].Name)
	assert.Equal(t, 1, f.Functions[0].Line)
	assert.Equal(t, 4, f.Functions[0].Hits)

	require.Len(t, f.Branches, 2)
	assert.Equal(t, 2, f.Branches[0].Hits)
	// "-" means the branch was never taken.
	assert.Equal(t, 0, f.Branches[1].Hits)
}

func TestParse_FunctionHitsWithoutDeclaration(t *testing.T) {
	input := `SF:a.c
FNDA:3,orphan
FN:1,main
FNDA:2,main
DA:1,1
end_of_record
`
	rep, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)

	// Without an FN: line there is no line number to anchor a function
	// record on, so the orphan hit count is dropped.
	f := rep.Files["a.c"]
	require.Len(t, f.Functions, 1)
	assert.Equal(t, "main", f.Functions[0].Name)
	assert.Equal(t, 1, f.Functions[0].Line)
	assert.Equal(t, 2, f.Functions[0].Hits)
}

func TestParse_IgnoredSummaryDirectives(t *testing.T) {
	input := `TN:unit
SF:a.rs
DA:1,1
LF:1
LH:1
FNF:0
FNH:0
BRF:0
BRH:0
end_of_record
`
	rep, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Files["a.rs"].LinesFound())
}

func TestParse_SourcePrefixStripped(t *testing.T) {
	input := `SF:/home/runner/work/widgets/src/lib.rs
DA:1,1
end_of_record
SF:vendored/dep.rs
DA:1,0
end_of_record
`
	rep, err := Parse(strings.NewReader(input), "/home/runner/work/widgets/")
	require.NoError(t, err)

	_, ok := rep.Files["src/lib.rs"]
	assert.True(t, ok, "matching path should be prefix-stripped")
	// Non-matching paths are kept as-is rather than rejected.
	_, ok = rep.Files["vendored/dep.rs"]
	assert.True(t, ok)
}

func TestParse_BackslashPathsNormalized(t *testing.T) {
	input := "SF:src\\win\\main.c\nDA:1,1\nend_of_record\n"
	rep, err := Parse(strings.NewReader(input), "src/")
	require.NoError(t, err)

	_, ok := rep.Files["win/main.c"]
	assert.True(t, ok)
}

func TestParse_RoundTripTotals(t *testing.T) {
	// Synthetic report with known totals: 3 files, 12 lines, 7 hit.
	var b strings.Builder
	b.WriteString("SF:one.go\nDA:1,2\nDA:2,0\nDA:3,1\nDA:4,1\nend_of_record\n")
	b.WriteString("SF:two.go\nDA:1,0\nDA:2,0\nDA:3,5\nDA:4,1\nend_of_record\n")
	b.WriteString("SF:three.go\nDA:1,1\nDA:2,9\nDA:3,0\nDA:4,0\nend_of_record\n")

	rep, err := Parse(strings.NewReader(b.String()), "")
	require.NoError(t, err)

	assert.Equal(t, 12, rep.LinesFound())
	assert.Equal(t, 7, rep.LinesHit())
	assert.InDelta(t, 7.0/12.0, rep.TotalRatio(), 1e-12)
}
