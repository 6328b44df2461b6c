package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCoverage_Ratio(t *testing.T) {
	f := &FileCoverage{
		Path: "a.go",
		Lines: []LineRecord{
			{Line: 1, Hits: 2},
			{Line: 2, Hits: 0},
			{Line: 3, Hits: 1},
			{Line: 4, Hits: 0},
		},
	}

	assert.Equal(t, 4, f.LinesFound())
	assert.Equal(t, 2, f.LinesHit())
	assert.InDelta(t, 0.5, f.Ratio(), 1e-12)
	assert.Equal(t, []int{2, 4}, f.UncoveredLines())
}

func TestFileCoverage_EmptyRatioIsZero(t *testing.T) {
	f := &FileCoverage{Path: "empty.go"}
	assert.Equal(t, 0.0, f.Ratio())
}

func TestReport_TotalRatio(t *testing.T) {
	rep := NewReport()
	rep.Files["a.go"] = &FileCoverage{
		Path:  "a.go",
		Lines: []LineRecord{{Line: 1, Hits: 1}, {Line: 2, Hits: 0}},
	}
	rep.Files["b.go"] = &FileCoverage{
		Path:  "b.go",
		Lines: []LineRecord{{Line: 1, Hits: 3}, {Line: 2, Hits: 1}},
	}

	assert.Equal(t, 4, rep.LinesFound())
	assert.Equal(t, 3, rep.LinesHit())
	assert.InDelta(t, 0.75, rep.TotalRatio(), 1e-12)
	assert.Equal(t, []string{"a.go", "b.go"}, rep.Paths())
}

func TestReport_EmptyTotalRatioIsZero(t *testing.T) {
	assert.Equal(t, 0.0, NewReport().TotalRatio())
}

func TestReport_RatioBounds(t *testing.T) {
	rep := NewReport()
	rep.Files["a.go"] = &FileCoverage{
		Path:  "a.go",
		Lines: []LineRecord{{Line: 1, Hits: 100}, {Line: 2, Hits: 0}},
	}

	for _, f := range rep.Files {
		assert.LessOrEqual(t, f.LinesHit(), f.LinesFound())
		assert.GreaterOrEqual(t, f.Ratio(), 0.0)
		assert.LessOrEqual(t, f.Ratio(), 1.0)
	}
	assert.GreaterOrEqual(t, rep.TotalRatio(), 0.0)
	assert.LessOrEqual(t, rep.TotalRatio(), 1.0)
}

func TestReport_MarshalRoundTrip(t *testing.T) {
	rep := NewReport()
	rep.Files["a.go"] = &FileCoverage{
		Path:      "a.go",
		Lines:     []LineRecord{{Line: 2, Hits: 0}, {Line: 1, Hits: 1}},
		Branches:  []BranchRecord{{Line: 2, Block: 0, Branch: 1, Hits: 3}},
		Functions: []FunctionRecord{{Name: "main", Line: 1, Hits: 1}},
	}

	data, err := rep.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, rep.TotalRatio(), decoded.TotalRatio())
	assert.Equal(t, rep.Paths(), decoded.Paths())
	// Marshal normalizes record order, so a second round is byte-identical.
	again, err := decoded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		prefix string
		want   string
	}{
		{"no prefix", "src/lib.rs", "", "src/lib.rs"},
		{"strip prefix", "checkout/src/lib.rs", "checkout/", "src/lib.rs"},
		{"prefix without trailing slash", "checkout/src/lib.rs", "checkout", "src/lib.rs"},
		{"mismatch kept as-is", "/abs/other/lib.rs", "checkout/", "/abs/other/lib.rs"},
		{"backslashes", `src\win\main.c`, "", "src/win/main.c"},
		{"leading dot-slash", "./src/lib.rs", "", "src/lib.rs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.path, tt.prefix))
		})
	}
}

func TestFormatLineRanges(t *testing.T) {
	assert.Equal(t, "", FormatLineRanges(nil))
	assert.Equal(t, "7", FormatLineRanges([]int{7}))
	assert.Equal(t, "1-4, 7, 9-12", FormatLineRanges([]int{1, 2, 3, 4, 7, 9, 10, 11, 12}))
}
