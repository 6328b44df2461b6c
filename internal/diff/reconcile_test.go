package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covtrack/internal/coverage"
)

func reportWithPaths(paths ...string) *coverage.Report {
	rep := coverage.NewReport()
	for _, p := range paths {
		rep.Files[p] = &coverage.FileCoverage{
			Path:  p,
			Lines: []coverage.LineRecord{{Line: 1, Hits: 1}},
		}
	}
	return rep
}

func TestReconcile_Union(t *testing.T) {
	base := reportWithPaths("a.rs", "old.rs")
	head := reportWithPaths("a.rs", "new.rs")

	aligned := Reconcile(base, head, "")
	require.Len(t, aligned, 3)

	// Sorted by canonical path; one-sided entries are kept, never dropped.
	assert.Equal(t, "a.rs", aligned[0].Path)
	assert.True(t, aligned[0].InBase())
	assert.True(t, aligned[0].InHead())

	assert.Equal(t, "new.rs", aligned[1].Path)
	assert.False(t, aligned[1].InBase())
	assert.True(t, aligned[1].InHead())

	assert.Equal(t, "old.rs", aligned[2].Path)
	assert.True(t, aligned[2].InBase())
	assert.False(t, aligned[2].InHead())
}

func TestReconcile_PrefixOverride(t *testing.T) {
	// Base and head checked out to different roots; only the override
	// makes the paths comparable.
	base := reportWithPaths("base-checkout/src/lib.rs")
	head := reportWithPaths("src/lib.rs")

	aligned := Reconcile(base, head, "base-checkout/")
	require.Len(t, aligned, 1)
	assert.Equal(t, "src/lib.rs", aligned[0].Path)
	assert.Equal(t, "base-checkout/src/lib.rs", aligned[0].BasePath)
	assert.Equal(t, "src/lib.rs", aligned[0].HeadPath)
}

func TestReconcile_PrefixCollisionKeepsBoth(t *testing.T) {
	// Stripping "src/" maps both base files onto "a.rs"; the second file
	// must survive under its source path rather than vanish from the diff.
	base := reportWithPaths("a.rs", "src/a.rs")
	head := reportWithPaths("a.rs")

	aligned := Reconcile(base, head, "src/")
	require.Len(t, aligned, 2)

	assert.Equal(t, "a.rs", aligned[0].Path)
	assert.Equal(t, "a.rs", aligned[0].BasePath)
	assert.Equal(t, "a.rs", aligned[0].HeadPath)

	assert.Equal(t, "src/a.rs", aligned[1].Path)
	assert.Equal(t, "src/a.rs", aligned[1].BasePath)
	assert.False(t, aligned[1].InHead())
}

func TestReconcile_CaseSensitive(t *testing.T) {
	base := reportWithPaths("Main.go")
	head := reportWithPaths("main.go")

	aligned := Reconcile(base, head, "")
	assert.Len(t, aligned, 2)
}
