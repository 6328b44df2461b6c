// Package diff aligns two coverage reports and computes their delta.
package diff

import (
	"sort"

	"github.com/zjy-dev/covtrack/internal/coverage"
	"github.com/zjy-dev/covtrack/internal/logger"
)

// Alignment pairs a canonical path with the keys it maps to in the base and
// head reports. BasePath or HeadPath is empty when the file is present on
// only one side.
type Alignment struct {
	Path     string
	BasePath string
	HeadPath string
}

// InBase reports whether the file exists in the base report.
func (a Alignment) InBase() bool { return a.BasePath != "" }

// InHead reports whether the file exists in the head report.
func (a Alignment) InHead() bool { return a.HeadPath != "" }

// Reconcile aligns the file sets of two reports. Report paths are already
// prefix-stripped by the parser; prefixOverride applies an additional strip
// for reports parsed without one (base and head are typically checked out
// to different working-tree roots). Comparison is case-sensitive over
// forward-slash relative paths.
//
// A file present on only one side is kept in the result so the diff engine
// can classify it as added or removed; nothing is silently dropped.
func Reconcile(base, head *coverage.Report, prefixOverride string) []Alignment {
	byKey := make(map[string]*Alignment)

	for _, path := range base.Paths() {
		a := alignmentAt(byKey, coverage.NormalizePath(path, prefixOverride))
		if a.BasePath != "" {
			// Two base paths collapsed onto one key after the prefix strip.
			// Keep the later one under its source path so it stays in the
			// diff instead of vanishing. Paths() is sorted, so the
			// lexicographically smallest source path claims the shared key
			// deterministically.
			logger.Warnf("base path %q collides with %q after prefix strip, keeping both", path, a.BasePath)
			a = alignmentAt(byKey, path)
		}
		a.BasePath = path
	}
	for _, path := range head.Paths() {
		a := alignmentAt(byKey, coverage.NormalizePath(path, prefixOverride))
		if a.HeadPath != "" {
			logger.Warnf("head path %q collides with %q after prefix strip, keeping both", path, a.HeadPath)
			a = alignmentAt(byKey, path)
		}
		a.HeadPath = path
	}

	aligned := make([]Alignment, 0, len(byKey))
	for _, a := range byKey {
		aligned = append(aligned, *a)
	}
	sort.Slice(aligned, func(i, j int) bool { return aligned[i].Path < aligned[j].Path })
	return aligned
}

func alignmentAt(byKey map[string]*Alignment, key string) *Alignment {
	a, ok := byKey[key]
	if !ok {
		a = &Alignment{Path: key}
		byKey[key] = a
	}
	return a
}
