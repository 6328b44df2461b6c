package coverage

import "strings"

// NormalizePath converts a path from a coverage report into the canonical
// form stored in a Report: forward slashes only, no leading "./", and the
// source prefix stripped when the path starts with it. Paths that do not
// match the prefix are returned otherwise unchanged; mismatches are left
// for the caller to surface.
func NormalizePath(path, sourcePrefix string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	p = strings.TrimPrefix(p, "./")

	if sourcePrefix != "" {
		prefix := strings.ReplaceAll(sourcePrefix, `\`, "/")
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			p = strings.TrimPrefix(rest, "/")
		}
	}

	return p
}
