package sanitize

import (
	"strings"

	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
)

// PathFilter decides which request paths are left out of the logs.
type PathFilter struct {
	prefixes []string
}

// NewPathFilter builds a filter from path prefixes. Empty prefixes are dropped
// since they would match every path.
func NewPathFilter(prefixes ...string) *PathFilter {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return &PathFilter{prefixes: kept}
}

var defaultPathFilter = NewPathFilter(constants.SkipPaths...)

// DefaultPathFilter returns the filter built from constants.SkipPaths.
func DefaultPathFilter() *PathFilter {
	return defaultPathFilter
}

// Prefixes returns a copy of the configured prefixes.
func (f *PathFilter) Prefixes() []string {
	out := make([]string, len(f.prefixes))
	copy(out, f.prefixes)
	return out
}

// ShouldSkip reports whether path starts with one of the prefixes.
// The check is case-sensitive and has no wildcards.
func (f *PathFilter) ShouldSkip(path string) bool {
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ShouldSkip checks path against the default skip list.
func ShouldSkip(path string) bool {
	return defaultPathFilter.ShouldSkip(path)
}
