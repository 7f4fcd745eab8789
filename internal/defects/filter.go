package defects

import (
	"errors"
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/src-d/enry/v2"
)

// ErrBadExcludePattern is returned for an exclude glob doublestar cannot parse.
var ErrBadExcludePattern = errors.New("invalid exclude pattern")

// Filter drops depot paths that should not be counted.
type Filter struct {
	excludes   []string
	skipVendor bool
}

// NewFilter validates the exclude globs. With skipVendor, paths enry
// classifies as vendored or generated third-party code are dropped too.
func NewFilter(excludes []string, skipVendor bool) (*Filter, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrBadExcludePattern, pattern)
		}
	}

	return &Filter{excludes: excludes, skipVendor: skipVendor}, nil
}

// Keep reports whether depotPath should be tallied.
func (f *Filter) Keep(depotPath string) bool {
	if f == nil {
		return true
	}

	for _, pattern := range f.excludes {
		// Patterns are validated up front, Match cannot fail.
		if ok, _ := doublestar.Match(pattern, depotPath); ok {
			return false
		}
	}

	if f.skipVendor && enry.IsVendor(trimDepotRoot(depotPath)) {
		return false
	}

	return true
}

// Language names the programming language of depotPath from its file name, or "Other".
func Language(depotPath string) string {
	lang := enry.GetLanguage(path.Base(depotPath), nil)
	if lang == "" {
		return "Other"
	}

	return lang
}

// trimDepotRoot strips the leading "//" so enry sees a relative path.
func trimDepotRoot(depotPath string) string {
	for len(depotPath) > 0 && depotPath[0] == '/' {
		depotPath = depotPath[1:]
	}

	return depotPath
}
