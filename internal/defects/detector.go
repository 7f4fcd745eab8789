// Package defects decides which changelists are defect fixes and tallies the
// files they touch.
package defects

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultPattern matches defect tracker identifiers such as DE1234 or "de 98765".
const DefaultPattern = `(?i)DE\s?\d{3,8}`

// ErrNoPatterns is returned when a detector is built without any pattern.
var ErrNoPatterns = errors.New("at least one defect pattern is required")

// Detector matches commit descriptions against defect identifier patterns.
type Detector struct {
	patterns []*regexp.Regexp
}

// NewDetector compiles patterns. An empty list is an error.
func NewDetector(patterns []string) (*Detector, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile defect pattern %q: %w", p, err)
		}

		compiled = append(compiled, re)
	}

	return &Detector{patterns: compiled}, nil
}

// IsDefectFix reports whether the description mentions a defect identifier.
func (d *Detector) IsDefectFix(description string) bool {
	for _, re := range d.patterns {
		if re.MatchString(description) {
			return true
		}
	}

	return false
}

// ID returns the first defect identifier found in the description, or "".
func (d *Detector) ID(description string) string {
	for _, re := range d.patterns {
		if id := re.FindString(description); id != "" {
			return id
		}
	}

	return ""
}
