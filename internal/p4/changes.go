package p4

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedChange is returned for a "Change" line that cannot be parsed.
var ErrMalformedChange = errors.New("malformed changelist header")

const (
	changePrefix  = "Change "
	pendingMarker = "*pending*"
)

var changeHeaderPattern = regexp.MustCompile(
	`^Change (\d+) on (\d{4}/\d{2}/\d{2})(?: \d{2}:\d{2}:\d{2})? by ([^@\s]+)@(\S+)(.*)$`,
)

// Change is one changelist record from "p4 changes".
type Change struct {
	Number      int
	Date        string
	User        string
	Client      string
	Description string
	Pending     bool
}

// ParseChangeHeader parses a "Change <n> on <date> by <user>@<client> ..." line.
// The second result reports whether the line carried the quoted short description.
func ParseChangeHeader(line string) (Change, bool, error) {
	match := changeHeaderPattern.FindStringSubmatch(line)
	if match == nil {
		return Change{}, false, fmt.Errorf("%w: %q", ErrMalformedChange, line)
	}

	number, err := strconv.Atoi(match[1])
	if err != nil {
		return Change{}, false, fmt.Errorf("%w: %q: %w", ErrMalformedChange, line, err)
	}

	change := Change{
		Number: number,
		Date:   match[2],
		User:   match[3],
		Client: match[4],
	}

	rest := strings.TrimSpace(match[5])
	if strings.HasPrefix(rest, pendingMarker) {
		change.Pending = true
		rest = strings.TrimSpace(strings.TrimPrefix(rest, pendingMarker))
	}

	if !strings.HasPrefix(rest, "'") {
		return change, false, nil
	}

	rest = strings.TrimPrefix(rest, "'")
	rest = strings.TrimSuffix(rest, "'")
	change.Description = strings.TrimSpace(rest)

	return change, true, nil
}

// ChangeScanner groups "p4 changes" output lines into Change records.
//
// Short-form headers carry their description and are emitted at once.
// Long-form (-l) headers are followed by tab-indented description lines and
// are emitted when the next header arrives or on Close.
type ChangeScanner struct {
	fn   func(Change) error
	cur  *Change
	desc []string
}

// NewChangeScanner creates a scanner delivering each record to fn.
func NewChangeScanner(fn func(Change) error) *ChangeScanner {
	return &ChangeScanner{fn: fn}
}

// Line consumes one output line.
func (s *ChangeScanner) Line(line string) error {
	if strings.HasPrefix(line, changePrefix) {
		if err := s.flush(); err != nil {
			return err
		}

		change, complete, err := ParseChangeHeader(line)
		if err != nil {
			return err
		}

		if complete {
			return s.fn(change)
		}

		s.cur = &change

		return nil
	}

	if s.cur == nil {
		return nil
	}

	if strings.HasPrefix(line, "\t") || strings.HasPrefix(line, " ") {
		s.desc = append(s.desc, strings.TrimSpace(line))
	}

	return nil
}

// Close emits a pending long-form record.
func (s *ChangeScanner) Close() error {
	return s.flush()
}

func (s *ChangeScanner) flush() error {
	if s.cur == nil {
		return nil
	}

	change := *s.cur
	change.Description = strings.TrimSpace(strings.Join(s.desc, "\n"))

	s.cur = nil
	s.desc = nil

	return s.fn(change)
}
