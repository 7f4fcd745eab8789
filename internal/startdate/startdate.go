// Package startdate validates and formats the YYYY/MM/DD start date argument.
package startdate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinYear is the earliest accepted start year.
const MinYear = 2016

const (
	minMonth = 1
	maxMonth = 12
	minDay   = 1
	maxDay   = 31
)

// Validation errors.
var (
	ErrFormat        = errors.New("start date must have the form YYYY/MM/DD")
	ErrYear          = errors.New("start year out of range")
	ErrMonth         = errors.New("start month out of range")
	ErrDay           = errors.New("start day out of range")
	ErrNotInCalendar = errors.New("start date does not exist")
	ErrFuture        = errors.New("start date is in the future")
)

var datePattern = regexp.MustCompile(`^(\d{4})/(\d{2})/(\d{2})$`)

// Parse validates s against now and returns the start of that day in now's location.
func Parse(s string, now time.Time) (time.Time, error) {
	match := datePattern.FindStringSubmatch(s)
	if match == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, s)
	}

	// The pattern guarantees digits, Atoi cannot fail.
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])

	if year < MinYear || year > now.Year() {
		return time.Time{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrYear, year, MinYear, now.Year())
	}

	if month < minMonth || month > maxMonth {
		return time.Time{}, fmt.Errorf("%w: %d", ErrMonth, month)
	}

	if day < minDay || day > maxDay {
		return time.Time{}, fmt.Errorf("%w: %d", ErrDay, day)
	}

	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if parsed.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotInCalendar, s)
	}

	if parsed.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrFuture, s)
	}

	return parsed, nil
}

// Validate reports whether s is an acceptable start date.
func Validate(s string, now time.Time) bool {
	_, err := Parse(s, now)

	return err == nil
}

// SanitizeString turns a YYYY/MM/DD string into a file-name friendly YYYY-MM-DD.
func SanitizeString(date string) string {
	return strings.ReplaceAll(date, "/", "-")
}

// SanitizeTime formats t as Y-M-D without zero padding.
func SanitizeTime(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}
