package p4

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedFile is returned for a "p4 files" line that cannot be parsed.
var ErrMalformedFile = errors.New("malformed file revision line")

var fileRevPattern = regexp.MustCompile(
	`^([^#]+)#(\d+) - (\S+)(?: (?:default )?change (\d+))?(?: \(([^)]*)\))?`,
)

// FileRev is one file revision listed by "p4 files".
type FileRev struct {
	Path     string
	Revision int
	Action   string
	Change   int
	Type     string
}

// ParseFileRev parses a "<depot-path>#<rev> - <action> change <n> (<type>)" line.
func ParseFileRev(line string) (FileRev, error) {
	match := fileRevPattern.FindStringSubmatch(line)
	if match == nil {
		return FileRev{}, fmt.Errorf("%w: %q", ErrMalformedFile, line)
	}

	rev, err := strconv.Atoi(match[2])
	if err != nil {
		return FileRev{}, fmt.Errorf("%w: %q: %w", ErrMalformedFile, line, err)
	}

	fr := FileRev{
		Path:     match[1],
		Revision: rev,
		Action:   match[3],
		Type:     match[5],
	}

	if match[4] != "" {
		fr.Change, err = strconv.Atoi(match[4])
		if err != nil {
			return FileRev{}, fmt.Errorf("%w: %q: %w", ErrMalformedFile, line, err)
		}
	}

	return fr, nil
}
