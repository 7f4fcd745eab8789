// Package report renders the ranked defect tally: the CSV file the tool is
// run for, an optional HTML chart and the terminal summary.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/defectmap/internal/defects"
	"github.com/Sumatoshi-tech/defectmap/internal/startdate"
)

// DefaultDir is the directory reports are written to when none is configured.
const DefaultDir = "results"

const (
	filePrefix   = "refactoring_priority"
	csvExtension = ".csv"
	dirPerm      = 0o755
)

// ErrNoDir is returned when the report directory is empty.
var ErrNoDir = errors.New("report directory is empty")

// Period names the analyzed window in report headers and file names.
type Period struct {
	// Start is the validated start argument, e.g. "2019/08/05".
	Start string
	Now   time.Time
}

// StartLabel returns the start date with slashes replaced by dashes.
func (p Period) StartLabel() string { return startdate.SanitizeString(p.Start) }

// EndLabel returns today's date as Y-M-D without padding.
func (p Period) EndLabel() string { return startdate.SanitizeTime(p.Now) }

// FileName returns the base name of the CSV report for the period.
func (p Period) FileName() string {
	return fmt.Sprintf("%s_from_%s_to_%s%s", filePrefix, p.StartLabel(), p.EndLabel(), csvExtension)
}

// Header returns the first CSV row.
func (p Period) Header() []string {
	return []string{
		"Filename",
		fmt.Sprintf("Number of changes due to defect fixes between %s and %s", p.StartLabel(), p.EndLabel()),
	}
}

// WriteCSV writes the header row and one row per entry.
func WriteCSV(w io.Writer, period Period, entries []defects.Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(period.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, entry := range entries {
		if err := cw.Write([]string{entry.Path, strconv.Itoa(entry.Count)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// SaveCSV creates dir if needed and writes the CSV report into it,
// returning the path of the written file.
func SaveCSV(dir string, period Period, entries []defects.Entry) (string, error) {
	if dir == "" {
		return "", ErrNoDir
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, period.FileName())

	err := writeFile(path, func(w io.Writer) error {
		return WriteCSV(w, period, entries)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return render(f)
}
