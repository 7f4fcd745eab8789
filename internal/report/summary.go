package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/defectmap/internal/defects"
)

// DefaultTop is the number of files listed in the terminal summary.
const DefaultTop = 20

// Summary is everything the terminal summary shows about one run.
type Summary struct {
	Period        Period
	Since         time.Time
	Changelists   int
	DefectFixes   int
	FailedLookups int
	Excluded      int
	Files         int
	Touches       int
	Duration      time.Duration
	Entries       []defects.Entry
	CSVPath       string
	PlotPath      string
}

// SummaryOptions controls the terminal summary.
type SummaryOptions struct {
	Top     int
	NoColor bool
}

// LanguageShare is the number of defect touches attributed to one language.
type LanguageShare struct {
	Language string
	Files    int
	Touches  int
}

// ByLanguage groups entries by their enry language, largest share first.
func ByLanguage(entries []defects.Entry) []LanguageShare {
	index := make(map[string]int)

	var shares []LanguageShare

	for _, entry := range entries {
		lang := defects.Language(entry.Path)

		i, ok := index[lang]
		if !ok {
			i = len(shares)
			index[lang] = i
			shares = append(shares, LanguageShare{Language: lang})
		}

		shares[i].Files++
		shares[i].Touches += entry.Count
	}

	slices.SortFunc(shares, func(a, b LanguageShare) int {
		if c := cmp.Compare(b.Touches, a.Touches); c != 0 {
			return c
		}

		return cmp.Compare(a.Language, b.Language)
	})

	return shares
}

// WriteSummary prints the run headline, the top files and the language breakdown.
func WriteSummary(w io.Writer, s Summary, o SummaryOptions) error {
	headline := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)
	hot := color.New(color.FgRed)

	if o.NoColor {
		headline.DisableColor()
		warn.DisableColor()
		hot.DisableColor()
	}

	top := o.Top
	if top <= 0 {
		top = DefaultTop
	}

	_, err := headline.Fprintf(w, "Defect fixes since %s (%s)\n",
		s.Period.Start, humanize.RelTime(s.Since, s.Period.Now, "ago", "from now"))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s changelists scanned, %s defect fixes, %s file touches across %s files, %s ranked, took %s\n",
		humanize.Comma(int64(s.Changelists)),
		humanize.Comma(int64(s.DefectFixes)),
		humanize.Comma(int64(s.Touches)),
		humanize.Comma(int64(s.Files)),
		humanize.Comma(int64(len(s.Entries))),
		s.Duration.Round(time.Millisecond))
	if err != nil {
		return err
	}

	if s.FailedLookups > 0 {
		if _, err = warn.Fprintf(w, "%s file lookups failed, see the log\n", humanize.Comma(int64(s.FailedLookups))); err != nil {
			return err
		}
	}

	if s.Excluded > 0 {
		if _, err = fmt.Fprintf(w, "%s file revisions excluded\n", humanize.Comma(int64(s.Excluded))); err != nil {
			return err
		}
	}

	if len(s.Entries) > 0 {
		if _, err = fmt.Fprintf(w, "\n%s\n\n%s\n", filesTable(s.Entries, top, hot), languageTable(s.Entries)); err != nil {
			return err
		}
	}

	if s.CSVPath != "" {
		if _, err = fmt.Fprintf(w, "\nReport: %s\n", s.CSVPath); err != nil {
			return err
		}
	}

	if s.PlotPath != "" {
		if _, err = fmt.Fprintf(w, "Chart:  %s\n", s.PlotPath); err != nil {
			return err
		}
	}

	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func filesTable(entries []defects.Entry, top int, hot *color.Color) string {
	shown := entries[:min(top, len(entries))]

	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "File", "Language", "Defect fixes"})
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})

	for i, entry := range shown {
		count := humanize.Comma(int64(entry.Count))
		if i == 0 {
			count = hot.Sprint(count)
		}

		tbl.AppendRow(table.Row{i + 1, entry.Path, defects.Language(entry.Path), count})
	}

	if rest := len(entries) - len(shown); rest > 0 {
		tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d more in the CSV report", rest), "", ""})
	}

	return tbl.Render()
}

func languageTable(entries []defects.Entry) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Language", "Files", "Defect fixes"})

	for _, share := range ByLanguage(entries) {
		tbl.AppendRow(table.Row{share.Language, share.Files, humanize.Comma(int64(share.Touches))})
	}

	return tbl.Render()
}
