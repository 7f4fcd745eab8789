package report

import (
	"errors"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/defectmap/internal/defects"
)

const (
	plotExtension = ".html"
	plotLimit     = 50
	xAxisRotate   = 60
	dataZoomEnd   = 100
	barColor      = "#e5534b"
)

// ErrNothingToPlot is returned when there are no entries to chart.
var ErrNothingToPlot = errors.New("no files to plot")

// PlotPath returns the chart path written next to the CSV report.
func PlotPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, csvExtension) + plotExtension
}

// WritePlot renders an HTML bar chart of defect fixes per file for the
// highest ranked entries.
func WritePlot(w io.Writer, period Period, entries []defects.Entry) error {
	if len(entries) == 0 {
		return ErrNothingToPlot
	}

	if len(entries) > plotLimit {
		entries = entries[:plotLimit]
	}

	labels := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))

	for i, entry := range entries {
		labels[i] = entry.Path
		data[i] = opts.BarData{Value: entry.Count, Name: defects.Language(entry.Path)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "defectmap",
			Width:     "100%",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Defect fixes per file",
			Subtitle: period.StartLabel() + " to " + period.EndLabel(),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Bottom: "30%", ContainLabel: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Defect fixes"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEnd},
			opts.DataZoom{Type: "inside"},
		),
	)

	bar.SetXAxis(labels)
	bar.AddSeries("Defect fixes", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: barColor}))

	return bar.Render(w)
}

// SavePlot writes the chart next to csvPath and returns its path.
func SavePlot(csvPath string, period Period, entries []defects.Entry) (string, error) {
	if len(entries) == 0 {
		return "", ErrNothingToPlot
	}

	path := PlotPath(csvPath)

	err := writeFile(path, func(w io.Writer) error {
		return WritePlot(w, period, entries)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}
