// Package commands implements CLI command handlers for defectmap.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/defectmap/internal/config"
	"github.com/Sumatoshi-tech/defectmap/internal/defects"
	"github.com/Sumatoshi-tech/defectmap/internal/observability"
	"github.com/Sumatoshi-tech/defectmap/internal/p4"
	"github.com/Sumatoshi-tech/defectmap/internal/prioritizer"
	"github.com/Sumatoshi-tech/defectmap/internal/report"
	"github.com/Sumatoshi-tech/defectmap/internal/startdate"
	"github.com/Sumatoshi-tech/defectmap/pkg/version"
)

// ErrInvalidStartDate is returned for a start date argument that fails validation.
var ErrInvalidStartDate = errors.New("start date is invalid")

type (
	observabilityInit func(observability.Config) (observability.Providers, error)
	runnerFactory     func(p4.ExecOptions) p4.Runner
	configLoader      func(path string) (*config.Config, error)
	clock             func() time.Time
)

// deps are the seams tests replace.
type deps struct {
	obsInit    observabilityInit
	newRunner  runnerFactory
	loadConfig configLoader
	now        clock
}

func defaultDeps() deps {
	return deps{
		obsInit: observability.Init,
		newRunner: func(opts p4.ExecOptions) p4.Runner {
			return p4.NewExecRunner(opts)
		},
		loadConfig: config.LoadConfig,
		now:        time.Now,
	}
}

// RootCommand holds the flags and dependencies of the defectmap command tree.
type RootCommand struct {
	configPath string

	p4Binary string
	p4Port   string
	p4User   string
	p4Client string
	long     bool
	timeout  time.Duration

	workers    int
	patterns   []string
	excludes   []string
	skipVendor bool

	resultsDir string
	minCount   int
	top        int
	plot       bool

	noColor bool
	quiet   bool
	verbose bool
	logJSON bool

	metricsTextfile string

	deps deps
}

// NewRootCommand creates the defectmap command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommandWithDeps(defaultDeps())
}

func newRootCommandWithDeps(d deps) *cobra.Command {
	rc := &RootCommand{deps: d}

	cmd := &cobra.Command{
		Use:   "defectmap <YYYY/MM/DD>",
		Short: "Rank Perforce depot files by the defect fixes that touched them",
		Long: `defectmap scans every changelist submitted to a Perforce depot since the
given day, keeps those whose description names a defect (for example DE1234),
and counts per file how many of those fixes touched it.

The ranking is written as CSV to the results directory so the files that keep
attracting fixes can be prioritized for refactoring.`,
		Example:       "  defectmap 2019/08/05\n  defectmap 2024/01/01 --exclude '//depot/thirdparty/**' --plot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	rc.registerFlags(cmd)

	cmd.AddCommand(newConfigCommand(rc))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (rc *RootCommand) registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&rc.configPath, "config", "", "Config file (default: .defectmap.yaml in CWD or $HOME)")

	flags.StringVar(&rc.p4Binary, "p4", config.DefaultP4Binary, "Perforce command-line client to run")
	flags.StringVar(&rc.p4Port, "p4-port", "", "Perforce server address (p4 -p)")
	flags.StringVar(&rc.p4User, "p4-user", "", "Perforce user (p4 -u)")
	flags.StringVar(&rc.p4Client, "p4-client", "", "Perforce client workspace (p4 -c)")
	flags.BoolVar(&rc.long, "long", false, "Match defect patterns against full changelist descriptions (p4 changes -l)")
	flags.DurationVar(&rc.timeout, "p4-timeout", 0, "Kill a p4 process running longer than this (0 = no limit)")

	flags.IntVarP(&rc.workers, "workers", "w", config.DefaultAnalysisWorkers, "Concurrent p4 files lookups")
	flags.StringArrayVar(&rc.patterns, "pattern", nil, "Defect identifier regexp (repeatable, replaces the default)")
	flags.StringArrayVar(&rc.excludes, "exclude", nil, "Depot path glob to leave out of the count (repeatable)")
	flags.BoolVar(&rc.skipVendor, "skip-vendor", false, "Leave vendored and third-party paths out of the count")

	flags.StringVarP(&rc.resultsDir, "results-dir", "o", config.DefaultReportDir, "Directory the reports are written to")
	flags.IntVar(&rc.minCount, "min-count", config.DefaultReportMinCount, "Minimum defect fixes for a file to be reported")
	flags.IntVar(&rc.top, "top", config.DefaultReportTop, "Files listed in the terminal summary")
	flags.BoolVar(&rc.plot, "plot", false, "Also write an HTML bar chart next to the CSV")

	flags.BoolVar(&rc.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&rc.quiet, "quiet", "q", false, "Only log warnings and skip the summary")
	flags.BoolVarP(&rc.verbose, "verbose", "v", false, "Log every changelist")
	flags.BoolVar(&rc.logJSON, "log-json", false, "Log as JSON")
	flags.StringVar(&rc.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
}

// resolveConfig loads the config file and applies the flags the user set.
func (rc *RootCommand) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := rc.deps.loadConfig(rc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"p4", func() { cfg.P4.Binary = rc.p4Binary }},
		{"p4-port", func() { cfg.P4.Port = rc.p4Port }},
		{"p4-user", func() { cfg.P4.User = rc.p4User }},
		{"p4-client", func() { cfg.P4.Client = rc.p4Client }},
		{"long", func() { cfg.P4.LongDescriptions = rc.long }},
		{"p4-timeout", func() { cfg.P4.Timeout = rc.timeout }},
		{"workers", func() { cfg.Analysis.Workers = rc.workers }},
		{"pattern", func() { cfg.Detect.Patterns = rc.patterns }},
		{"exclude", func() { cfg.Analysis.Exclude = rc.excludes }},
		{"skip-vendor", func() { cfg.Analysis.SkipVendor = rc.skipVendor }},
		{"results-dir", func() { cfg.Report.Dir = rc.resultsDir }},
		{"min-count", func() { cfg.Report.MinCount = rc.minCount }},
		{"top", func() { cfg.Report.Top = rc.top }},
		{"plot", func() { cfg.Report.Plot = rc.plot }},
		{"log-json", func() { cfg.Logging.JSON = rc.logJSON }},
		{"metrics-textfile", func() { cfg.Telemetry.MetricsTextfile = rc.metricsTextfile }},
	}

	for _, o := range overrides {
		if flags.Changed(o.flag) {
			o.apply()
		}
	}

	switch {
	case rc.verbose:
		cfg.Logging.Level = "debug"
	case rc.quiet:
		cfg.Logging.Level = "warn"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (rc *RootCommand) observabilityConfig(cfg *config.Config, logOutput io.Writer) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = os.Getenv("DEFECTMAP_ENVIRONMENT")
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile

	if !cfg.Telemetry.TraceLookups {
		obsCfg.SuppressSpans = []string{prioritizer.SpanLookup}
	}

	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = logOutput

	return obsCfg
}

func (rc *RootCommand) run(cmd *cobra.Command, args []string) (err error) {
	now := rc.deps.now()

	since, err := startdate.Parse(args[0], now)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidStartDate, args[0], err)
	}

	cfg, err := rc.resolveConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := rc.deps.obsInit(rc.observabilityConfig(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if providers.Shutdown == nil {
			return
		}

		if shutdownErr := providers.Shutdown(context.WithoutCancel(cmd.Context())); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown observability: %w", shutdownErr))
		}
	}()

	logger := providers.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var metrics *observability.RunMetrics

	if providers.Meter != nil {
		metrics, err = observability.NewRunMetrics(providers.Meter)
		if err != nil {
			return fmt.Errorf("create run metrics: %w", err)
		}
	}

	detector, err := defects.NewDetector(cfg.Detect.Patterns)
	if err != nil {
		return err
	}

	filter, err := defects.NewFilter(cfg.Analysis.Exclude, cfg.Analysis.SkipVendor)
	if err != nil {
		return err
	}

	runner := rc.deps.newRunner(p4.ExecOptions{
		Binary: cfg.P4.Binary,
		Port:   cfg.P4.Port,
		User:   cfg.P4.User,
		Client: cfg.P4.Client,
	})

	pr := prioritizer.New(p4.NewClient(runner, cfg.P4.LongDescriptions), detector, prioritizer.Options{
		Workers: cfg.Analysis.Workers,
		Timeout: cfg.P4.Timeout,
		Filter:  filter,
		Logger:  logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	})

	res, err := pr.Run(cmd.Context(), since)
	if err != nil {
		return err
	}

	return rc.writeReports(cmd, cfg, logger, report.Period{Start: args[0], Now: now}, res)
}

func (rc *RootCommand) writeReports(
	cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, period report.Period, res *prioritizer.Result,
) error {
	entries := res.Tally.Ranked(cfg.Report.MinCount)

	csvPath, err := report.SaveCSV(cfg.Report.Dir, period, entries)
	if err != nil {
		return err
	}

	logger.InfoContext(cmd.Context(), "report written", "path", csvPath, "files", len(entries))

	var plotPath string

	if cfg.Report.Plot {
		plotPath, err = report.SavePlot(csvPath, period, entries)

		switch {
		case errors.Is(err, report.ErrNothingToPlot):
			logger.InfoContext(cmd.Context(), "no files reached the minimum count, chart skipped")
		case err != nil:
			return err
		default:
			logger.InfoContext(cmd.Context(), "chart written", "path", plotPath)
		}
	}

	if rc.quiet {
		return nil
	}

	return report.WriteSummary(cmd.OutOrStdout(), report.Summary{
		Period:        period,
		Since:         res.Since,
		Changelists:   res.Changelists,
		DefectFixes:   res.DefectFixes,
		FailedLookups: res.FailedLookups,
		Excluded:      res.Excluded,
		Files:         res.Tally.Len(),
		Touches:       res.Tally.Total(),
		Duration:      res.Duration,
		Entries:       entries,
		CSVPath:       csvPath,
		PlotPath:      plotPath,
	}, report.SummaryOptions{Top: cfg.Report.Top, NoColor: rc.noColor})
}
