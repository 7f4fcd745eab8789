package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/defectmap/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".defectmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultP4Binary, cfg.P4.Binary)
	assert.Empty(t, cfg.P4.Port)
	assert.False(t, cfg.P4.LongDescriptions)
	assert.Zero(t, cfg.P4.Timeout)
	assert.Equal(t, []string{config.DefaultDefectPattern}, cfg.Detect.Patterns)
	assert.Equal(t, config.DefaultAnalysisWorkers, cfg.Analysis.Workers)
	assert.Empty(t, cfg.Analysis.Exclude)
	assert.Equal(t, config.DefaultReportDir, cfg.Report.Dir)
	assert.Equal(t, config.DefaultReportMinCount, cfg.Report.MinCount)
	assert.Equal(t, config.DefaultReportTop, cfg.Report.Top)
	assert.False(t, cfg.Report.Plot)
	assert.Equal(t, config.DefaultLoggingLevel, cfg.Logging.Level)
	assert.Empty(t, cfg.Telemetry.MetricsTextfile)
	assert.False(t, cfg.Telemetry.TraceLookups)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `p4:
  binary: /opt/perforce/bin/p4
  port: ssl:perforce.example.com:1666
  user: buildbot
  client: buildbot-ws
  long_descriptions: true
  timeout: 90s
detect:
  patterns:
    - '(?i)DE\s?\d{3,8}'
    - 'BUG-\d+'
analysis:
  workers: 4
  exclude:
    - "//depot/main/thirdparty/**"
  skip_vendor: true
report:
  dir: out
  min_count: 3
  top: 50
  plot: true
logging:
  level: debug
  json: true
telemetry:
  metrics_textfile: /var/lib/node_exporter/defectmap.prom
  trace_lookups: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/perforce/bin/p4", cfg.P4.Binary)
	assert.Equal(t, "ssl:perforce.example.com:1666", cfg.P4.Port)
	assert.Equal(t, "buildbot", cfg.P4.User)
	assert.Equal(t, "buildbot-ws", cfg.P4.Client)
	assert.True(t, cfg.P4.LongDescriptions)
	assert.Equal(t, 90*time.Second, cfg.P4.Timeout)
	assert.Equal(t, []string{`(?i)DE\s?\d{3,8}`, `BUG-\d+`}, cfg.Detect.Patterns)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, []string{"//depot/main/thirdparty/**"}, cfg.Analysis.Exclude)
	assert.True(t, cfg.Analysis.SkipVendor)
	assert.Equal(t, "out", cfg.Report.Dir)
	assert.Equal(t, 3, cfg.Report.MinCount)
	assert.Equal(t, 50, cfg.Report.Top)
	assert.True(t, cfg.Report.Plot)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "/var/lib/node_exporter/defectmap.prom", cfg.Telemetry.MetricsTextfile)
	assert.True(t, cfg.Telemetry.TraceLookups)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DEFECTMAP_ANALYSIS_WORKERS", "3")
	t.Setenv("DEFECTMAP_P4_PORT", "perforce:1666")

	cfg, err := config.LoadConfig(writeConfig(t, "analysis:\n  workers: 6\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, "perforce:1666", cfg.P4.Port)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "zero workers", content: "analysis:\n  workers: 0\n", want: config.ErrInvalidWorkers},
		{name: "zero min count", content: "report:\n  min_count: 0\n", want: config.ErrInvalidMinCount},
		{name: "negative top", content: "report:\n  top: -1\n", want: config.ErrInvalidTop},
		{name: "empty binary", content: "p4:\n  binary: \"\"\n", want: config.ErrNoBinary},
		{name: "empty dir", content: "report:\n  dir: \"\"\n", want: config.ErrEmptyResultsDir},
		{name: "bad exclude", content: "analysis:\n  exclude: [\"//depot/[x\"]\n", want: config.ErrInvalidExclude},
		{name: "negative timeout", content: "p4:\n  timeout: -5s\n", want: config.ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "p4: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate_EmptyPatterns(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		P4:       config.P4Config{Binary: "p4"},
		Analysis: config.AnalysisConfig{Workers: 1},
		Report:   config.ReportConfig{Dir: "results", MinCount: 2},
	}

	require.ErrorIs(t, cfg.Validate(), config.ErrNoPatterns)

	cfg.Detect.Patterns = []string{"DE\\d+"}
	require.NoError(t, cfg.Validate())
}
