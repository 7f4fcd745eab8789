// Package config loads defectmap settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers  = errors.New("analysis workers must be positive")
	ErrInvalidMinCount = errors.New("report min count must be positive")
	ErrInvalidTop      = errors.New("report top must not be negative")
	ErrNoPatterns      = errors.New("at least one defect pattern is required")
	ErrNoBinary        = errors.New("p4 binary must not be empty")
	ErrEmptyResultsDir = errors.New("report dir must not be empty")
	ErrInvalidExclude  = errors.New("invalid exclude pattern")
	ErrInvalidTimeout  = errors.New("p4 timeout must not be negative")
)

// Config is the top-level configuration struct for defectmap.
// Field tags use mapstructure for viper unmarshalling and yaml for display.
type Config struct {
	P4        P4Config        `mapstructure:"p4"        yaml:"p4"`
	Detect    DetectConfig    `mapstructure:"detect"    yaml:"detect"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Report    ReportConfig    `mapstructure:"report"    yaml:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// P4Config holds how the Perforce client is invoked.
type P4Config struct {
	Binary           string        `mapstructure:"binary"            yaml:"binary"`
	Port             string        `mapstructure:"port"              yaml:"port"`
	User             string        `mapstructure:"user"              yaml:"user"`
	Client           string        `mapstructure:"client"            yaml:"client"`
	LongDescriptions bool          `mapstructure:"long_descriptions" yaml:"long_descriptions"`
	Timeout          time.Duration `mapstructure:"timeout"           yaml:"timeout"`
}

// DetectConfig holds defect identifier patterns.
type DetectConfig struct {
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`
}

// AnalysisConfig holds pipeline knobs.
type AnalysisConfig struct {
	Workers    int      `mapstructure:"workers"     yaml:"workers"`
	Exclude    []string `mapstructure:"exclude"     yaml:"exclude"`
	SkipVendor bool     `mapstructure:"skip_vendor" yaml:"skip_vendor"`
}

// ReportConfig holds output settings.
type ReportConfig struct {
	Dir      string `mapstructure:"dir"       yaml:"dir"`
	MinCount int    `mapstructure:"min_count" yaml:"min_count"`
	Top      int    `mapstructure:"top"       yaml:"top"`
	Plot     bool   `mapstructure:"plot"      yaml:"plot"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json"  yaml:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"    yaml:"otlp_endpoint"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"    yaml:"otlp_insecure"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
	TraceLookups    bool   `mapstructure:"trace_lookups"    yaml:"trace_lookups"`
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.P4.Binary == "" {
		return ErrNoBinary
	}

	if c.P4.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.P4.Timeout)
	}

	if len(c.Detect.Patterns) == 0 {
		return ErrNoPatterns
	}

	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Analysis.Workers)
	}

	for _, pattern := range c.Analysis.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidExclude, pattern)
		}
	}

	if c.Report.Dir == "" {
		return ErrEmptyResultsDir
	}

	if c.Report.MinCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinCount, c.Report.MinCount)
	}

	if c.Report.Top < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTop, c.Report.Top)
	}

	return nil
}
