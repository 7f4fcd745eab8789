package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".defectmap"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for defectmap settings.
const envPrefix = "DEFECTMAP"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("p4.binary", DefaultP4Binary)
	viperCfg.SetDefault("p4.port", "")
	viperCfg.SetDefault("p4.user", "")
	viperCfg.SetDefault("p4.client", "")
	viperCfg.SetDefault("p4.long_descriptions", DefaultP4LongDescriptions)
	viperCfg.SetDefault("p4.timeout", DefaultP4Timeout)

	viperCfg.SetDefault("detect.patterns", []string{DefaultDefectPattern})

	viperCfg.SetDefault("analysis.workers", DefaultAnalysisWorkers)
	viperCfg.SetDefault("analysis.exclude", []string{})
	viperCfg.SetDefault("analysis.skip_vendor", DefaultAnalysisSkipVendor)

	viperCfg.SetDefault("report.dir", DefaultReportDir)
	viperCfg.SetDefault("report.min_count", DefaultReportMinCount)
	viperCfg.SetDefault("report.top", DefaultReportTop)
	viperCfg.SetDefault("report.plot", DefaultReportPlot)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_textfile", "")
	viperCfg.SetDefault("telemetry.trace_lookups", false)
}
