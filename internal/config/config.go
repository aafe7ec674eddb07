package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Values come from
// an optional YAML file overlaid by BREADTH_* environment variables;
// environment wins.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/breadth-report.log"`
}

// PathsConfig contains file system layout configuration. Relative
// entries are resolved against the executable directory by Paths.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	HistoryFile string `yaml:"history_file" envconfig:"HISTORY_FILE" default:"market_breadth.csv"`
}

// SourceConfig describes the upstream market-activity feed.
type SourceConfig struct {
	URL       string        `yaml:"url" envconfig:"URL" default:"https://legulegu.com/stockdata/market-activity" validate:"required,url"`
	ItemsPath string        `yaml:"items_path" envconfig:"ITEMS_PATH" default:"data"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s" validate:"gt=0"`
	Retries   int           `yaml:"retries" envconfig:"RETRIES" default:"3" validate:"gte=1,lte=10"`
	// RatePerMinute bounds outbound requests; the feed publishes once a
	// day so a low ceiling is plenty.
	RatePerMinute int `yaml:"rate_per_minute" envconfig:"RATE_PER_MINUTE" default:"20" validate:"gte=1"`
}

// AnalysisConfig controls the rolling analysis window.
type AnalysisConfig struct {
	WindowDays int `yaml:"window_days" envconfig:"WINDOW_DAYS" default:"60" validate:"gte=1,lte=365"`
}

const defaultReportsDir = "data/reports"

// ApplyOverrides applies command line overrides. Overriding the data
// directory moves the whole data tree: the reports directory follows
// it unless the configuration pinned reports somewhere else.
func (c *Config) ApplyOverrides(windowDays int, dataDir string) {
	if windowDays > 0 {
		c.Analysis.WindowDays = windowDays
	}
	if dataDir != "" {
		if c.Paths.ReportsDir == defaultReportsDir {
			c.Paths.ReportsDir = filepath.Join(dataDir, "reports")
		}
		c.Paths.DataDir = dataDir
	}
}

// Load loads configuration from the optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return loadFrom(configFilePath())
}

func loadFrom(path string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("BREADTH", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// mergeConfigs overlays file values onto the env-derived config.
// envconfig fills the default tag for every variable it does not find,
// so the env struct alone cannot distinguish "defaulted" from
// "explicitly set". A non-zero file value therefore wins unless its
// BREADTH_* variable is actually present in the environment.
func mergeConfigs(file, env Config) Config {
	mergeString := func(dst *string, v, key string) {
		if v != "" && !envSet(key) {
			*dst = v
		}
	}
	mergeInt := func(dst *int, v int, key string) {
		if v != 0 && !envSet(key) {
			*dst = v
		}
	}

	mergeString(&env.Logging.Level, file.Logging.Level, "LOGGING_LEVEL")
	mergeString(&env.Logging.Output, file.Logging.Output, "LOGGING_OUTPUT")
	mergeString(&env.Logging.FilePath, file.Logging.FilePath, "LOGGING_FILE_PATH")

	mergeString(&env.Paths.DataDir, file.Paths.DataDir, "PATHS_DATA_DIR")
	mergeString(&env.Paths.ReportsDir, file.Paths.ReportsDir, "PATHS_REPORTS_DIR")
	mergeString(&env.Paths.LogsDir, file.Paths.LogsDir, "PATHS_LOGS_DIR")
	mergeString(&env.Paths.HistoryFile, file.Paths.HistoryFile, "PATHS_HISTORY_FILE")

	mergeString(&env.Source.URL, file.Source.URL, "SOURCE_URL")
	mergeString(&env.Source.ItemsPath, file.Source.ItemsPath, "SOURCE_ITEMS_PATH")
	if file.Source.Timeout != 0 && !envSet("SOURCE_TIMEOUT") {
		env.Source.Timeout = file.Source.Timeout
	}
	mergeInt(&env.Source.Retries, file.Source.Retries, "SOURCE_RETRIES")
	mergeInt(&env.Source.RatePerMinute, file.Source.RatePerMinute, "SOURCE_RATE_PER_MINUTE")

	mergeInt(&env.Analysis.WindowDays, file.Analysis.WindowDays, "ANALYSIS_WINDOW_DAYS")

	return env
}

func envSet(key string) bool {
	_, ok := os.LookupEnv("BREADTH_" + key)
	return ok
}

// configFilePath returns the first config file found in the common
// locations, or empty when only env/defaults apply.
func configFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
