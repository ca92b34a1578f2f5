// Package config loads runner settings from defaults, an optional YAML file
// and PRH_ environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. PRH_LOGGING_LEVEL
// for logging.level.
const EnvPrefix = "PRH"

// Config represents the complete runner configuration
type Config struct {
	Runner  RunnerConfig  `mapstructure:"runner"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	Journal JournalConfig `mapstructure:"journal"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// RunnerConfig controls the crawler and handle defaults
type RunnerConfig struct {
	// PollIntervalMs is the crawler period and the Receive fallback poll
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// GracePeriodMs is the final wait of Receive after the process is done
	GracePeriodMs int `mapstructure:"grace_period_ms"`
	// QueueCapacity enables per-line delivery queues when positive
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// OutputConfig controls console echo of captured lines
type OutputConfig struct {
	Print      bool   `mapstructure:"print"`
	LinePrefix string `mapstructure:"line_prefix"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File is the log file path; empty logs to stderr
	File string `mapstructure:"file"`
}

// JournalConfig controls the lifecycle event journal
type JournalConfig struct {
	// Path of the JSON lines journal; empty disables it
	Path string `mapstructure:"path"`
}

// WatchConfig controls restart on file change
type WatchConfig struct {
	Paths      []string `mapstructure:"paths"`
	DebounceMs int      `mapstructure:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{
			PollIntervalMs: 100,
			GracePeriodMs:  10,
			QueueCapacity:  0,
		},
		Output: OutputConfig{
			Print:      true,
			LinePrefix: "",
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
		Journal: JournalConfig{
			Path: "",
		},
		Watch: WatchConfig{
			Paths:      nil,
			DebounceMs: 200,
		},
	}
}

// PollInterval returns the poll interval as a time.Duration
func (c *RunnerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// GracePeriod returns the grace period as a time.Duration
func (c *RunnerConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMs) * time.Millisecond
}

// Debounce returns the debounce window as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("runner.poll_interval_ms", defaults.Runner.PollIntervalMs)
	v.SetDefault("runner.grace_period_ms", defaults.Runner.GracePeriodMs)
	v.SetDefault("runner.queue_capacity", defaults.Runner.QueueCapacity)

	v.SetDefault("output.print", defaults.Output.Print)
	v.SetDefault("output.line_prefix", defaults.Output.LinePrefix)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)

	v.SetDefault("journal.path", defaults.Journal.Path)

	v.SetDefault("watch.paths", defaults.Watch.Paths)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
}

// NewViper returns a viper instance with defaults registered, environment
// overrides enabled and the config file read. cfgFile overrides the search
// path; a missing file in the search path is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	// e.g. PRH_RUNNER_POLL_INTERVAL_MS for runner.poll_interval_ms
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prh")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prh"
	}
	return filepath.Join(home, ".config", "prh")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
