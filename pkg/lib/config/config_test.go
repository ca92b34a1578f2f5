package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Runner.PollIntervalMs != 100 {
		t.Errorf("Runner.PollIntervalMs = %d, want 100", cfg.Runner.PollIntervalMs)
	}
	if cfg.Runner.QueueCapacity != 0 {
		t.Errorf("Runner.QueueCapacity = %d, want 0", cfg.Runner.QueueCapacity)
	}
	if !cfg.Output.Print {
		t.Error("Output.Print should be true by default")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("defaults must validate, got %v", errs)
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	if cfg.Runner.PollInterval() != 100*time.Millisecond {
		t.Errorf("PollInterval() = %v", cfg.Runner.PollInterval())
	}
	if cfg.Runner.GracePeriod() != 10*time.Millisecond {
		t.Errorf("GracePeriod() = %v", cfg.Runner.GracePeriod())
	}
	if cfg.Watch.Debounce() != 200*time.Millisecond {
		t.Errorf("Debounce() = %v", cfg.Watch.Debounce())
	}
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Runner.PollIntervalMs != 100 || cfg.Watch.DebounceMs != 200 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestNewViper_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prh.yaml")
	content := "runner:\n  poll_interval_ms: 25\n  queue_capacity: 50\noutput:\n  line_prefix: \"[app] \"\nwatch:\n  paths: [\"a\", \"b\"]\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("PRH_LOGGING_LEVEL", "debug")

	v, err := NewViper(file)
	if err != nil {
		t.Fatalf("NewViper failed: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Runner.PollIntervalMs != 25 || cfg.Runner.QueueCapacity != 50 {
		t.Errorf("file values not applied: %+v", cfg.Runner)
	}
	if cfg.Output.LinePrefix != "[app] " {
		t.Errorf("LinePrefix = %q", cfg.Output.LinePrefix)
	}
	if len(cfg.Watch.Paths) != 2 {
		t.Errorf("Watch.Paths = %v", cfg.Watch.Paths)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env override not applied: %q", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults
	if cfg.Watch.DebounceMs != 200 {
		t.Errorf("DebounceMs = %d, want 200", cfg.Watch.DebounceMs)
	}
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestNewViper_NoFileInSearchPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdirForTest(t, t.TempDir())

	if _, err := NewViper(""); err != nil {
		t.Fatalf("NewViper without config file failed: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Runner.PollIntervalMs = 0
	cfg.Runner.QueueCapacity = -1
	cfg.Logging.Level = "verbose"
	cfg.Watch.Paths = []string{"ok", " "}

	errs := cfg.Validate()
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"runner.poll_interval_ms", "runner.queue_capacity", "logging.level", "watch.paths[1]"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s in %v", want, errs)
		}
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("runner.poll_interval_ms", -5)

	_, err := Load(v)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 1 {
		t.Fatalf("expected one validation error, got %v", err)
	}
	if verrs.Error() != verrs[0].Error() {
		t.Errorf("single error should format as itself")
	}
}

func TestLogLevelCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "DEBUG"
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("uppercase level should be accepted, got %v", errs)
	}
}
