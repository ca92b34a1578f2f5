package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "runner.poll_interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateRunner()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateWatch()...)

	return errors
}

func (c *Config) validateRunner() []ValidationError {
	var errors []ValidationError

	if c.Runner.PollIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "runner.poll_interval_ms",
			Value:   c.Runner.PollIntervalMs,
			Message: "must be positive",
		})
	}

	if c.Runner.GracePeriodMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "runner.grace_period_ms",
			Value:   c.Runner.GracePeriodMs,
			Message: "must be non-negative",
		})
	}

	if c.Runner.QueueCapacity < 0 {
		errors = append(errors, ValidationError{
			Field:   "runner.queue_capacity",
			Value:   c.Runner.QueueCapacity,
			Message: "must be non-negative (0 disables queues)",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		})
	}

	for i, path := range c.Watch.Paths {
		if strings.TrimSpace(path) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("watch.paths[%d]", i),
				Value:   path,
				Message: "must not be empty",
			})
		}
	}

	return errors
}
