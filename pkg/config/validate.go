package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "generator.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// collecting every failed rule, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateGenerator(&cfg.Generator)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateGitSource(&cfg.Server.GuidelineGit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 10 {
		errs = append(errs, FieldError{
			Field:   "engine.max_attempts",
			Message: fmt.Sprintf("must be between 1 and 10, got %d", cfg.MaxAttempts),
		})
	}
	if cfg.BaseDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.base_delay",
			Message: "must not be negative",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.timeout",
			Message: "must not be negative",
		})
	}
	if cfg.MinCellCount < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.min_cell_count",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateGenerator(cfg *GeneratorConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError

	if cfg.Kind != "openai" && cfg.Kind != "anthropic" {
		errs = append(errs, FieldError{
			Field:   "generator.kind",
			Message: fmt.Sprintf("invalid kind %q: must be 'openai' or 'anthropic'", cfg.Kind),
		})
	}
	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "generator.base_url",
			Message: "base URL is required when generation is enabled",
		})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "generator.base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
		})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "generator.model",
			Message: "model is required when generation is enabled",
		})
	}
	if cfg.Temperature != nil && (*cfg.Temperature < 0 || *cfg.Temperature > 2) {
		errs = append(errs, FieldError{
			Field:   "generator.temperature",
			Message: "must be between 0.0 and 2.0",
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "generator.max_tokens",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Guidelines.Backend {
	case "memory":
	case "sqlite":
		if cfg.Guidelines.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.guidelines.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.guidelines.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Guidelines.Backend),
		})
	}

	switch cfg.Campaigns.Backend {
	case "sqlite":
		if cfg.Campaigns.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.campaigns.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
	case "mongo":
		if cfg.Campaigns.Mongo.URI == "" {
			errs = append(errs, FieldError{
				Field:   "storage.campaigns.mongo.uri",
				Message: "uri is required for the mongo backend",
			})
		} else if !strings.HasPrefix(cfg.Campaigns.Mongo.URI, "mongodb://") &&
			!strings.HasPrefix(cfg.Campaigns.Mongo.URI, "mongodb+srv://") {
			errs = append(errs, FieldError{
				Field:   "storage.campaigns.mongo.uri",
				Message: "uri must start with mongodb:// or mongodb+srv://",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.campaigns.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'mongo'", cfg.Campaigns.Backend),
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "none", "memory":
	case "redis":
		if cfg.Redis.Address == "" {
			errs = append(errs, FieldError{
				Field:   "cache.redis.address",
				Message: "address is required for the redis backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'redis' or 'none'", cfg.Backend),
		})
	}
	if cfg.TTL < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.ttl",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.days",
			Message: "must not be negative",
		})
	}
	if cfg.MaxArchived < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.max_archived",
			Message: "must not be negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.ExportBeforeDelete && cfg.ExportPath == "" {
		errs = append(errs, FieldError{
			Field:   "retention.export_path",
			Message: "export path is required when export_before_delete is set",
		})
	}

	return errs
}

func validateGitSource(cfg *GitSourceConfig) []FieldError {
	if cfg.Repository == "" {
		return nil
	}
	var errs []FieldError
	if cfg.Branch == "" {
		errs = append(errs, FieldError{Field: "server.guideline_git.branch", Message: "branch is required"})
	}
	if cfg.LocalPath == "" {
		errs = append(errs, FieldError{Field: "server.guideline_git.local_path", Message: "local path is required"})
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{Field: "server.guideline_git.poll_interval", Message: "poll interval must be positive"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "server.guideline_git.timeout", Message: "timeout must be positive"})
	}

	switch cfg.Auth.Type {
	case "", "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{Field: "server.guideline_git.auth.token", Message: "token is required for token auth"})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{Field: "server.guideline_git.auth.ssh_key_path", Message: "ssh_key_path is required for ssh auth"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "server.guideline_git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'token', 'ssh' or 'none'", cfg.Auth.Type),
		})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	switch cfg.Tracing.Exporter {
	case "", "none":
	case "otlp":
		if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required for the otlp exporter",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("invalid exporter %q: must be 'none' or 'otlp'", cfg.Tracing.Exporter),
		})
	}

	return errs
}
