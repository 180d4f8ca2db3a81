package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded over Default(), then zero values are defaulted and the
// result validated. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies environment
// variable overrides. Variables follow EVENTLIVE_SECTION_FIELD (for example
// EVENTLIVE_GENERATOR_API_KEY) and always take precedence over the file.
// An empty path skips the file and starts from Default().
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// applyEnvOverrides applies EVENTLIVE_* overrides. Unparseable values are
// ignored and the file value kept.
func applyEnvOverrides(cfg *Config) {
	// Engine overrides
	envInt("EVENTLIVE_ENGINE_MAX_ATTEMPTS", &cfg.Engine.MaxAttempts)
	envDuration("EVENTLIVE_ENGINE_BASE_DELAY", &cfg.Engine.BaseDelay)
	envDuration("EVENTLIVE_ENGINE_TIMEOUT", &cfg.Engine.Timeout)
	envBool("EVENTLIVE_ENGINE_FALLBACK_TO_DEFAULTS", &cfg.Engine.FallbackToDefaults)

	// Generator overrides
	envBool("EVENTLIVE_GENERATOR_ENABLED", &cfg.Generator.Enabled)
	envString("EVENTLIVE_GENERATOR_KIND", &cfg.Generator.Kind)
	envString("EVENTLIVE_GENERATOR_BASE_URL", &cfg.Generator.BaseURL)
	envString("EVENTLIVE_GENERATOR_API_KEY", &cfg.Generator.APIKey)
	envString("EVENTLIVE_GENERATOR_MODEL", &cfg.Generator.Model)
	envDuration("EVENTLIVE_GENERATOR_TIMEOUT", &cfg.Generator.Timeout)

	// Storage overrides
	envString("EVENTLIVE_STORAGE_GUIDELINES_BACKEND", &cfg.Storage.Guidelines.Backend)
	envString("EVENTLIVE_STORAGE_GUIDELINES_SQLITE_PATH", &cfg.Storage.Guidelines.SQLite.Path)
	envString("EVENTLIVE_STORAGE_CAMPAIGNS_BACKEND", &cfg.Storage.Campaigns.Backend)
	envString("EVENTLIVE_STORAGE_CAMPAIGNS_SQLITE_PATH", &cfg.Storage.Campaigns.SQLite.Path)
	envString("EVENTLIVE_STORAGE_CAMPAIGNS_MONGO_URI", &cfg.Storage.Campaigns.Mongo.URI)
	envString("EVENTLIVE_STORAGE_CAMPAIGNS_MONGO_DATABASE", &cfg.Storage.Campaigns.Mongo.Database)

	// Cache overrides
	envString("EVENTLIVE_CACHE_BACKEND", &cfg.Cache.Backend)
	envDuration("EVENTLIVE_CACHE_TTL", &cfg.Cache.TTL)
	envString("EVENTLIVE_CACHE_REDIS_ADDRESS", &cfg.Cache.Redis.Address)
	envString("EVENTLIVE_CACHE_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	envInt("EVENTLIVE_CACHE_REDIS_DB", &cfg.Cache.Redis.DB)

	// Retention overrides
	envInt("EVENTLIVE_RETENTION_DAYS", &cfg.Retention.Days)
	envString("EVENTLIVE_RETENTION_PRUNE_SCHEDULE", &cfg.Retention.PruneSchedule)
	envInt("EVENTLIVE_RETENTION_MAX_ARCHIVED", &cfg.Retention.MaxArchived)

	// Server overrides
	envString("EVENTLIVE_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envString("EVENTLIVE_SERVER_GUIDELINE_DIR", &cfg.Server.GuidelineDir)
	envString("EVENTLIVE_SERVER_GUIDELINE_GIT_REPOSITORY", &cfg.Server.GuidelineGit.Repository)
	envString("EVENTLIVE_SERVER_GUIDELINE_GIT_BRANCH", &cfg.Server.GuidelineGit.Branch)
	envString("EVENTLIVE_SERVER_GUIDELINE_GIT_AUTH_TOKEN", &cfg.Server.GuidelineGit.Auth.Token)

	// Telemetry overrides
	envString("EVENTLIVE_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("EVENTLIVE_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("EVENTLIVE_TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("EVENTLIVE_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("EVENTLIVE_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("EVENTLIVE_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("EVENTLIVE_TELEMETRY_TRACING_EXPORTER", &cfg.Telemetry.Tracing.Exporter)
	envString("EVENTLIVE_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv("EVENTLIVE_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}
