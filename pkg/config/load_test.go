package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eventlive.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  max_attempts: 5
  base_delay: "250ms"

generator:
  enabled: true
  kind: "anthropic"
  base_url: "https://api.anthropic.com"
  model: "claude-test"
  temperature: 0.2

storage:
  campaigns:
    backend: "mongo"
    mongo:
      uri: "mongodb://localhost:27017"

cache:
  backend: "redis"
  redis:
    address: "cache:6379"

telemetry:
  logging:
    level: "debug"
    format: "json"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.MaxAttempts != 5 {
		t.Errorf("expected max attempts 5, got %d", cfg.Engine.MaxAttempts)
	}
	if cfg.Engine.BaseDelay != 250*time.Millisecond {
		t.Errorf("expected base delay 250ms, got %v", cfg.Engine.BaseDelay)
	}
	if cfg.Generator.Kind != "anthropic" || cfg.Generator.Model != "claude-test" {
		t.Errorf("unexpected generator %+v", cfg.Generator)
	}
	if cfg.Generator.Temperature == nil || *cfg.Generator.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", cfg.Generator.Temperature)
	}
	if cfg.Storage.Campaigns.Backend != "mongo" {
		t.Errorf("expected mongo campaign backend, got %q", cfg.Storage.Campaigns.Backend)
	}
	if cfg.Storage.Campaigns.Mongo.Database != DefaultMongoDatabase {
		t.Errorf("expected default mongo database, got %q", cfg.Storage.Campaigns.Mongo.Database)
	}
	if cfg.Cache.Redis.Address != "cache:6379" {
		t.Errorf("expected redis address cache:6379, got %q", cfg.Cache.Redis.Address)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %q", cfg.Telemetry.Logging.Level)
	}

	// Defaults fill what the file left out.
	if cfg.Generator.Timeout != DefaultGeneratorTimeout {
		t.Errorf("expected default generator timeout, got %v", cfg.Generator.Timeout)
	}
	if cfg.Retention.PruneSchedule != DefaultRetentionSchedule {
		t.Errorf("expected default prune schedule, got %q", cfg.Retention.PruneSchedule)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
}

func TestLoadConfig_ExplicitFalseKept(t *testing.T) {
	path := writeConfig(t, `
storage:
  guidelines:
    sqlite:
      wal_mode: false
telemetry:
  logging:
    redact_pii: false
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.Guidelines.SQLite.WALMode {
		t.Error("wal_mode: false was overridden")
	}
	if cfg.Telemetry.Logging.RedactPII {
		t.Error("redact_pii: false was overridden")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics.enabled: false was overridden")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "engine: [unclosed\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
generator:
  enabled: true
  kind: "local"
`)
	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"generator.kind", "generator.base_url", "generator.model"} {
		if !fields[want] {
			t.Errorf("expected error for %s, got %v", want, verr.Errors)
		}
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
generator:
  enabled: true
  base_url: "https://api.openai.com"
  model: "file-model"
`)
	t.Setenv("EVENTLIVE_GENERATOR_MODEL", "env-model")
	t.Setenv("EVENTLIVE_GENERATOR_API_KEY", "sk-env")
	t.Setenv("EVENTLIVE_ENGINE_MAX_ATTEMPTS", "4")
	t.Setenv("EVENTLIVE_CACHE_BACKEND", "none")
	t.Setenv("EVENTLIVE_TELEMETRY_METRICS_ENABLED", "false")
	t.Setenv("EVENTLIVE_ENGINE_BASE_DELAY", "not-a-duration")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Generator.Model != "env-model" {
		t.Errorf("expected env model, got %q", cfg.Generator.Model)
	}
	if cfg.Generator.APIKey != "sk-env" {
		t.Errorf("expected env API key, got %q", cfg.Generator.APIKey)
	}
	if cfg.Engine.MaxAttempts != 4 {
		t.Errorf("expected max attempts 4, got %d", cfg.Engine.MaxAttempts)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("expected cache backend none, got %q", cfg.Cache.Backend)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled by environment")
	}
	if cfg.Engine.BaseDelay != DefaultEngineBaseDelay {
		t.Errorf("unparseable override should keep %v, got %v", DefaultEngineBaseDelay, cfg.Engine.BaseDelay)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("EVENTLIVE_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Storage.Guidelines.SQLite.Path != DefaultGuidelineSQLitePath {
		t.Errorf("expected default guideline path, got %q", cfg.Storage.Guidelines.SQLite.Path)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	t.Setenv("EVENTLIVE_TELEMETRY_LOGGING_LEVEL", "verbose")
	_, err := LoadConfigWithEnvOverrides("")
	if err == nil || !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("expected validation error after overrides, got %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_GitSourceDefaults(t *testing.T) {
	t.Setenv("EVENTLIVE_SERVER_GUIDELINE_GIT_REPOSITORY", "https://example.com/guidelines.git")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	git := cfg.Server.GuidelineGit
	if git.Branch != DefaultGitBranch || git.PollInterval != DefaultGitPollInterval || git.Auth.Type != "none" {
		t.Errorf("git source defaults not applied: %+v", git)
	}
}
