package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultEngineMaxAttempts = 3
	DefaultEngineBaseDelay   = 1 * time.Second
	DefaultEngineTimeout     = 5 * time.Minute

	// Generator defaults
	DefaultGeneratorKind      = "openai"
	DefaultGeneratorMaxTokens = 4096
	DefaultGeneratorTimeout   = 60 * time.Second

	// Storage defaults
	DefaultGuidelineBackend      = "sqlite"
	DefaultGuidelineSQLitePath   = "data/guidelines.db"
	DefaultSQLiteMaxOpenConns    = 4
	DefaultSQLiteBusyTimeout     = 5 * time.Second
	DefaultCampaignBackend       = "sqlite"
	DefaultCampaignSQLitePath    = "data/campaigns.db"
	DefaultMongoDatabase         = "eventlive"
	DefaultMongoTimeout          = 10 * time.Second
	DefaultCacheBackend          = "memory"
	DefaultCacheTTL              = time.Hour
	DefaultCacheMaxEntries       = 256
	DefaultRedisAddress          = "localhost:6379"
	DefaultRetentionDays         = 180
	DefaultRetentionSchedule     = "0 3 * * *"
	DefaultRetentionExportPath   = "data/archives/"
	DefaultServerListenAddress   = "127.0.0.1:9090"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 15 * time.Second
	DefaultGitBranch             = "main"
	DefaultGitLocalPath          = "data/guideline-repo"
	DefaultGitPollInterval       = time.Minute
	DefaultGitTimeout            = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "eventlive"
	DefaultMetricsSubsystem   = "engine"
	DefaultTracingServiceName = "eventlive"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingExporter    = "none"
	DefaultOTLPTimeout        = 10 * time.Second
)

// DefaultDurationBuckets covers sub-millisecond compiles up to multi-minute
// generation runs.
var DefaultDurationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60}

// Default returns a configuration with every default applied. Boolean
// options that default to true are set here, before the YAML file is
// decoded over it, so an explicit false in the file is kept.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Guidelines.SQLite.WALMode = true
	cfg.Telemetry.Logging.RedactPII = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.MaxAttempts == 0 {
		cfg.Engine.MaxAttempts = DefaultEngineMaxAttempts
	}
	if cfg.Engine.BaseDelay == 0 {
		cfg.Engine.BaseDelay = DefaultEngineBaseDelay
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = DefaultEngineTimeout
	}

	if cfg.Generator.Kind == "" {
		cfg.Generator.Kind = DefaultGeneratorKind
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = DefaultGeneratorMaxTokens
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = DefaultGeneratorTimeout
	}

	// Guideline store defaults
	if cfg.Storage.Guidelines.Backend == "" {
		cfg.Storage.Guidelines.Backend = DefaultGuidelineBackend
	}
	if cfg.Storage.Guidelines.SQLite.Path == "" {
		cfg.Storage.Guidelines.SQLite.Path = DefaultGuidelineSQLitePath
	}
	applySQLiteDefaults(&cfg.Storage.Guidelines.SQLite)

	// Campaign source defaults
	if cfg.Storage.Campaigns.Backend == "" {
		cfg.Storage.Campaigns.Backend = DefaultCampaignBackend
	}
	if cfg.Storage.Campaigns.SQLite.Path == "" {
		cfg.Storage.Campaigns.SQLite.Path = DefaultCampaignSQLitePath
	}
	applySQLiteDefaults(&cfg.Storage.Campaigns.SQLite)
	if cfg.Storage.Campaigns.Mongo.Database == "" {
		cfg.Storage.Campaigns.Mongo.Database = DefaultMongoDatabase
	}
	if cfg.Storage.Campaigns.Mongo.Timeout == 0 {
		cfg.Storage.Campaigns.Mongo.Timeout = DefaultMongoTimeout
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = DefaultRedisAddress
	}

	// Retention defaults
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = DefaultRetentionDays
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if cfg.Retention.ExportPath == "" {
		cfg.Retention.ExportPath = DefaultRetentionExportPath
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if git := &cfg.Server.GuidelineGit; git.Repository != "" {
		if git.Branch == "" {
			git.Branch = DefaultGitBranch
		}
		if git.LocalPath == "" {
			git.LocalPath = DefaultGitLocalPath
		}
		if git.PollInterval == 0 {
			git.PollInterval = DefaultGitPollInterval
		}
		if git.Timeout == 0 {
			git.Timeout = DefaultGitTimeout
		}
		if git.Auth.Type == "" {
			git.Auth.Type = "none"
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}

func applySQLiteDefaults(cfg *SQLiteConfig) {
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultSQLiteBusyTimeout
	}
}
