package config

import "time"

// Config is the root configuration of the eventlive engine.
type Config struct {
	// Engine controls the analysis pipeline.
	Engine EngineConfig `yaml:"engine"`

	// Generator configures the recommendation model endpoint.
	Generator GeneratorConfig `yaml:"generator"`

	// Storage selects the guideline store and the campaign data source.
	Storage StorageConfig `yaml:"storage"`

	// Cache configures the compiled-guideline cache.
	Cache CacheConfig `yaml:"cache"`

	// Retention controls pruning of archived guideline packs.
	Retention RetentionConfig `yaml:"retention"`

	// Server configures the `serve` command.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig controls the analysis pipeline.
type EngineConfig struct {
	// MaxAttempts caps recommendation generation attempts.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the first retry delay; later delays double.
	// Default: 1s
	BaseDelay time.Duration `yaml:"base_delay"`

	// Timeout bounds one analysis run, generation included.
	// Default: 5m
	Timeout time.Duration `yaml:"timeout"`

	// MinCellCount overrides the guideline's crosstab minimum when positive.
	MinCellCount int `yaml:"min_cell_count"`

	// FallbackToDefaults analyzes with default pairs and weights when the
	// published guideline cannot be reconciled with the current form.
	// Default: false
	FallbackToDefaults bool `yaml:"fallback_to_defaults"`
}

// GeneratorConfig configures the recommendation model endpoint.
type GeneratorConfig struct {
	// Enabled turns recommendation generation on. Without it, analyze
	// produces the analysis pack only.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Kind selects the wire format.
	// Options: "openai", "anthropic"
	// Default: "openai"
	Kind string `yaml:"kind"`

	// BaseURL is the API root, e.g. "https://api.openai.com".
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token or x-api-key header.
	// This should typically be loaded from EVENTLIVE_GENERATOR_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model is the model name.
	Model string `yaml:"model"`

	// Temperature is passed through when set.
	Temperature *float64 `yaml:"temperature"`

	// MaxTokens caps the completion length.
	// Default: 4096
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds one HTTP request.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects storage backends.
type StorageConfig struct {
	// Guidelines configures guideline pack persistence.
	Guidelines GuidelineStoreConfig `yaml:"guidelines"`

	// Campaigns configures the read-only campaign data source.
	Campaigns CampaignSourceConfig `yaml:"campaigns"`
}

// GuidelineStoreConfig configures guideline pack persistence.
type GuidelineStoreConfig struct {
	// Backend is the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CampaignSourceConfig configures where campaign forms and answers are read.
type CampaignSourceConfig struct {
	// Backend is the data source.
	// Options: "sqlite", "mongo"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Mongo contains MongoDB-specific configuration.
	Mongo MongoConfig `yaml:"mongo"`
}

// MongoConfig contains MongoDB connection settings.
type MongoConfig struct {
	// URI is the connection string.
	URI string `yaml:"uri"`

	// Database is the database name.
	// Default: "eventlive"
	Database string `yaml:"database"`

	// Timeout bounds connect and ping.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig configures the compiled-guideline cache.
type CacheConfig struct {
	// Backend is the cache backend.
	// Options: "memory", "redis", "none"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// TTL is the entry lifetime. Zero keeps entries until evicted.
	// Default: 1h
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the memory cache.
	// Default: 256
	MaxEntries int `yaml:"max_entries"`

	// Redis contains Redis-specific configuration.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Address is host:port.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password is the AUTH password.
	Password string `yaml:"password"`

	// DB is the database index.
	DB int `yaml:"db"`
}

// RetentionConfig controls pruning of archived guideline packs.
type RetentionConfig struct {
	// Days is how long archived packs are kept. 0 keeps them forever.
	// Default: 180
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxArchived caps the number of archived packs. 0 means unlimited.
	MaxArchived int `yaml:"max_archived"`

	// ExportBeforeDelete writes doomed packs to ExportPath first.
	// Default: false
	ExportBeforeDelete bool `yaml:"export_before_delete"`

	// ExportPath is the directory for exported packs.
	// Default: "data/archives/"
	ExportPath string `yaml:"export_path"`
}

// ServerConfig configures the `serve` command.
type ServerConfig struct {
	// ListenAddress is the metrics and health listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds request reads.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// GuidelineDir is watched for pack files, which are re-linted on change.
	GuidelineDir string `yaml:"guideline_dir"`

	// GuidelineGit keeps a git checkout of pack files in sync. When its
	// repository is set and GuidelineDir is empty, the checkout is watched.
	GuidelineGit GitSourceConfig `yaml:"guideline_git"`
}

// GitSourceConfig configures a git repository of guideline pack files.
type GitSourceConfig struct {
	// Repository URL (HTTPS, SSH or a local path). Empty disables the source.
	// Example: "https://github.com/company/guidelines.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository holding pack files.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// LocalPath is where the repository is checked out.
	// Default: "data/guideline-repo"
	LocalPath string `yaml:"local_path"`

	// PollInterval is how often the remote is pulled.
	// Default: 1m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds each clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures git authentication.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig configures git authentication.
type GitAuthConfig struct {
	// Type is "token", "ssh" or "none".
	// Default: "none"
	Type string `yaml:"type"`

	// Token is an HTTPS access token. Required when Type is "token".
	Token string `yaml:"token"`

	// SSHKeyPath is a private key file. Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase unlocks an encrypted key.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII masks respondent emails and phone numbers in log values.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "eventlive"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for stage durations (seconds).
	// Default: [0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is the instrumentation scope name.
	// Default: "eventlive"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of analysis runs to trace (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter selects where spans are sent: "none" or "otlp".
	// Default: "none"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `yaml:"endpoint"`

	// OTLP contains OTLP exporter options.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
