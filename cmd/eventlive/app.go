package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/generator"
	"ustudiopd/eventlive/pkg/guideline/cache"
	"ustudiopd/eventlive/pkg/store/campaign"
	"ustudiopd/eventlive/pkg/store/guidelines"
	"ustudiopd/eventlive/pkg/survey"
	"ustudiopd/eventlive/pkg/telemetry/metrics"
	"ustudiopd/eventlive/pkg/telemetry/tracing"
)

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func openCampaignSource(ctx context.Context, cfg config.CampaignSourceConfig, readOnly bool, logger *slog.Logger) (campaign.Source, error) {
	switch cfg.Backend {
	case "mongo":
		return campaign.NewMongoSource(ctx, campaign.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		}, logger)
	case "sqlite", "":
		return campaign.NewSQLiteSource(campaign.SQLiteConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
			ReadOnly:    readOnly,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported campaign backend: %s", cfg.Backend)
	}
}

func openGuidelineStore(cfg config.GuidelineStoreConfig) (guidelines.Store, error) {
	switch cfg.Backend {
	case "memory":
		return guidelines.NewMemoryStore(nil), nil
	case "sqlite", "":
		return guidelines.NewSQLiteStore(&guidelines.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported guideline backend: %s", cfg.Backend)
	}
}

// openCache returns nil when caching is disabled.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil
	case "redis":
		return cache.DialRedis(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.TTL)
	case "memory", "":
		return cache.NewMemoryCache(cfg.TTL, cfg.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}

// newGenerator returns nil when generation is disabled.
func newGenerator(cfg config.GeneratorConfig, logger *slog.Logger) (*generator.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return generator.New(generator.Config{
		Name:        cfg.Kind,
		Kind:        cfg.Kind,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}, logger)
}

// newTelemetry returns a nil collector when metrics are disabled.
func newTelemetry(cfg *config.TelemetryConfig) (*metrics.Collector, *tracing.Tracer, error) {
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Metrics, nil)
	}
	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return nil, nil, err
	}
	return collector, tracer, nil
}

// readCampaignFile decodes an exported campaign snapshot.
func readCampaignFile(path string) (*survey.CampaignData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign file: %w", err)
	}
	var data survey.CampaignData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse campaign file %q: %w", path, err)
	}
	if data.CampaignID == "" {
		return nil, fmt.Errorf("campaign file %q has no campaignId", path)
	}
	return &data, nil
}

// campaignFlags selects campaign data from an export file or from the
// configured source.
type campaignFlags struct {
	campaignID string
	dataFile   string
}

func (f *campaignFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.campaignID, "campaign", "", "campaign id to load from the configured source")
	cmd.Flags().StringVar(&f.dataFile, "data", "", "exported campaign JSON file")
}

func (f *campaignFlags) load(ctx context.Context) (*survey.CampaignData, error) {
	switch {
	case f.dataFile != "":
		return readCampaignFile(f.dataFile)
	case f.campaignID != "":
		cfg, logger, err := loadConfig()
		if err != nil {
			return nil, err
		}
		source, err := openCampaignSource(ctx, cfg.Storage.Campaigns, true, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open campaign source: %w", err)
		}
		defer source.Close()
		return source.Load(ctx, f.campaignID)
	default:
		return nil, fmt.Errorf("either --campaign or --data must be specified")
	}
}

// source returns a source serving the selected campaign. The caller closes
// it.
func (f *campaignFlags) source(ctx context.Context, cfg *config.Config, logger *slog.Logger) (campaign.Source, string, error) {
	if f.dataFile != "" {
		data, err := readCampaignFile(f.dataFile)
		if err != nil {
			return nil, "", err
		}
		return campaign.NewMemorySource(data), data.CampaignID, nil
	}
	if f.campaignID == "" {
		return nil, "", fmt.Errorf("either --campaign or --data must be specified")
	}
	source, err := openCampaignSource(ctx, cfg.Storage.Campaigns, true, logger)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open campaign source: %w", err)
	}
	return source, f.campaignID, nil
}
