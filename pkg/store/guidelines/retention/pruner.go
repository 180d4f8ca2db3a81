package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/store/guidelines"
	"ustudiopd/eventlive/pkg/telemetry/metrics"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is how long archived packs are kept. 0 keeps them forever.
	RetentionDays int
	// PruneSchedule is a standard cron expression, e.g. "0 3 * * *".
	PruneSchedule string
	// MaxArchived caps the number of archived packs. 0 means unlimited.
	MaxArchived int
	// ExportBeforeDelete writes pruned packs to ExportPath first.
	ExportBeforeDelete bool
	ExportPath         string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 180,
		PruneSchedule: "0 3 * * *",
		ExportPath:    "data/archives/",
	}
}

// Pruner enforces retention on archived guideline packs.
type Pruner struct {
	store   guidelines.Store
	config  *Config
	now     func() time.Time
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewPruner creates a pruner. now defaults to time.Now.
func NewPruner(store guidelines.Store, config *Config, now func() time.Time) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	if now == nil {
		now = time.Now
	}
	return &Pruner{
		store:  store,
		config: config,
		now:    now,
		logger: slog.Default().With("component", "guidelines.retention"),
	}
}

// SetMetrics records deletions on m.
func (p *Pruner) SetMetrics(m *metrics.Collector) {
	p.metrics = m
}

// Config returns the pruner's configuration.
func (p *Pruner) Config() *Config {
	return p.config
}

// Prune removes expired archived packs and returns how many were deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		n, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += n
	}

	if p.config.MaxArchived > 0 {
		n, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += n
	}

	p.metrics.RecordPrune(total)
	if total > 0 {
		p.logger.Info("guideline pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_archived", p.config.MaxArchived)
	} else {
		p.logger.Debug("no guideline packs pruned")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)

	if p.config.ExportBeforeDelete {
		doomed, err := p.store.List(ctx, guidelines.Filter{ArchivedBefore: cutoff})
		if err != nil {
			return 0, err
		}
		if err := p.export(doomed); err != nil {
			return 0, err
		}
	}
	return p.store.DeleteArchived(ctx, cutoff)
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	archived, err := p.store.List(ctx, guidelines.Filter{Status: guideline.StatusArchived})
	if err != nil {
		return 0, err
	}
	if len(archived) <= p.config.MaxArchived {
		return 0, nil
	}

	if p.config.ExportBeforeDelete {
		sort.Slice(archived, func(i, j int) bool {
			return archived[i].ArchivedAt.After(*archived[j].ArchivedAt)
		})
		if err := p.export(archived[p.config.MaxArchived:]); err != nil {
			return 0, err
		}
	}
	return p.store.DeleteOldestArchived(ctx, p.config.MaxArchived)
}

// export writes packs as a JSON array to a timestamped file.
func (p *Pruner) export(packs []*guideline.Pack) error {
	if len(packs) == 0 {
		return nil
	}
	if err := os.MkdirAll(p.config.ExportPath, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	name := fmt.Sprintf("guidelines-%s.json", p.now().UTC().Format("20060102-150405.000000000"))
	path := filepath.Join(p.config.ExportPath, name)

	data, err := json.MarshalIndent(packs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	p.logger.Info("exported guideline packs before deletion", "path", path, "count", len(packs))
	return nil
}
