package git

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// Poller pulls a Repository on an interval.
type Poller struct {
	repo     *Repository
	interval time.Duration
	logger   *slog.Logger

	lastErr atomic.Pointer[string]
	polls   atomic.Int64
}

// NewPoller creates a poller. A non-positive interval uses the default.
func NewPoller(repo *Repository, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default().With("component", "guideline_git")
	}
	return &Poller{repo: repo, interval: interval, logger: logger}
}

// Run polls until ctx is done. onChange, when set, runs after every pull
// that changed pack files.
func (p *Poller) Run(ctx context.Context, onChange func(context.Context, *SyncResult)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.Poll(ctx, onChange)
		}
	}
}

// Poll syncs once.
func (p *Poller) Poll(ctx context.Context, onChange func(context.Context, *SyncResult)) (*SyncResult, error) {
	p.polls.Add(1)
	res, err := p.repo.Sync(ctx)
	if err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.logger.Warn("guideline repository sync failed, keeping last checkout", "error", err)
		return nil, err
	}
	p.lastErr.Store(nil)

	if res.Changed() {
		p.logger.Info("guideline repository updated",
			"from", shortSHA(res.FromSHA), "to", shortSHA(res.ToSHA), "changed_packs", len(res.ChangedPacks))
		if onChange != nil && len(res.ChangedPacks) > 0 {
			onChange(ctx, res)
		}
	}
	return res, nil
}

// Polls returns the number of sync attempts.
func (p *Poller) Polls() int64 {
	return p.polls.Load()
}

// Check fails while the last sync failed.
func (p *Poller) Check(context.Context) error {
	if msg := p.lastErr.Load(); msg != nil {
		return errors.New(*msg)
	}
	return nil
}
