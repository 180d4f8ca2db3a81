package guidelines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ustudiopd/eventlive/pkg/guideline"
)

// Filter narrows List. Empty fields match everything.
type Filter struct {
	CampaignID string
	Status     guideline.Status
	// ArchivedBefore matches archived packs archived strictly before it.
	ArchivedBefore time.Time
}

// Store persists guideline packs.
type Store interface {
	// Create stores a new draft. An empty ID is filled with a UUID.
	Create(ctx context.Context, p *guideline.Pack) error
	Get(ctx context.Context, id string) (*guideline.Pack, error)
	// Update replaces a draft.
	Update(ctx context.Context, p *guideline.Pack) error
	// List returns matching packs, newest first.
	List(ctx context.Context, f Filter) ([]*guideline.Pack, error)
	// Published returns the campaign's published pack or ErrNotFound.
	Published(ctx context.Context, campaignID string) (*guideline.Pack, error)
	// Publish publishes a draft and archives the campaign's previous
	// published pack in one step.
	Publish(ctx context.Context, id string) (*guideline.Pack, error)
	// Archive archives a published pack.
	Archive(ctx context.Context, id string) (*guideline.Pack, error)
	// DeleteArchived removes archived packs archived before cutoff.
	DeleteArchived(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteOldestArchived removes archived packs beyond the newest keep.
	DeleteOldestArchived(ctx context.Context, keep int) (int64, error)
	Close() error
}

func prepareCreate(p *guideline.Pack, now time.Time) error {
	if p == nil {
		return errors.New("nil guideline pack")
	}
	if p.CampaignID == "" {
		return fmt.Errorf("guideline pack %q has no campaign id", p.ID)
	}
	if p.Status != "" && p.Status != guideline.StatusDraft {
		return &EditError{PackID: p.ID, Status: string(p.Status)}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Version = guideline.Version
	p.Status = guideline.StatusDraft
	p.CreatedAt = now
	p.UpdatedAt = now
	p.PublishedAt = nil
	p.ArchivedAt = nil
	return nil
}

func matches(p *guideline.Pack, f Filter) bool {
	if f.CampaignID != "" && p.CampaignID != f.CampaignID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if !f.ArchivedBefore.IsZero() {
		if p.Status != guideline.StatusArchived || p.ArchivedAt == nil || !p.ArchivedAt.Before(f.ArchivedBefore) {
			return false
		}
	}
	return true
}
