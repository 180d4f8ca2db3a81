package guidelines

import (
	"context"
	"sort"
	"sync"
	"time"

	"ustudiopd/eventlive/pkg/guideline"
)

// MemoryStore keeps packs in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	packs map[string]*guideline.Pack
	now   func() time.Time
}

// NewMemoryStore returns an empty store. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{packs: make(map[string]*guideline.Pack), now: now}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, p *guideline.Pack) error {
	if err := prepareCreate(p, s.now().UTC()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packs[p.ID]; ok {
		return newStorageError("memory", "create", errDuplicate(p.ID))
	}
	s.packs[p.ID] = p.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*guideline.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, p *guideline.Pack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.packs[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != guideline.StatusDraft {
		return &EditError{PackID: p.ID, Status: string(cur.Status)}
	}
	next := p.Clone()
	next.Status = guideline.StatusDraft
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now().UTC()
	s.packs[p.ID] = next
	p.UpdatedAt = next.UpdatedAt
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, f Filter) ([]*guideline.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*guideline.Pack
	for _, p := range s.packs {
		if matches(p, f) {
			out = append(out, p.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(ps []*guideline.Pack) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.After(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

// Published implements Store.
func (s *MemoryStore) Published(_ context.Context, campaignID string) (*guideline.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.packs {
		if p.CampaignID == campaignID && p.Status == guideline.StatusPublished {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// Publish implements Store.
func (s *MemoryStore) Publish(_ context.Context, id string) (*guideline.Pack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packs[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now().UTC()
	next := p.Clone()
	if err := next.Transition(guideline.StatusPublished, now); err != nil {
		return nil, err
	}

	for _, other := range s.packs {
		if other.ID != id && other.CampaignID == p.CampaignID && other.Status == guideline.StatusPublished {
			if err := other.Transition(guideline.StatusArchived, now); err != nil {
				return nil, err
			}
		}
	}
	s.packs[id] = next
	return next.Clone(), nil
}

// Archive implements Store.
func (s *MemoryStore) Archive(_ context.Context, id string) (*guideline.Pack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.packs[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := p.Clone()
	if err := next.Transition(guideline.StatusArchived, s.now().UTC()); err != nil {
		return nil, err
	}
	s.packs[id] = next
	return next.Clone(), nil
}

// DeleteArchived implements Store.
func (s *MemoryStore) DeleteArchived(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.packs {
		if matches(p, Filter{ArchivedBefore: cutoff}) {
			delete(s.packs, id)
			n++
		}
	}
	return n, nil
}

// DeleteOldestArchived implements Store.
func (s *MemoryStore) DeleteOldestArchived(_ context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var archived []*guideline.Pack
	for _, p := range s.packs {
		if p.Status == guideline.StatusArchived {
			archived = append(archived, p)
		}
	}
	if len(archived) <= keep {
		return 0, nil
	}
	sort.Slice(archived, func(i, j int) bool {
		return archivedAt(archived[i]).After(archivedAt(archived[j]))
	})
	var n int64
	for _, p := range archived[keep:] {
		delete(s.packs, p.ID)
		n++
	}
	return n, nil
}

func archivedAt(p *guideline.Pack) time.Time {
	if p.ArchivedAt == nil {
		return time.Time{}
	}
	return *p.ArchivedAt
}

// Len returns the number of stored packs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.packs)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
