package campaign

import (
	"context"
	"sync"

	"ustudiopd/eventlive/pkg/survey"
)

// MemorySource holds campaigns in memory.
type MemorySource struct {
	mu        sync.RWMutex
	campaigns map[string]*survey.CampaignData
}

// NewMemorySource creates a source seeded with the given campaigns.
func NewMemorySource(campaigns ...*survey.CampaignData) *MemorySource {
	s := &MemorySource{campaigns: make(map[string]*survey.CampaignData)}
	for _, c := range campaigns {
		s.Put(c)
	}
	return s
}

// Put stores a copy of the campaign, replacing any previous one.
func (s *MemorySource) Put(data *survey.CampaignData) {
	if data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[data.CampaignID] = clone(data)
}

// Load implements Source.
func (s *MemorySource) Load(ctx context.Context, campaignID string) (*survey.CampaignData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.campaigns[campaignID]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(data)
	sortSnapshot(out)
	return out, nil
}

// Close implements Source.
func (s *MemorySource) Close() error {
	return nil
}

func clone(d *survey.CampaignData) *survey.CampaignData {
	out := *d
	out.Questions = make([]survey.Question, len(d.Questions))
	for i, q := range d.Questions {
		q.Options = append([]survey.Option(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Answers = make([]survey.Answer, len(d.Answers))
	for i, a := range d.Answers {
		a.OptionIDs = append([]string(nil), a.OptionIDs...)
		out.Answers[i] = a
	}
	out.Submissions = append([]survey.Submission(nil), d.Submissions...)
	return &out
}
