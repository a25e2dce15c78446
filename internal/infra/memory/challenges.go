package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// ChallengeRepository is an in-memory implementation of
// app.ChallengeRepository.
type ChallengeRepository struct {
	mu         sync.RWMutex
	challenges map[string]domain.Challenge
}

func NewChallengeRepository() *ChallengeRepository {
	return &ChallengeRepository{challenges: make(map[string]domain.Challenge)}
}

func (r *ChallengeRepository) Create(_ context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Version = 1
	r.challenges[c.ID] = cloneChallenge(*c)
	return nil
}

func (r *ChallengeRepository) GetByID(_ context.Context, id string) (domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.challenges[id]
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	return cloneChallenge(c), nil
}

func (r *ChallengeRepository) List(_ context.Context) ([]domain.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		out = append(out, cloneChallenge(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ChallengeRepository) Update(_ context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.challenges[c.ID]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	if stored.Version != c.Version {
		return domain.ErrVersionConflict
	}
	c.Version++
	r.challenges[c.ID] = cloneChallenge(*c)
	return nil
}

func (r *ChallengeRepository) Delete(_ context.Context, id, creatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok || c.CreatorID != creatorID {
		return domain.ErrChallengeNotFound
	}
	delete(r.challenges, id)
	return nil
}

func cloneChallenge(c domain.Challenge) domain.Challenge {
	out := c
	out.LessonIDs = append([]string(nil), c.LessonIDs...)
	out.Participants = make([]domain.Participant, len(c.Participants))
	for i, p := range c.Participants {
		cp := p
		cp.LessonResults = append([]domain.LessonResult(nil), p.LessonResults...)
		out.Participants[i] = cp
	}
	return out
}
