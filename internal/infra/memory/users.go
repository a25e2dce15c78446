// Package memory provides in-memory repository implementations used in
// tests and in the no-database development mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository with
// the same compare-and-swap Update contract as the Postgres one.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return domain.ErrDuplicateUser
		}
	}
	u.Version = 1
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepository) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if stored.Version != u.Version {
		return domain.ErrVersionConflict
	}
	u.Version++
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *UserRepository) TopWeekly(_ context.Context, weekStart time.Time, limit int) ([]domain.WeeklyRank, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)

	r.mu.RLock()
	ranks := make([]domain.WeeklyRank, 0)
	for _, u := range r.users {
		total := 0
		for _, ws := range u.WeeklyScores {
			if !ws.WeekStart.Before(weekStart) && ws.WeekStart.Before(weekEnd) {
				total += ws.Score
			}
		}
		if total > 0 {
			ranks = append(ranks, domain.WeeklyRank{
				UserID:    u.ID,
				Username:  u.Username,
				AvatarURL: u.AvatarURL,
				Score:     total,
			})
		}
	}
	r.mu.RUnlock()

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		return ranks[i].Username < ranks[j].Username
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

func cloneUser(u domain.User) domain.User {
	out := u
	out.WeeklyScores = append([]domain.WeeklyScore(nil), u.WeeklyScores...)
	out.ListenedLessons = append([]domain.ListenedLesson(nil), u.ListenedLessons...)
	if u.LastStreakDate != nil {
		t := *u.LastStreakDate
		out.LastStreakDate = &t
	}
	if u.VerificationExpires != nil {
		t := *u.VerificationExpires
		out.VerificationExpires = &t
	}
	return out
}
