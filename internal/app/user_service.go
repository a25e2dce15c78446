package app

import (
	"context"
	"fmt"
	"time"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// UserService owns profile reads, the engagement streak and the global
// weekly leaderboard.
type UserService struct {
	users   UserRepository
	board   WeeklyBoard
	size    int
	retries int
	now     func() time.Time
}

func NewUserService(users UserRepository, board WeeklyBoard, size int) *UserService {
	if board == nil {
		board = users
	}
	if size <= 0 {
		size = 10
	}
	return &UserService{users: users, board: board, size: size, retries: defaultRetries, now: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Profile returns the user's profile. A lapsed streak (no activity for two
// or more calendar days) is observed here and persisted as reset; the check
// runs on read, not on a timer.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	var out domain.User
	err := withRetry(s.retries, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if domain.StreakLapsed(user.LastStreakDate, s.now()) && user.Streak != 0 {
			user.Streak = 0
			if err := s.users.Update(ctx, &user); err != nil {
				return err
			}
		}
		out = user
		return nil
	})
	return out, err
}

// MarkActive records today's engagement: increments the streak on a
// consecutive day, restarts it after a gap and no-ops when today is
// already marked.
func (s *UserService) MarkActive(ctx context.Context, userID string) (domain.User, error) {
	var out domain.User
	err := withRetry(s.retries, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		streak, last, changed := domain.AdvanceStreak(user.Streak, user.LastStreakDate, s.now())
		if changed {
			user.Streak = streak
			user.LastStreakDate = &last
			if err := s.users.Update(ctx, &user); err != nil {
				return err
			}
		}
		out = user
		return nil
	})
	return out, err
}

// UpdateProfileInput carries the editable profile fields. Username and
// email are identity and stay fixed after registration.
type UpdateProfileInput struct {
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// UpdateProfile edits the user's display fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.User, error) {
	if input.FullName == "" && input.AvatarURL == "" {
		return domain.User{}, fmt.Errorf("nothing to update: %w", domain.ErrInvalidInput)
	}
	var out domain.User
	err := withRetry(s.retries, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if input.FullName != "" {
			user.FullName = input.FullName
		}
		if input.AvatarURL != "" {
			user.AvatarURL = input.AvatarURL
		}
		if err := s.users.Update(ctx, &user); err != nil {
			return err
		}
		out = user
		return nil
	})
	return out, err
}

// UpdateAvatar sets the user's avatar URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	if avatarURL == "" {
		return fmt.Errorf("avatar is required: %w", domain.ErrInvalidInput)
	}
	return withRetry(s.retries, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user.AvatarURL = avatarURL
		return s.users.Update(ctx, &user)
	})
}

// WeeklyLeaderboard returns the top users of the current ISO week.
func (s *UserService) WeeklyLeaderboard(ctx context.Context) ([]domain.WeeklyRank, error) {
	return s.board.TopWeekly(ctx, domain.WeekStart(s.now()), s.size)
}
