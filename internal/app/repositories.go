package app

import (
	"context"
	"time"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// UserRepository abstracts user persistence (Postgres, in-memory).
// Update is a compare-and-swap on the user's Version: it fails with
// domain.ErrVersionConflict when the stored version moved, and bumps
// Version on success.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	TopWeekly(ctx context.Context, weekStart time.Time, limit int) ([]domain.WeeklyRank, error)
}

// LessonRepository abstracts lesson persistence. Update has the same
// compare-and-swap contract as UserRepository.Update.
type LessonRepository interface {
	Create(ctx context.Context, l *domain.Lesson) error
	GetByID(ctx context.Context, id string) (domain.Lesson, error)
	List(ctx context.Context) ([]domain.Lesson, error)
	Update(ctx context.Context, l *domain.Lesson) error
	Delete(ctx context.Context, id, creatorID string) error
}

// LessonReader is the read-only slice of LessonRepository used where a
// caching layer may sit in front of the authoritative store.
type LessonReader interface {
	GetByID(ctx context.Context, id string) (domain.Lesson, error)
	List(ctx context.Context) ([]domain.Lesson, error)
}

// LessonInvalidator evicts a lesson from a read cache after its
// aggregates change, so cached reads do not serve a stale leaderboard
// for the rest of the TTL.
type LessonInvalidator interface {
	Invalidate(ctx context.Context, lessonID string)
}

// SubmissionRepository persists exactly one current submission per
// (user, lesson) pair; Upsert must be atomic against that uniqueness.
type SubmissionRepository interface {
	Upsert(ctx context.Context, s *domain.Submission) error
	GetByUserAndLesson(ctx context.Context, userID, lessonID string) (domain.Submission, error)
	ListByLessons(ctx context.Context, lessonIDs []string) ([]domain.Submission, error)
}

// ChallengeRepository abstracts challenge persistence with the same
// compare-and-swap Update contract.
type ChallengeRepository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	GetByID(ctx context.Context, id string) (domain.Challenge, error)
	List(ctx context.Context) ([]domain.Challenge, error)
	Update(ctx context.Context, c *domain.Challenge) error
	Delete(ctx context.Context, id, creatorID string) error
}

// WeeklyBoard serves the global weekly leaderboard; a cache may implement
// it in front of UserRepository.TopWeekly.
type WeeklyBoard interface {
	TopWeekly(ctx context.Context, weekStart time.Time, limit int) ([]domain.WeeklyRank, error)
}
