package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/thungan1909/easy-english-backend/internal/domain"
	"github.com/thungan1909/easy-english-backend/internal/scoring"
)

// SubmitRequest carries one listening attempt. The three token arrays are
// parallel: original marks the blanks, result holds the correct fill and
// user holds the learner's fill.
type SubmitRequest struct {
	LessonID      string   `json:"lessonId"`
	UserID        string   `json:"-"`
	OriginalArray []string `json:"original_array"`
	ResultArray   []string `json:"result_array"`
	UserArray     []string `json:"user_array"`
}

// SubmitResult is the scored outcome returned to the learner.
type SubmitResult struct {
	Accuracy          float64 `json:"accuracy"`
	BlankCount        int     `json:"blankCount"`
	CorrectAnswers    int     `json:"correctAnswers"`
	TotalFilledBlanks int     `json:"totalFilledBlanks"`
	Score             int     `json:"score"`
}

// SubmitService runs the scoring pipeline: evaluate, score, then fan out to
// the submission record, the lesson leaderboard and the user's weekly
// ledger. The three updates touch disjoint documents and run concurrently,
// but all must complete before the result is returned.
type SubmitService struct {
	lessons     LessonRepository
	users       UserRepository
	submissions SubmissionRepository
	hub         *LeaderboardHub
	cache       LessonInvalidator
	topN        int
	retries     int
	now         func() time.Time
}

func NewSubmitService(lessons LessonRepository, users UserRepository, submissions SubmissionRepository, hub *LeaderboardHub, topN int) *SubmitService {
	if topN <= 0 {
		topN = 10
	}
	return &SubmitService{
		lessons:     lessons,
		users:       users,
		submissions: submissions,
		hub:         hub,
		topN:        topN,
		retries:     defaultRetries,
		now:         time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *SubmitService) WithClock(now func() time.Time) *SubmitService {
	s.now = now
	return s
}

// WithInvalidator makes Submit evict the lesson from the given read
// cache after the leaderboard update lands.
func (s *SubmitService) WithInvalidator(cache LessonInvalidator) *SubmitService {
	s.cache = cache
	return s
}

// Submit scores one attempt and applies all side effects.
func (s *SubmitService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if req.LessonID == "" || req.UserID == "" {
		return SubmitResult{}, fmt.Errorf("missing lesson or user id: %w", domain.ErrInvalidInput)
	}

	lesson, err := s.lessons.GetByID(ctx, req.LessonID)
	if err != nil {
		return SubmitResult{}, err
	}

	// The stored template is authoritative when present: a client cannot
	// inflate blank counts by shipping its own original array.
	original, reference := req.OriginalArray, req.ResultArray
	if len(lesson.Tokens) > 0 && len(lesson.Tokens) == len(lesson.Words) {
		if len(req.UserArray) != len(lesson.Tokens) {
			return SubmitResult{}, fmt.Errorf("submitted tokens do not match lesson template: %w", domain.ErrInvalidInput)
		}
		original, reference = lesson.Tokens, lesson.Words
	}

	breakdown, err := scoring.Evaluate(original, reference, req.UserArray)
	if err != nil {
		return SubmitResult{}, err
	}
	score := scoring.Score(breakdown)
	accuracy := scoring.Accuracy(breakdown)
	now := s.now()

	entry := domain.TopScore{UserID: req.UserID, Score: score, Accuracy: accuracy, SubmittedAt: now}

	var updatedLesson domain.Lesson
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.recordSubmission(gctx, req, original, reference, breakdown, accuracy, score, now)
	})
	g.Go(func() error {
		l, err := s.updateLessonBoard(gctx, req.LessonID, entry)
		if err != nil {
			return err
		}
		updatedLesson = l
		return nil
	})
	g.Go(func() error {
		return s.updateUserLedger(gctx, req.UserID, req.LessonID, score, now)
	})
	if err := g.Wait(); err != nil {
		return SubmitResult{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, req.LessonID)
	}
	if s.hub != nil {
		s.hub.Publish(updatedLesson.Board(now))
	}

	return SubmitResult{
		Accuracy:          accuracy,
		BlankCount:        breakdown.BlankCount,
		CorrectAnswers:    breakdown.CorrectCount,
		TotalFilledBlanks: breakdown.FilledBlankCount,
		Score:             score,
	}, nil
}

// recordSubmission upserts the single current submission for the
// (user, lesson) pair; the repository enforces the pair's uniqueness.
func (s *SubmitService) recordSubmission(ctx context.Context, req SubmitRequest, original, reference []string, b scoring.Breakdown, accuracy float64, score int, now time.Time) error {
	sub := domain.Submission{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		LessonID:          req.LessonID,
		OriginalArray:     original,
		ResultArray:       reference,
		UserArray:         req.UserArray,
		CorrectAnswers:    b.CorrectCount,
		BlankCount:        b.BlankCount,
		TotalFilledBlanks: b.FilledBlankCount,
		Accuracy:          accuracy,
		Score:             score,
		SubmittedAt:       now,
	}
	return s.submissions.Upsert(ctx, &sub)
}

// updateLessonBoard re-reads, rewrites and CAS-updates the lesson's
// aggregates until the write wins or retries run out.
func (s *SubmitService) updateLessonBoard(ctx context.Context, lessonID string, entry domain.TopScore) (domain.Lesson, error) {
	var updated domain.Lesson
	err := withRetry(s.retries, func() error {
		lesson, err := s.lessons.GetByID(ctx, lessonID)
		if err != nil {
			return err
		}
		lesson.TopScores = upsertTopScore(lesson.TopScores, entry, s.topN)
		lesson.ListenCount++
		lesson.ListenedBy = addListener(lesson.ListenedBy, entry.UserID)
		if err := s.lessons.Update(ctx, &lesson); err != nil {
			return err
		}
		updated = lesson
		return nil
	})
	return updated, err
}

// updateUserLedger applies the weekly-score increment, the lifetime total
// and the listened-lessons upsert under the same CAS loop, keeping the
// totalScore == sum(weeklyScores) invariant.
func (s *SubmitService) updateUserLedger(ctx context.Context, userID, lessonID string, score int, now time.Time) error {
	return withRetry(s.retries, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		applyWeeklyScore(&user, domain.WeekStart(now), score)
		upsertListenedLesson(&user, lessonID, now)
		return s.users.Update(ctx, &user)
	})
}

// upsertTopScore drops the user's stale entry, prepends the fresh one
// (most-recent-first) and truncates to the bound.
func upsertTopScore(scores []domain.TopScore, entry domain.TopScore, limit int) []domain.TopScore {
	out := make([]domain.TopScore, 0, len(scores)+1)
	out = append(out, entry)
	for _, sc := range scores {
		if sc.UserID == entry.UserID {
			continue
		}
		out = append(out, sc)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// addListener is an idempotent set-add.
func addListener(listeners []string, userID string) []string {
	for _, id := range listeners {
		if id == userID {
			return listeners
		}
	}
	return append(listeners, userID)
}

// applyWeeklyScore increments the ledger entry for the week, inserting it
// on the first submission of that week.
func applyWeeklyScore(u *domain.User, weekStart time.Time, score int) {
	u.TotalScore += score
	for i := range u.WeeklyScores {
		if u.WeeklyScores[i].WeekStart.Equal(weekStart) {
			u.WeeklyScores[i].Score += score
			return
		}
	}
	u.WeeklyScores = append(u.WeeklyScores, domain.WeeklyScore{WeekStart: weekStart, Score: score})
}

// upsertListenedLesson refreshes the timestamp on replay instead of
// duplicating the lesson entry.
func upsertListenedLesson(u *domain.User, lessonID string, at time.Time) {
	for i := range u.ListenedLessons {
		if u.ListenedLessons[i].LessonID == lessonID {
			u.ListenedLessons[i].ListenedAt = at
			return
		}
	}
	u.ListenedLessons = append(u.ListenedLessons, domain.ListenedLesson{LessonID: lessonID, ListenedAt: at})
}
