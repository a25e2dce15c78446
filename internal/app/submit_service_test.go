package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thungan1909/easy-english-backend/internal/app"
	"github.com/thungan1909/easy-english-backend/internal/domain"
	"github.com/thungan1909/easy-english-backend/internal/infra/memory"
)

const (
	lessonID = "0c9f6a7e-9a3e-4b47-90be-94f1e6a9a001"
	aliceID  = "0c9f6a7e-9a3e-4b47-90be-94f1e6a9a0aa"
	bobID    = "0c9f6a7e-9a3e-4b47-90be-94f1e6a9a0bb"
)

type submitFixture struct {
	service     *app.SubmitService
	lessons     *memory.LessonRepository
	users       *memory.UserRepository
	submissions *memory.SubmissionRepository
	hub         *app.LeaderboardHub
}

func newSubmitFixture(t *testing.T) *submitFixture {
	t.Helper()
	ctx := context.Background()

	lessons := memory.NewLessonRepository()
	users := memory.NewUserRepository()
	submissions := memory.NewSubmissionRepository()
	hub := app.NewLeaderboardHub()

	lesson := domain.Lesson{
		ID:      lessonID,
		Title:   "The cat",
		Content: "The _____ sat",
		Tokens:  []string{"The", "_____", "sat"},
		Words:   []string{"The", "cat", "sat"},
		Source:  "test",
	}
	if err := lessons.Create(ctx, &lesson); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	for _, u := range []domain.User{
		{ID: aliceID, Username: "alice", Email: "alice@example.com"},
		{ID: bobID, Username: "bob", Email: "bob@example.com"},
	} {
		user := u
		if err := users.Create(ctx, &user); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	service := app.NewSubmitService(lessons, users, submissions, hub, 10)
	return &submitFixture{service: service, lessons: lessons, users: users, submissions: submissions, hub: hub}
}

func submitFor(userID string, answer string) app.SubmitRequest {
	return app.SubmitRequest{
		LessonID:      lessonID,
		UserID:        userID,
		OriginalArray: []string{"The", "_____", "sat"},
		ResultArray:   []string{"The", "cat", "sat"},
		UserArray:     []string{"The", answer, "sat"},
	}
}

func TestSubmitScoresAndFansOut(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	res, err := f.service.Submit(ctx, submitFor(aliceID, "cat"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.BlankCount != 1 || res.CorrectAnswers != 1 || res.Accuracy != 100.00 || res.Score != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	sub, err := f.submissions.GetByUserAndLesson(ctx, aliceID, lessonID)
	if err != nil {
		t.Fatalf("submission not recorded: %v", err)
	}
	if sub.Score != 2 || sub.Accuracy != 100.00 {
		t.Fatalf("unexpected submission %+v", sub)
	}

	lesson, _ := f.lessons.GetByID(ctx, lessonID)
	if lesson.ListenCount != 1 || len(lesson.ListenedBy) != 1 || len(lesson.TopScores) != 1 {
		t.Fatalf("unexpected lesson aggregates %+v", lesson)
	}
	if lesson.TopScores[0].UserID != aliceID || lesson.TopScores[0].Score != 2 {
		t.Fatalf("unexpected top score %+v", lesson.TopScores[0])
	}

	user, _ := f.users.GetByID(ctx, aliceID)
	if user.TotalScore != 2 || len(user.WeeklyScores) != 1 || len(user.ListenedLessons) != 1 {
		t.Fatalf("unexpected user aggregates %+v", user)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	req := submitFor(aliceID, "cat")
	req.UserArray = []string{"The", "cat"} // shorter than the template
	if _, err := f.service.Submit(ctx, req); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitUnknownLesson(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	req := submitFor(aliceID, "cat")
	req.LessonID = "5b7d5e3e-0000-4000-8000-000000000000"
	if _, err := f.service.Submit(ctx, req); !errors.Is(err, domain.ErrLessonNotFound) {
		t.Fatalf("expected lesson not found, got %v", err)
	}
}

func TestResubmissionKeepsOneRecordAndIncrementsWeekly(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	if _, err := f.service.Submit(ctx, submitFor(aliceID, "dog")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.service.Submit(ctx, submitFor(aliceID, "cat")); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if n := f.submissions.Count(); n != 1 {
		t.Fatalf("expected exactly one submission row, got %d", n)
	}
	sub, _ := f.submissions.GetByUserAndLesson(ctx, aliceID, lessonID)
	if sub.Score != 2 {
		t.Fatalf("expected latest attempt stored, got %+v", sub)
	}

	// First attempt scored 0 (wrong fill), second scored 2; each processed
	// submission adds its own score exactly once.
	user, _ := f.users.GetByID(ctx, aliceID)
	if user.TotalScore != 2 || len(user.WeeklyScores) != 1 || user.WeeklyScores[0].Score != 2 {
		t.Fatalf("unexpected weekly ledger %+v", user)
	}
	if len(user.ListenedLessons) != 1 {
		t.Fatalf("listened lessons must not duplicate, got %+v", user.ListenedLessons)
	}

	lesson, _ := f.lessons.GetByID(ctx, lessonID)
	if len(lesson.TopScores) != 1 || lesson.TopScores[0].Score != 2 {
		t.Fatalf("leaderboard must hold one replaced entry per user, got %+v", lesson.TopScores)
	}
	if lesson.ListenCount != 2 || len(lesson.ListenedBy) != 1 {
		t.Fatalf("unexpected listen aggregates count=%d listeners=%v", lesson.ListenCount, lesson.ListenedBy)
	}
}

func TestConcurrentSubmissionsKeepBothEntries(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, userID := range []string{aliceID, bobID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.service.Submit(ctx, submitFor(id, "cat"))
			errs <- err
		}(userID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	lesson, _ := f.lessons.GetByID(ctx, lessonID)
	if len(lesson.TopScores) != 2 {
		t.Fatalf("expected both users on the board, got %+v", lesson.TopScores)
	}
	if lesson.ListenCount != 2 {
		t.Fatalf("expected listen count 2, got %d", lesson.ListenCount)
	}
}

func TestLeaderboardUniquenessUnderManySubmissions(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	answers := []string{"dog", "cat", "rat", "cat", "bat"}
	for _, userID := range []string{aliceID, bobID} {
		for _, a := range answers {
			if _, err := f.service.Submit(ctx, submitFor(userID, a)); err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
	}

	lesson, _ := f.lessons.GetByID(ctx, lessonID)
	seen := make(map[string]int)
	for _, ts := range lesson.TopScores {
		seen[ts.UserID]++
	}
	for userID, n := range seen {
		if n != 1 {
			t.Fatalf("user %s appears %d times on the board", userID, n)
		}
	}
}

func TestWeeklyTotalInvariant(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	week1 := time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)
	week2 := time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC)
	clock := week1
	f.service.WithClock(func() time.Time { return clock })

	for _, a := range []string{"cat", "dog"} {
		if _, err := f.service.Submit(ctx, submitFor(aliceID, a)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	clock = week2
	if _, err := f.service.Submit(ctx, submitFor(aliceID, "cat")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	user, _ := f.users.GetByID(ctx, aliceID)
	if len(user.WeeklyScores) != 2 {
		t.Fatalf("expected two week entries, got %+v", user.WeeklyScores)
	}
	sum := 0
	for _, ws := range user.WeeklyScores {
		sum += ws.Score
	}
	if user.TotalScore != sum {
		t.Fatalf("totalScore %d != sum of weekly scores %d", user.TotalScore, sum)
	}
}

type recordingInvalidator struct {
	mu        sync.Mutex
	lessonIDs []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, lessonID string) {
	r.mu.Lock()
	r.lessonIDs = append(r.lessonIDs, lessonID)
	r.mu.Unlock()
}

func TestSubmitEvictsLessonFromCache(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	inv := &recordingInvalidator{}
	f.service.WithInvalidator(inv)

	if _, err := f.service.Submit(ctx, submitFor(aliceID, "cat")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(inv.lessonIDs) != 1 || inv.lessonIDs[0] != lessonID {
		t.Fatalf("expected one eviction for the lesson, got %v", inv.lessonIDs)
	}

	// A rejected submission must not touch the cache.
	req := submitFor(aliceID, "cat")
	req.UserArray = []string{"The", "cat"}
	if _, err := f.service.Submit(ctx, req); err == nil {
		t.Fatal("expected invalid input")
	}
	if len(inv.lessonIDs) != 1 {
		t.Fatalf("eviction on failed submit: %v", inv.lessonIDs)
	}
}

func TestSubmitPublishesBoardToSubscribers(t *testing.T) {
	ctx := context.Background()
	f := newSubmitFixture(t)

	updates, cancel := f.hub.Subscribe(lessonID)
	defer cancel()

	if _, err := f.service.Submit(ctx, submitFor(aliceID, "cat")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case board := <-updates:
		if board.LessonID != lessonID || len(board.Entries) != 1 {
			t.Fatalf("unexpected board %+v", board)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a board update")
	}
}
