package memory

import (
	"context"
	"testing"
	"time"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

type countingLoader struct {
	LessonLoader
	calls int
}

func (l *countingLoader) LoadLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	l.calls++
	return l.LessonLoader.LoadLesson(ctx, lessonID)
}

func newSeededLoader(t *testing.T) *countingLoader {
	t.Helper()
	repo := NewLessonRepository()
	lesson := domain.Lesson{
		ID:      "lesson-1",
		Title:   "The cat",
		Content: "The _____ sat",
		Tokens:  []string{"The", "_____", "sat"},
		Words:   []string{"The", "cat", "sat"},
		Source:  "test",
	}
	if err := repo.Create(context.Background(), &lesson); err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
	return &countingLoader{LessonLoader: NewRepositoryLoader(repo)}
}

func TestLessonCacheHitsAfterFirstLoad(t *testing.T) {
	loader := newSeededLoader(t)
	cache := NewLessonCache(loader, time.Minute)

	if _, err := cache.GetByID(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get lesson: %v", err)
	}
	if _, err := cache.GetByID(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get lesson: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader call, got %d", loader.calls)
	}
}

func TestLessonCacheReloadsAfterExpiry(t *testing.T) {
	loader := newSeededLoader(t)
	cache := NewLessonCache(loader, time.Minute)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	if _, err := cache.GetByID(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get lesson: %v", err)
	}

	// Jitter tops out at 10% of the TTL, so two minutes is safely past it.
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetByID(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get lesson: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d", loader.calls)
	}
}

func TestLessonCacheInvalidateForcesReload(t *testing.T) {
	loader := newSeededLoader(t)
	cache := NewLessonCache(loader, time.Minute)

	if _, err := cache.GetByID(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get lesson: %v", err)
	}
	cache.Invalidate(context.Background(), "lesson-1")
	if _, err := cache.GetByID(context.Background(), "lesson-1"); err != nil {
		t.Fatalf("get lesson: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d", loader.calls)
	}
}

func TestLessonCacheMissPropagatesNotFound(t *testing.T) {
	loader := newSeededLoader(t)
	cache := NewLessonCache(loader, time.Minute)

	if _, err := cache.GetByID(context.Background(), "nope"); err == nil {
		t.Fatal("expected not found")
	}
}
