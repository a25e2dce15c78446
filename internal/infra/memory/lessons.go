package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// LessonRepository is an in-memory implementation of app.LessonRepository.
type LessonRepository struct {
	mu      sync.RWMutex
	lessons map[string]domain.Lesson
}

func NewLessonRepository() *LessonRepository {
	return &LessonRepository{lessons: make(map[string]domain.Lesson)}
}

func (r *LessonRepository) Create(_ context.Context, l *domain.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Version = 1
	r.lessons[l.ID] = cloneLesson(*l)
	return nil
}

func (r *LessonRepository) GetByID(_ context.Context, id string) (domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lessons[id]
	if !ok {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	return cloneLesson(l), nil
}

func (r *LessonRepository) List(_ context.Context) ([]domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Lesson, 0, len(r.lessons))
	for _, l := range r.lessons {
		out = append(out, cloneLesson(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LessonRepository) Update(_ context.Context, l *domain.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.lessons[l.ID]
	if !ok {
		return domain.ErrLessonNotFound
	}
	if stored.Version != l.Version {
		return domain.ErrVersionConflict
	}
	l.Version++
	r.lessons[l.ID] = cloneLesson(*l)
	return nil
}

func (r *LessonRepository) Delete(_ context.Context, id, creatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lessons[id]
	if !ok || l.CreatorID != creatorID {
		return domain.ErrLessonNotFound
	}
	delete(r.lessons, id)
	return nil
}

func cloneLesson(l domain.Lesson) domain.Lesson {
	out := l
	out.Tokens = append([]string(nil), l.Tokens...)
	out.Words = append([]string(nil), l.Words...)
	out.ListenedBy = append([]string(nil), l.ListenedBy...)
	out.TopScores = append([]domain.TopScore(nil), l.TopScores...)
	return out
}
