package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// LessonLoader fetches lesson content from a backing store.
type LessonLoader interface {
	LoadLesson(ctx context.Context, lessonID string) (domain.Lesson, error)
	LoadLessons(ctx context.Context) ([]domain.Lesson, error)
}

// LessonCache caches lessons with TTL to avoid repeated store hits on the
// read path. List calls pass through to the loader.
type LessonCache struct {
	loader LessonLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedLesson
}

type cachedLesson struct {
	lesson    domain.Lesson
	expiresAt time.Time
}

func NewLessonCache(loader LessonLoader, ttl time.Duration) *LessonCache {
	return &LessonCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedLesson),
	}
}

func (c *LessonCache) GetByID(ctx context.Context, lessonID string) (domain.Lesson, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[lessonID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.lesson, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(lessonID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[lessonID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.lesson, nil
		}
		c.mu.RUnlock()

		lesson, err := c.loader.LoadLesson(ctx, lessonID)
		if err != nil {
			return domain.Lesson{}, err
		}

		c.mu.Lock()
		c.cache[lessonID] = cachedLesson{
			lesson:    lesson,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return lesson, nil
	})
	if err != nil {
		return domain.Lesson{}, err
	}
	return result.(domain.Lesson), nil
}

// Invalidate drops the cached lesson so the next read reloads it.
func (c *LessonCache) Invalidate(_ context.Context, lessonID string) {
	c.mu.Lock()
	delete(c.cache, lessonID)
	c.mu.Unlock()
}

func (c *LessonCache) List(ctx context.Context) ([]domain.Lesson, error) {
	return c.loader.LoadLessons(ctx)
}

func (c *LessonCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// RepositoryLoader adapts a LessonRepository into a LessonLoader so the
// cache can sit in front of the in-memory store as well.
type RepositoryLoader struct {
	repo *LessonRepository
}

func NewRepositoryLoader(repo *LessonRepository) *RepositoryLoader {
	return &RepositoryLoader{repo: repo}
}

func (l *RepositoryLoader) LoadLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	return l.repo.GetByID(ctx, lessonID)
}

func (l *RepositoryLoader) LoadLessons(ctx context.Context) ([]domain.Lesson, error) {
	return l.repo.List(ctx)
}
