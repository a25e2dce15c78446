// Package redis holds the caching layers that sit in front of the
// authoritative Postgres store.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/thungan1909/easy-english-backend/internal/domain"
	"github.com/thungan1909/easy-english-backend/internal/infra/memory"
)

// LessonCache caches lesson documents in Redis (JSON value per lesson) and
// falls back to a loader on cache miss. List calls pass through so a fresh
// catalogue is always served.
type LessonCache struct {
	client *redis.Client
	loader memory.LessonLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLessonCache(client *redis.Client, loader memory.LessonLoader, ttl time.Duration) *LessonCache {
	return &LessonCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LessonCache) GetByID(ctx context.Context, lessonID string) (domain.Lesson, error) {
	key := c.lessonKey(lessonID)

	if lesson, ok := c.fromCache(ctx, key); ok {
		return lesson, nil
	}

	result, err, _ := c.sf.Do(lessonID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if lesson, ok := c.fromCache(ctx, key); ok {
			return lesson, nil
		}

		lesson, err := c.loader.LoadLesson(ctx, lessonID)
		if err != nil {
			return domain.Lesson{}, err
		}

		if raw, err := json.Marshal(lesson); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return lesson, nil
	})
	if err != nil {
		return domain.Lesson{}, err
	}
	return result.(domain.Lesson), nil
}

func (c *LessonCache) List(ctx context.Context) ([]domain.Lesson, error) {
	return c.loader.LoadLessons(ctx)
}

// Invalidate drops a cached lesson after its aggregates change.
func (c *LessonCache) Invalidate(ctx context.Context, lessonID string) {
	_ = c.client.Del(ctx, c.lessonKey(lessonID)).Err()
}

func (c *LessonCache) fromCache(ctx context.Context, key string) (domain.Lesson, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Lesson{}, false
	}
	var lesson domain.Lesson
	if err := json.Unmarshal(raw, &lesson); err != nil {
		return domain.Lesson{}, false
	}
	return lesson, true
}

func (c *LessonCache) lessonKey(lessonID string) string {
	return "lesson:" + lessonID
}

func (c *LessonCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
