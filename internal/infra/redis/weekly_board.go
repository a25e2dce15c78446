package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/thungan1909/easy-english-backend/internal/app"
	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// WeeklyBoard caches the global weekly leaderboard. Ranking users means
// unnesting every weekly ledger, so results are held for a short TTL and
// recomputed behind singleflight.
type WeeklyBoard struct {
	client *redis.Client
	source app.WeeklyBoard
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewWeeklyBoard(client *redis.Client, source app.WeeklyBoard, ttl time.Duration) *WeeklyBoard {
	return &WeeklyBoard{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *WeeklyBoard) TopWeekly(ctx context.Context, weekStart time.Time, limit int) ([]domain.WeeklyRank, error) {
	key := b.boardKey(weekStart, limit)

	if ranks, ok := b.fromCache(ctx, key); ok {
		return ranks, nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		if ranks, ok := b.fromCache(ctx, key); ok {
			return ranks, nil
		}

		ranks, err := b.source.TopWeekly(ctx, weekStart, limit)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(ranks); err == nil {
			_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
		}
		return ranks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WeeklyRank), nil
}

func (b *WeeklyBoard) fromCache(ctx context.Context, key string) ([]domain.WeeklyRank, bool) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var ranks []domain.WeeklyRank
	if err := json.Unmarshal(raw, &ranks); err != nil {
		return nil, false
	}
	return ranks, true
}

func (b *WeeklyBoard) boardKey(weekStart time.Time, limit int) string {
	return fmt.Sprintf("board:weekly:%s:%d", weekStart.Format("2006-01-02"), limit)
}

func (b *WeeklyBoard) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
