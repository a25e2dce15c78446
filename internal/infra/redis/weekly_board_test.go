package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/thungan1909/easy-english-backend/internal/domain"
)

type countingBoard struct {
	ranks []domain.WeeklyRank
	calls int
}

func (b *countingBoard) TopWeekly(_ context.Context, _ time.Time, _ int) ([]domain.WeeklyRank, error) {
	b.calls++
	return b.ranks, nil
}

func TestWeeklyBoardCachesRanks(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingBoard{ranks: []domain.WeeklyRank{
		{UserID: "u1", Username: "alice", Score: 9},
		{UserID: "u2", Username: "bob", Score: 4},
	}}
	board := NewWeeklyBoard(newClient(mr), source, time.Minute)

	weekStart := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	ranks, err := board.TopWeekly(context.Background(), weekStart, 10)
	if err != nil {
		t.Fatalf("top weekly: %v", err)
	}
	if len(ranks) != 2 || ranks[0].Username != "alice" {
		t.Fatalf("unexpected ranks %+v", ranks)
	}

	if _, err := board.TopWeekly(context.Background(), weekStart, 10); err != nil {
		t.Fatalf("top weekly: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}

	// A different week gets its own cache entry.
	if _, err := board.TopWeekly(context.Background(), weekStart.AddDate(0, 0, 7), 10); err != nil {
		t.Fatalf("top weekly: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected recompute for new week, source calls=%d", source.calls)
	}
}
