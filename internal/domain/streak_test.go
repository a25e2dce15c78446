package domain

import (
	"testing"
	"time"
)

func TestStreakLapsed(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	today := now.Add(-2 * time.Hour)
	yesterday := now.AddDate(0, 0, -1)
	twoDaysAgo := now.AddDate(0, 0, -2)

	cases := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"no prior activity", nil, false},
		{"active today", &today, false},
		{"active yesterday", &yesterday, false},
		{"gap of two days", &twoDaysAgo, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StreakLapsed(tc.last, now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAdvanceStreakConsecutiveDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	streak, last, changed := AdvanceStreak(4, &yesterday, now)
	if !changed || streak != 5 {
		t.Fatalf("expected streak 5, got %d (changed=%v)", streak, changed)
	}
	if !last.Equal(now) {
		t.Fatalf("expected last date updated to now, got %v", last)
	}
}

func TestAdvanceStreakAfterGap(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -5)

	streak, _, changed := AdvanceStreak(9, &old, now)
	if !changed || streak != 1 {
		t.Fatalf("expected streak restart at 1, got %d", streak)
	}
}

func TestAdvanceStreakAlreadyMarkedToday(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-3 * time.Hour)

	streak, _, changed := AdvanceStreak(4, &earlier, now)
	if changed || streak != 4 {
		t.Fatalf("expected no-op, got streak=%d changed=%v", streak, changed)
	}
}

func TestAdvanceStreakFirstActivity(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	streak, last, changed := AdvanceStreak(0, nil, now)
	if !changed || streak != 1 || !last.Equal(now) {
		t.Fatalf("expected first activity to start streak at 1, got %d", streak)
	}
}
