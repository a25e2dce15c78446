package domain

import (
	"testing"
	"time"
)

func TestWeekStartIsMonday(t *testing.T) {
	// Wednesday 2025-01-15 13:45 UTC -> Monday 2025-01-13 00:00 UTC.
	wed := time.Date(2025, 1, 15, 13, 45, 0, 0, time.UTC)
	want := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(wed); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWeekStartOnSunday(t *testing.T) {
	// Sunday belongs to the week started the previous Monday.
	sun := time.Date(2025, 1, 19, 23, 59, 0, 0, time.UTC)
	want := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(sun); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWeekStartIsIdempotent(t *testing.T) {
	mon := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(mon); !got.Equal(mon) {
		t.Fatalf("expected monday to map to itself, got %v", got)
	}
}

func TestSameWeekAcrossBoundary(t *testing.T) {
	sun := time.Date(2025, 1, 19, 23, 0, 0, 0, time.UTC)
	mon := time.Date(2025, 1, 20, 1, 0, 0, 0, time.UTC)
	if SameWeek(sun, mon) {
		t.Fatalf("sunday and the following monday must not share a week")
	}
}
