package domain

import "time"

// sameDay compares calendar days in UTC.
func sameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// StreakLapsed reports whether the engagement streak should be reset to 0:
// the last activity is neither today nor yesterday. A nil last date means
// there is no prior activity to lapse.
func StreakLapsed(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	yesterday := now.AddDate(0, 0, -1)
	return !sameDay(*last, now) && !sameDay(*last, yesterday)
}

// AdvanceStreak applies the "mark active today" transition: increment when
// the last activity was yesterday, restart at 1 after a gap, and no-op when
// today is already marked. It returns the new streak, the new last-active
// date and whether anything changed.
func AdvanceStreak(streak int, last *time.Time, now time.Time) (int, time.Time, bool) {
	if last != nil && sameDay(*last, now) {
		return streak, *last, false
	}
	if last != nil && sameDay(*last, now.AddDate(0, 0, -1)) {
		return streak + 1, now, true
	}
	return 1, now, true
}
