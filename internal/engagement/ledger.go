package engagement

import (
	"streakd/internal/models"
	"time"
)

// advanceStreak applies a qualification for today. It reports false without
// touching the ledger when today, or a later day, is already recorded.
func advanceStreak(l *models.LedgerState, today, now time.Time, days DayResolver, source models.EngagedSource) (advanced, first bool) {
	if l.LastQualifiedDate != nil && days.DaysBetween(*l.LastQualifiedDate, today) <= 0 {
		return false, false
	}

	if l.LastQualifiedDate != nil && days.DaysBetween(*l.LastQualifiedDate, today) == 1 {
		l.CurrentStreak++
	} else {
		l.CurrentStreak = 1
	}
	l.LongestStreak = max(l.LongestStreak, l.CurrentStreak)
	l.TotalEngagedDays++

	day := today
	l.LastQualifiedDate = &day
	l.AddQualifiedDate(today)

	src := source
	l.LastEngagedSource = &src

	if l.FirstEngagedAt == nil {
		at := now
		l.FirstEngagedAt = &at
	}
	return true, l.TotalEngagedDays == 1
}

// resetIfMissedDay zeroes the streak once a full calendar day was skipped.
func resetIfMissedDay(l *models.LedgerState, today time.Time, days DayResolver) bool {
	if l.LastQualifiedDate == nil || l.CurrentStreak == 0 {
		return false
	}
	if days.DaysBetween(*l.LastQualifiedDate, today) <= 1 {
		return false
	}
	l.CurrentStreak = 0
	return true
}
