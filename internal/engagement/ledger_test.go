package engagement

import (
	"streakd/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utcDays = NewDayResolver(time.UTC)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestAdvanceStreak_First(t *testing.T) {
	var l models.LedgerState
	now := day(0).Add(9 * time.Hour)

	advanced, first := advanceStreak(&l, day(0), now, utcDays, models.SourceReader)
	require.True(t, advanced)
	assert.True(t, first)
	assert.Equal(t, uint(1), l.CurrentStreak)
	assert.Equal(t, uint(1), l.LongestStreak)
	assert.Equal(t, uint(1), l.TotalEngagedDays)
	assert.True(t, l.LastQualifiedDate.Equal(day(0)))
	assert.True(t, l.FirstEngagedAt.Equal(now))
	assert.Equal(t, models.SourceReader, *l.LastEngagedSource)
	assert.Equal(t, []time.Time{day(0)}, l.QualifiedDateHistory)
}

func TestAdvanceStreak_SameDayIsNoop(t *testing.T) {
	var l models.LedgerState
	advanceStreak(&l, day(0), day(0), utcDays, models.SourceReader)

	advanced, first := advanceStreak(&l, day(0), day(0).Add(time.Hour), utcDays, models.SourceDebug)
	assert.False(t, advanced)
	assert.False(t, first)
	assert.Equal(t, uint(1), l.TotalEngagedDays)
	assert.Equal(t, models.SourceReader, *l.LastEngagedSource)
}

func TestAdvanceStreak_EarlierDayIsNoop(t *testing.T) {
	var l models.LedgerState
	advanceStreak(&l, day(5), day(5), utcDays, models.SourceReader)

	advanced, _ := advanceStreak(&l, day(4), day(4), utcDays, models.SourceReader)
	assert.False(t, advanced)
	assert.True(t, l.LastQualifiedDate.Equal(day(5)))
}

func TestAdvanceStreak_ConsecutiveAndGap(t *testing.T) {
	var l models.LedgerState
	firstAt := day(0).Add(8 * time.Hour)
	advanceStreak(&l, day(0), firstAt, utcDays, models.SourceReader)
	advanceStreak(&l, day(1), day(1), utcDays, models.SourceReader)
	advanced, first := advanceStreak(&l, day(2), day(2), utcDays, models.SourceReader)
	require.True(t, advanced)
	assert.False(t, first)
	assert.Equal(t, uint(3), l.CurrentStreak)

	advanceStreak(&l, day(5), day(5), utcDays, models.SourceReader)
	assert.Equal(t, uint(1), l.CurrentStreak)
	assert.Equal(t, uint(3), l.LongestStreak)
	assert.Equal(t, uint(4), l.TotalEngagedDays)
	assert.True(t, l.FirstEngagedAt.Equal(firstAt))
	assert.Equal(t, []time.Time{day(5), day(2), day(1), day(0)}, l.QualifiedDateHistory)
}

func TestResetIfMissedDay(t *testing.T) {
	var l models.LedgerState
	assert.False(t, resetIfMissedDay(&l, day(3), utcDays))

	advanceStreak(&l, day(0), day(0), utcDays, models.SourceReader)
	advanceStreak(&l, day(1), day(1), utcDays, models.SourceReader)

	assert.False(t, resetIfMissedDay(&l, day(1), utcDays))
	assert.False(t, resetIfMissedDay(&l, day(2), utcDays))
	assert.Equal(t, uint(2), l.CurrentStreak)

	assert.True(t, resetIfMissedDay(&l, day(3), utcDays))
	assert.Equal(t, uint(0), l.CurrentStreak)
	assert.Equal(t, uint(2), l.LongestStreak)
	assert.Equal(t, uint(2), l.TotalEngagedDays)

	assert.False(t, resetIfMissedDay(&l, day(4), utcDays))
}
