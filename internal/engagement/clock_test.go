package engagement

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayResolver_StartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	days := NewDayResolver(loc)

	got := days.StartOfDay(time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC))
	assert.True(t, got.Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, loc)))
	assert.Equal(t, loc, got.Location())
}

func TestDayResolver_NilLocationFallsBackToLocal(t *testing.T) {
	days := NewDayResolver(nil)
	assert.Equal(t, time.Local, days.Location())
	assert.Equal(t, time.Local, DayResolver{}.Location())
}

func TestDayResolver_DaysBetween(t *testing.T) {
	days := NewDayResolver(time.UTC)
	a := time.Date(2024, 1, 30, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 0, days.DaysBetween(a, a.Add(30*time.Second)))
	assert.Equal(t, 1, days.DaysBetween(a, a.Add(2*time.Minute)))
	assert.Equal(t, 3, days.DaysBetween(a, time.Date(2024, 2, 2, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, days.DaysBetween(a, time.Date(2024, 1, 29, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 366, days.DaysBetween(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDayResolver_DaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	days := NewDayResolver(loc)

	// 2024-03-10 is only 23 hours long in New York.
	before := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	after := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	assert.Equal(t, 1, days.DaysBetween(before, after))
	assert.Equal(t, 2, days.DaysBetween(before, time.Date(2024, 3, 11, 0, 30, 0, 0, loc)))

	fallBack := time.Date(2024, 11, 3, 0, 0, 0, 0, loc)
	assert.Equal(t, 1, days.DaysBetween(fallBack, time.Date(2024, 11, 4, 0, 0, 0, 0, loc)))
}

func TestDayResolver_SameDay(t *testing.T) {
	days := NewDayResolver(time.UTC)
	a := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, days.SameDay(a, a.Add(23*time.Hour+59*time.Minute)))
	assert.False(t, days.SameDay(a, a.Add(24*time.Hour)))
	assert.False(t, days.SameDay(a, a.Add(-time.Nanosecond)))
}

func TestSystemClock_AfterFuncStop(t *testing.T) {
	c := SystemClock()
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)

	fired := make(chan struct{})
	stop := c.AfterFunc(time.Hour, func() { close(fired) })
	assert.True(t, stop())
	assert.False(t, stop())
}
