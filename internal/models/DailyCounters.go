package models

import (
	"slices"
	"time"
)

type DailyCounters struct {
	DayAnchor          time.Time
	VerseIDsReadToday  map[string]struct{}
	ActiveReadingToday time.Duration
	ReflectionsToday   uint
}

func NewDailyCounters(day time.Time) DailyCounters {
	return DailyCounters{
		DayAnchor:         day,
		VerseIDsReadToday: make(map[string]struct{}),
	}
}

// CreditVerse returns false when the verse was already counted today.
func (d *DailyCounters) CreditVerse(id string) bool {
	if d.VerseIDsReadToday == nil {
		d.VerseIDsReadToday = make(map[string]struct{})
	}
	if _, ok := d.VerseIDsReadToday[id]; ok {
		return false
	}
	d.VerseIDsReadToday[id] = struct{}{}
	return true
}

func (d *DailyCounters) VersesRead() int {
	return len(d.VerseIDsReadToday)
}

// VerseIDs returns the credited ids sorted for stable output.
func (d *DailyCounters) VerseIDs() []string {
	ids := make([]string, 0, len(d.VerseIDsReadToday))
	for id := range d.VerseIDsReadToday {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (d *DailyCounters) Clone() DailyCounters {
	c := *d
	c.VerseIDsReadToday = make(map[string]struct{}, len(d.VerseIDsReadToday))
	for id := range d.VerseIDsReadToday {
		c.VerseIDsReadToday[id] = struct{}{}
	}
	return c
}
