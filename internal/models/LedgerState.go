package models

import (
	"slices"
	"time"
)

type EngagedSource string

const (
	SourceReader EngagedSource = "reader"
	SourceDebug  EngagedSource = "debug"
)

func (s EngagedSource) Valid() bool {
	return s == SourceReader || s == SourceDebug
}

// LedgerState holds the authoritative streak counters. Dates are local
// start-of-day instants.
type LedgerState struct {
	CurrentStreak        uint
	LongestStreak        uint
	TotalEngagedDays     uint
	FirstEngagedAt       *time.Time
	LastQualifiedDate    *time.Time
	LastEngagedSource    *EngagedSource
	LastActivityAt       *time.Time
	QualifiedDateHistory []time.Time
}

// AddQualifiedDate inserts day keeping the history unique and newest first.
func (l *LedgerState) AddQualifiedDate(day time.Time) {
	for _, d := range l.QualifiedDateHistory {
		if d.Equal(day) {
			return
		}
	}
	l.QualifiedDateHistory = append(l.QualifiedDateHistory, day)
	slices.SortFunc(l.QualifiedDateHistory, func(a, b time.Time) int {
		return b.Compare(a)
	})
}

func (l *LedgerState) Clone() LedgerState {
	c := *l
	c.FirstEngagedAt = cloneTime(l.FirstEngagedAt)
	c.LastQualifiedDate = cloneTime(l.LastQualifiedDate)
	c.LastActivityAt = cloneTime(l.LastActivityAt)
	if l.LastEngagedSource != nil {
		src := *l.LastEngagedSource
		c.LastEngagedSource = &src
	}
	c.QualifiedDateHistory = slices.Clone(l.QualifiedDateHistory)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
