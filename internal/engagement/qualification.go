package engagement

import (
	"streakd/internal/models"
	"time"
)

type Criterion int

const (
	CriterionNone Criterion = iota
	CriterionVerses
	CriterionActiveReading
	CriterionReflection
	CriterionDebug
)

func (c Criterion) String() string {
	switch c {
	case CriterionVerses:
		return "verses"
	case CriterionActiveReading:
		return "active_reading"
	case CriterionReflection:
		return "reflection"
	case CriterionDebug:
		return "debug"
	default:
		return "none"
	}
}

type Thresholds struct {
	VerseGoal         int
	ActiveReadingGoal time.Duration
	ReflectionGoal    uint
	VerseDwell        time.Duration
	IdleTimeout       time.Duration
	TickInterval      time.Duration
	MilestoneWindow   time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		VerseGoal:         5,
		ActiveReadingGoal: 240 * time.Second,
		ReflectionGoal:    1,
		VerseDwell:        8 * time.Second,
		IdleTimeout:       20 * time.Second,
		TickInterval:      5 * time.Second,
		MilestoneWindow:   24 * time.Hour,
	}
}

// Evaluate reports whether counters qualify the day. When several criteria
// hold, the reported one follows verses > active reading > reflection.
func Evaluate(c *models.DailyCounters, t Thresholds) (bool, Criterion) {
	switch {
	case c.VersesRead() >= t.VerseGoal:
		return true, CriterionVerses
	case c.ActiveReadingToday >= t.ActiveReadingGoal:
		return true, CriterionActiveReading
	case c.ReflectionsToday >= t.ReflectionGoal:
		return true, CriterionReflection
	}
	return false, CriterionNone
}
