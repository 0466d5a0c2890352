package services

import (
	"fmt"
	"streakd/internal/engagement"
	"streakd/internal/structures"
	"time"
)

func NewDayResolver(conf *structures.Config) (engagement.DayResolver, error) {
	if conf.Engagement.Timezone == "" {
		return engagement.NewDayResolver(time.Local), nil
	}
	loc, err := time.LoadLocation(conf.Engagement.Timezone)
	if err != nil {
		return engagement.DayResolver{}, fmt.Errorf("unknown timezone %q: %w", conf.Engagement.Timezone, err)
	}
	return engagement.NewDayResolver(loc), nil
}

// NewThresholds fills unset values from the defaults.
func NewThresholds(conf *structures.Config) engagement.Thresholds {
	t := engagement.DefaultThresholds()
	ec := conf.Engagement
	if ec.VerseGoal > 0 {
		t.VerseGoal = ec.VerseGoal
	}
	if ec.ActiveReadingGoal > 0 {
		t.ActiveReadingGoal = ec.ActiveReadingGoal
	}
	if ec.ReflectionGoal > 0 {
		t.ReflectionGoal = uint(ec.ReflectionGoal)
	}
	if ec.VerseDwell > 0 {
		t.VerseDwell = ec.VerseDwell
	}
	if ec.IdleTimeout > 0 {
		t.IdleTimeout = ec.IdleTimeout
	}
	if ec.TickInterval > 0 {
		t.TickInterval = ec.TickInterval
	}
	if ec.MilestoneWindow > 0 {
		t.MilestoneWindow = ec.MilestoneWindow
	}
	return t
}
