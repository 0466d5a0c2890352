package models

import "time"

// State is everything persisted for one profile.
type State struct {
	Ledger        LedgerState
	Counters      DailyCounters
	LastMilestone *MilestoneAchievement
}

func NewState(today time.Time) *State {
	return &State{Counters: NewDailyCounters(today)}
}

func (s *State) Clone() *State {
	c := &State{
		Ledger:   s.Ledger.Clone(),
		Counters: s.Counters.Clone(),
	}
	if s.LastMilestone != nil {
		m := *s.LastMilestone
		c.LastMilestone = &m
	}
	return c
}
