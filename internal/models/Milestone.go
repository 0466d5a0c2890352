package models

import (
	"fmt"
	"time"
)

type Milestone uint

const (
	MilestoneWeek   Milestone = 7
	MilestoneMonth  Milestone = 30
	MilestoneSeason Milestone = 90
	MilestoneYear   Milestone = 365
)

var milestoneNames = map[Milestone]string{
	MilestoneWeek:   "week",
	MilestoneMonth:  "month",
	MilestoneSeason: "season",
	MilestoneYear:   "year",
}

var milestoneCopy = map[Milestone]string{
	MilestoneWeek:   "7-day streak! A full week in the Word.",
	MilestoneMonth:  "30-day streak! A month of daily reading.",
	MilestoneSeason: "90-day streak! A whole season of faithfulness.",
	MilestoneYear:   "365-day streak! A year of reading every day.",
}

// MilestoneForStreak reports the milestone whose threshold equals streak.
func MilestoneForStreak(streak uint) (Milestone, bool) {
	m := Milestone(streak)
	_, ok := milestoneNames[m]
	return m, ok
}

func ParseMilestone(name string) (Milestone, error) {
	for m, n := range milestoneNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown milestone %q", name)
}

func (m Milestone) String() string {
	if name, ok := milestoneNames[m]; ok {
		return name
	}
	return fmt.Sprintf("milestone(%d)", uint(m))
}

func (m Milestone) CopyText() string {
	return milestoneCopy[m]
}

type MilestoneAchievement struct {
	Milestone  Milestone
	AchievedAt time.Time
}

// LiveAt reports whether the achievement is still displayable at now.
func (a MilestoneAchievement) LiveAt(now time.Time, window time.Duration) bool {
	age := now.Sub(a.AchievedAt)
	return age >= 0 && age <= window
}
