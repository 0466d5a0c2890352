package models

import "time"

const CurrentSchemaVersion = 3

// StateV1 is the legacy blob: coarse streak counters only. CurrentStreak is
// a pointer so an unrelated JSON object is not mistaken for a v1 blob.
type StateV1 struct {
	CurrentStreak    *uint      `json:"currentStreak"`
	LongestStreak    uint       `json:"longestStreak"`
	TotalEngagedDays uint       `json:"totalEngagedDays"`
	LastEngagedAt    *time.Time `json:"lastEngagedAt"`
}

// DailyCountersV2 carries per-day counters without an explicit anchor; the
// day they belong to is the day of StateV2.LastActivityAt.
type DailyCountersV2 struct {
	VerseIDs             []string `json:"verseIds"`
	ActiveReadingSeconds float64  `json:"activeReadingSeconds"`
	Reflections          uint     `json:"reflections"`
}

// StateV2 is the intermediate blob. Today is required to tell it apart from v1.
type StateV2 struct {
	CurrentStreak     uint             `json:"currentStreak"`
	LongestStreak     uint             `json:"longestStreak"`
	TotalEngagedDays  uint             `json:"totalEngagedDays"`
	FirstEngagedAt    *time.Time       `json:"firstEngagedAt,omitempty"`
	LastQualifiedDate *time.Time       `json:"lastQualifiedDate,omitempty"`
	LastEngagedSource *EngagedSource   `json:"lastEngagedSource,omitempty"`
	LastActivityAt    *time.Time       `json:"lastActivityAt,omitempty"`
	Today             *DailyCountersV2 `json:"today"`
}

type MilestoneRecord struct {
	Milestone  string    `json:"milestone"`
	AchievedAt time.Time `json:"achievedAt"`
}

// StateV3 is the current blob, tagged with an explicit version.
type StateV3 struct {
	Version                   int              `json:"version"`
	CurrentStreak             uint             `json:"currentStreak"`
	LongestStreak             uint             `json:"longestStreak"`
	TotalEngagedDays          uint             `json:"totalEngagedDays"`
	FirstEngagedAt            *time.Time       `json:"firstEngagedAt,omitempty"`
	LastQualifiedDate         *time.Time       `json:"lastQualifiedDate,omitempty"`
	LastEngagedSource         *EngagedSource   `json:"lastEngagedSource,omitempty"`
	LastActivityAt            *time.Time       `json:"lastActivityAt,omitempty"`
	DayAnchor                 time.Time        `json:"dayAnchor"`
	VerseIDsReadToday         []string         `json:"verseIdsReadToday"`
	ActiveReadingSecondsToday float64          `json:"activeReadingSecondsToday"`
	ReflectionsToday          uint             `json:"reflectionsToday"`
	LastMilestoneAchieved     *MilestoneRecord `json:"lastMilestoneAchieved,omitempty"`
	QualifiedDateHistory      []time.Time      `json:"qualifiedDateHistory"`
}

func (s *State) ToV3() *StateV3 {
	out := &StateV3{
		Version:                   CurrentSchemaVersion,
		CurrentStreak:             s.Ledger.CurrentStreak,
		LongestStreak:             s.Ledger.LongestStreak,
		TotalEngagedDays:          s.Ledger.TotalEngagedDays,
		FirstEngagedAt:            s.Ledger.FirstEngagedAt,
		LastQualifiedDate:         s.Ledger.LastQualifiedDate,
		LastEngagedSource:         s.Ledger.LastEngagedSource,
		LastActivityAt:            s.Ledger.LastActivityAt,
		DayAnchor:                 s.Counters.DayAnchor,
		VerseIDsReadToday:         s.Counters.VerseIDs(),
		ActiveReadingSecondsToday: s.Counters.ActiveReadingToday.Seconds(),
		ReflectionsToday:          s.Counters.ReflectionsToday,
		QualifiedDateHistory:      s.Ledger.QualifiedDateHistory,
	}
	if out.QualifiedDateHistory == nil {
		out.QualifiedDateHistory = []time.Time{}
	}
	if s.LastMilestone != nil {
		out.LastMilestoneAchieved = &MilestoneRecord{
			Milestone:  s.LastMilestone.Milestone.String(),
			AchievedAt: s.LastMilestone.AchievedAt,
		}
	}
	return out
}

// ToState converts the blob without normalising day values; callers pass the
// result through a day resolver.
func (v *StateV3) ToState() *State {
	st := &State{
		Ledger: LedgerState{
			CurrentStreak:     v.CurrentStreak,
			LongestStreak:     max(v.LongestStreak, v.CurrentStreak),
			TotalEngagedDays:  v.TotalEngagedDays,
			FirstEngagedAt:    v.FirstEngagedAt,
			LastQualifiedDate: v.LastQualifiedDate,
			LastActivityAt:    v.LastActivityAt,
		},
		Counters: NewDailyCounters(v.DayAnchor),
	}
	if v.LastEngagedSource != nil && v.LastEngagedSource.Valid() {
		src := *v.LastEngagedSource
		st.Ledger.LastEngagedSource = &src
	}
	for _, day := range v.QualifiedDateHistory {
		st.Ledger.AddQualifiedDate(day)
	}
	for _, id := range v.VerseIDsReadToday {
		if id != "" {
			st.Counters.CreditVerse(id)
		}
	}
	if v.ActiveReadingSecondsToday > 0 {
		st.Counters.ActiveReadingToday = time.Duration(v.ActiveReadingSecondsToday * float64(time.Second))
	}
	st.Counters.ReflectionsToday = v.ReflectionsToday
	if v.LastMilestoneAchieved != nil {
		if m, err := ParseMilestone(v.LastMilestoneAchieved.Milestone); err == nil {
			st.LastMilestone = &MilestoneAchievement{Milestone: m, AchievedAt: v.LastMilestoneAchieved.AchievedAt}
		}
	}
	return st
}
