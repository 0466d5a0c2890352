package engagement

import (
	"sync"
	"time"
)

type ChangeKind uint8

const (
	ChangeCounters ChangeKind = 1 << iota
	ChangeQualified
	ChangeStreakReset
	ChangeMilestone
	ChangeReset
)

func (k ChangeKind) Has(flag ChangeKind) bool {
	return k&flag != 0
}

type Snapshot struct {
	CurrentStreak        uint          `json:"currentStreak"`
	LongestStreak        uint          `json:"longestStreak"`
	TotalQualifiedDays   uint          `json:"totalQualifiedDays"`
	IsQualifiedToday     bool          `json:"isQualifiedToday"`
	LastQualifiedDate    *time.Time    `json:"lastQualifiedDate,omitempty"`
	VersesReadToday      int           `json:"versesReadToday"`
	ActiveReadingToday   time.Duration `json:"-"`
	ActiveReadingSeconds float64       `json:"activeReadingSecondsToday"`
	ReflectionsToday     uint          `json:"reflectionsToday"`
	ActivelyReading      bool          `json:"activelyReading"`
	MilestoneCopyText    string        `json:"milestoneCopyText,omitempty"`
	QualifiedDateHistory []time.Time   `json:"qualifiedDateHistory"`
}

type Change struct {
	Kind      ChangeKind
	Criterion Criterion
	Milestone string
	Snapshot  Snapshot
}

const subscriptionBuffer = 8

// Subscription receives engine changes on C. A slow reader loses the oldest
// pending change, never the newest.
type Subscription struct {
	C <-chan Change

	ch     chan Change
	engine *Engine
	once   sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.engine.mu.Lock()
		defer s.engine.mu.Unlock()
		if _, ok := s.engine.subs[s]; ok {
			delete(s.engine.subs, s)
			close(s.ch)
		}
	})
}

func (s *Subscription) deliver(c Change) {
	select {
	case s.ch <- c:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- c:
	default:
	}
}
