package engagement

import (
	"streakd/internal/models"
	"streakd/internal/providers"
	"sync"
	"time"
)

type Options struct {
	Profile    string
	Clock      Clock
	Days       DayResolver
	Thresholds Thresholds
	Logger     providers.Logger
}

// Engine owns one profile's streak state. Every event, query and timer tick
// goes through mu, so mutations never interleave.
type Engine struct {
	mu sync.Mutex

	profile    string
	clock      Clock
	days       DayResolver
	thresholds Thresholds
	logger     providers.Logger
	store      Store

	state       *models.State
	window      *visibilityWindow
	reading     activeReading
	firstPrompt bool
	subs        map[*Subscription]struct{}
	closed      bool
	revision    uint64
}

// mutation collects what one event or tick changed so the engine persists
// and notifies at most once per call.
type mutation struct {
	now       time.Time
	dirty     bool
	kind      ChangeKind
	criterion Criterion
	milestone string
}

func (m *mutation) mark(kind ChangeKind) {
	m.dirty = true
	m.kind |= kind
}

func NewEngine(store Store, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}

	e := &Engine{
		profile:    opts.Profile,
		clock:      opts.Clock,
		days:       opts.Days,
		thresholds: opts.Thresholds,
		logger:     opts.Logger,
		store:      store,
		window:     newVisibilityWindow(opts.Thresholds.VerseDwell),
		reading:    newActiveReading(opts.Thresholds.IdleTimeout),
		subs:       make(map[*Subscription]struct{}),
	}

	state, ok := store.Load()
	if !ok || state == nil {
		state = models.NewState(e.days.StartOfDay(e.clock.Now()))
	}
	e.state = state
	return e
}

func (e *Engine) Profile() string {
	return e.profile
}

func (e *Engine) instant(at time.Time) time.Time {
	if at.IsZero() {
		return e.clock.Now()
	}
	return at
}

// apply runs one external event: resync the day, flush accumulated reading
// time, mutate, then re-evaluate engagement and qualification.
func (e *Engine) apply(at time.Time, event func(m *mutation)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	m := &mutation{now: e.instant(at)}
	if !e.syncDay(m) {
		e.logger.Debugf(providers.TypeEngine, "profile %s: ignored event dated %s, before current day %s",
			e.profile, m.now.Format(time.RFC3339), e.state.Counters.DayAnchor.Format(time.DateOnly))
		return
	}
	e.flushReading(m)
	event(m)
	e.reconcileReading(m)
	e.updateIfQualifiedToday(m)
	e.commit(m)
}

func (e *Engine) touchActivity(m *mutation) {
	now := m.now
	e.state.Ledger.LastActivityAt = &now
	m.dirty = true
}

// syncDay rolls the counters over to the day of m.now. It reports false and
// touches nothing when m.now falls on a day before the counters' anchor.
func (e *Engine) syncDay(m *mutation) bool {
	today := e.days.StartOfDay(m.now)
	if today.Before(e.state.Counters.DayAnchor) {
		return false
	}
	if !e.state.Counters.DayAnchor.Equal(today) {
		e.state.Counters = models.NewDailyCounters(today)
		m.mark(ChangeCounters)
	}
	if resetIfMissedDay(&e.state.Ledger, today, e.days) {
		m.mark(ChangeStreakReset)
		e.logger.Infof(providers.TypeEngine, "profile %s: streak expired after missed day", e.profile)
	}
	return true
}

func (e *Engine) updateIfQualifiedToday(m *mutation) {
	ok, criterion := Evaluate(&e.state.Counters, e.thresholds)
	if !ok {
		return
	}
	e.qualify(m, criterion, models.SourceReader)
}

func (e *Engine) qualify(m *mutation, criterion Criterion, source models.EngagedSource) {
	today := e.days.StartOfDay(m.now)
	advanced, first := advanceStreak(&e.state.Ledger, today, m.now, e.days, source)
	if !advanced {
		return
	}
	m.mark(ChangeQualified)
	m.criterion = criterion
	if first {
		e.firstPrompt = true
	}
	e.logger.Infof(providers.TypeEngine, "profile %s qualified via %s, streak %d (longest %d)",
		e.profile, criterion, e.state.Ledger.CurrentStreak, e.state.Ledger.LongestStreak)

	if achievement, ok := detectMilestone(e.state.Ledger.CurrentStreak, m.now); ok {
		e.state.LastMilestone = achievement
		m.mark(ChangeMilestone)
		m.milestone = achievement.Milestone.String()
		e.logger.Infof(providers.TypeEngine, "profile %s reached %s milestone", e.profile, m.milestone)
	}
}

func (e *Engine) creditVerse(id string, m *mutation) {
	if e.state.Counters.CreditVerse(id) {
		m.mark(ChangeCounters)
	}
}

func (e *Engine) creditMatured(m *mutation) {
	for _, id := range e.window.sweep(m.now) {
		e.creditVerse(id, m)
	}
}

func (e *Engine) flushReading(m *mutation) {
	credited := e.reading.flush(m.now, e.days.StartOfDay(m.now))
	if credited > 0 {
		e.state.Counters.ActiveReadingToday += credited
		m.mark(ChangeCounters)
	}
}

// reconcileReading starts the tick when engagement begins and flushes then
// stops it once engagement ends.
func (e *Engine) reconcileReading(m *mutation) {
	if e.reading.engaged(m.now) {
		if !e.reading.running {
			e.reading.start(m.now)
			e.scheduleTick()
		}
		return
	}
	if e.reading.running {
		e.flushReading(m)
		e.reading.stop()
	}
}

func (e *Engine) scheduleTick() {
	e.reading.generation++
	gen := e.reading.generation
	e.reading.stopTimer = e.clock.AfterFunc(e.thresholds.TickInterval, func() {
		e.tick(gen)
	})
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.reading.running || gen != e.reading.generation {
		return
	}

	m := &mutation{now: e.clock.Now()}
	if !e.syncDay(m) {
		e.scheduleTick()
		return
	}
	e.flushReading(m)
	e.creditMatured(m)
	if e.reading.engaged(m.now) {
		e.scheduleTick()
	} else {
		e.reading.stop()
	}
	e.updateIfQualifiedToday(m)
	e.commit(m)
}

func (e *Engine) commit(m *mutation) {
	e.revision++
	if !m.dirty {
		return
	}
	e.store.Save(e.state)
	if m.kind == 0 {
		return
	}
	change := Change{
		Kind:      m.kind,
		Criterion: m.criterion,
		Milestone: m.milestone,
		Snapshot:  e.snapshotLocked(m.now),
	}
	for sub := range e.subs {
		sub.deliver(change)
	}
}

func (e *Engine) ReaderDidAppear(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.readerVisible = true
		e.reading.touch(m.now)
		e.touchActivity(m)
	})
}

// ReaderDidDisappear credits matured verses and forgets every open window.
func (e *Engine) ReaderDidDisappear(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.readerVisible = false
		e.creditMatured(m)
		e.window.reset()
		e.touchActivity(m)
	})
}

func (e *Engine) SetReaderContentVisible(visible bool, at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.contentVisible = visible
		e.touchActivity(m)
	})
}

func (e *Engine) AppDidBecomeActive(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.appActive = true
		e.reading.touch(m.now)
		e.touchActivity(m)
	})
}

func (e *Engine) AppWillResignActive(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.appActive = false
		e.touchActivity(m)
	})
}

func (e *Engine) AppDidEnterBackground(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.appActive = false
		e.touchActivity(m)
	})
}

func (e *Engine) RecordVerseBecameVisible(verseID string, at time.Time) {
	if verseID == "" {
		return
	}
	e.apply(at, func(m *mutation) {
		e.window.open(verseID, m.now)
		e.touchActivity(m)
	})
}

func (e *Engine) RecordVerseNoLongerVisible(verseID string, at time.Time) {
	if verseID == "" {
		return
	}
	e.apply(at, func(m *mutation) {
		if e.window.close(verseID, m.now) {
			e.creditVerse(verseID, m)
		}
		e.touchActivity(m)
	})
}

// RecordVerseInteraction credits the verse immediately, ignoring dwell time.
func (e *Engine) RecordVerseInteraction(verseID string, at time.Time) {
	if verseID == "" {
		return
	}
	e.apply(at, func(m *mutation) {
		e.window.forget(verseID)
		e.creditVerse(verseID, m)
		e.reading.touch(m.now)
		e.creditMatured(m)
		e.touchActivity(m)
	})
}

func (e *Engine) RecordNoteCreated(at time.Time) {
	e.recordReflection(at)
}

func (e *Engine) RecordHighlightCreated(at time.Time) {
	e.recordReflection(at)
}

func (e *Engine) recordReflection(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.state.Counters.ReflectionsToday++
		m.mark(ChangeCounters)
		e.reading.touch(m.now)
		e.touchActivity(m)
	})
}

// RecordReaderInteraction refreshes idle liveness and sweeps matured verse
// windows; it credits nothing by itself.
func (e *Engine) RecordReaderInteraction(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.reading.touch(m.now)
		e.creditMatured(m)
		e.touchActivity(m)
	})
}

// ResyncDay runs only the day boundary path: counter rollover, missed-day
// reset and the idle check of the reading tick.
func (e *Engine) ResyncDay(at time.Time) {
	e.apply(at, func(*mutation) {})
}

// DebugQualify marks today as qualified regardless of counters.
func (e *Engine) DebugQualify(at time.Time) {
	e.apply(at, func(m *mutation) {
		e.qualify(m, CriterionDebug, models.SourceDebug)
		e.touchActivity(m)
	})
}

// Reset wipes all state, persisted blob included.
func (e *Engine) Reset(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	now := e.instant(at)
	e.reading.stop()
	generation := e.reading.generation
	e.reading = newActiveReading(e.thresholds.IdleTimeout)
	e.reading.generation = generation
	e.window.reset()
	e.firstPrompt = false
	e.revision++
	e.state = models.NewState(e.days.StartOfDay(now))
	e.store.Delete()
	e.logger.Warnf(providers.TypeEngine, "profile %s: state wiped", e.profile)

	change := Change{Kind: ChangeReset, Snapshot: e.snapshotLocked(now)}
	for sub := range e.subs {
		sub.deliver(change)
	}
}

// Close flushes pending reading time, persists, stops the tick and closes
// every subscription. Later events are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	m := &mutation{now: e.clock.Now()}
	current := e.syncDay(m)
	if current {
		e.flushReading(m)
	}
	e.reading.stop()
	if current {
		e.updateIfQualifiedToday(m)
	}
	e.commit(m)

	e.closed = true
	for sub := range e.subs {
		delete(e.subs, sub)
		close(sub.ch)
	}
}

func (e *Engine) Subscribe() *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Change, subscriptionBuffer)
	sub := &Subscription{C: ch, ch: ch, engine: e}
	if e.closed {
		close(ch)
		return sub
	}
	e.subs[sub] = struct{}{}
	return sub
}

func (e *Engine) CurrentStreak() uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Ledger.CurrentStreak
}

func (e *Engine) LongestStreak() uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Ledger.LongestStreak
}

func (e *Engine) TotalQualifiedDays() uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Ledger.TotalEngagedDays
}

func (e *Engine) IsQualifiedToday(at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.qualifiedOn(e.instant(at))
}

func (e *Engine) qualifiedOn(now time.Time) bool {
	last := e.state.Ledger.LastQualifiedDate
	return last != nil && e.days.SameDay(*last, now)
}

func (e *Engine) MilestoneCopyText(at time.Time) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return milestoneCopyText(e.state.LastMilestone, e.instant(at), e.thresholds.MilestoneWindow)
}

func (e *Engine) LastMilestone() *models.MilestoneAchievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.LastMilestone == nil {
		return nil
	}
	a := *e.state.LastMilestone
	return &a
}

// ConsumeFirstQualificationPrompt reports the pending first-qualification
// prompt once.
func (e *Engine) ConsumeFirstQualificationPrompt() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pending := e.firstPrompt
	e.firstPrompt = false
	return pending
}

// Revision reports how many mutations the engine has handled together with
// the day a read at the given instant falls on. Snapshots taken under an
// equal pair agree on everything but the milestone copy text.
func (e *Engine) Revision(at time.Time) (uint64, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision, e.days.StartOfDay(e.instant(at))
}

func (e *Engine) Snapshot(at time.Time) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.instant(at))
}

// State returns a deep copy of the persisted aggregate.
func (e *Engine) State() *models.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) snapshotLocked(now time.Time) Snapshot {
	l := e.state.Ledger.Clone()
	snap := Snapshot{
		CurrentStreak:        l.CurrentStreak,
		LongestStreak:        l.LongestStreak,
		TotalQualifiedDays:   l.TotalEngagedDays,
		IsQualifiedToday:     e.qualifiedOn(now),
		LastQualifiedDate:    l.LastQualifiedDate,
		QualifiedDateHistory: l.QualifiedDateHistory,
		ActivelyReading:      e.reading.running,
	}
	if snap.QualifiedDateHistory == nil {
		snap.QualifiedDateHistory = []time.Time{}
	}
	if e.days.SameDay(e.state.Counters.DayAnchor, now) {
		snap.VersesReadToday = e.state.Counters.VersesRead()
		snap.ActiveReadingToday = e.state.Counters.ActiveReadingToday
		snap.ActiveReadingSeconds = snap.ActiveReadingToday.Seconds()
		snap.ReflectionsToday = e.state.Counters.ReflectionsToday
	}
	if text, ok := milestoneCopyText(e.state.LastMilestone, now, e.thresholds.MilestoneWindow); ok {
		snap.MilestoneCopyText = text
	}
	return snap
}

type nopLogger struct{}

func (nopLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (nopLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (nopLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (nopLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (nopLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (nopLogger) Close()                                                  {}
