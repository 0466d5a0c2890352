package engagement

import "time"

// activeReading is the bookkeeping behind the active reading tick. The
// engine owns it and drives it under its own lock.
type activeReading struct {
	idleTimeout time.Duration

	readerVisible     bool
	contentVisible    bool
	appActive         bool
	lastInteractionAt time.Time

	running    bool
	flushedAt  time.Time
	generation uint64
	stopTimer  func() bool
}

func newActiveReading(idleTimeout time.Duration) activeReading {
	return activeReading{idleTimeout: idleTimeout, appActive: true}
}

func (a *activeReading) touch(now time.Time) {
	if now.After(a.lastInteractionAt) {
		a.lastInteractionAt = now
	}
}

func (a *activeReading) idleDeadline() time.Time {
	return a.lastInteractionAt.Add(a.idleTimeout)
}

func (a *activeReading) engaged(now time.Time) bool {
	if !a.readerVisible || !a.contentVisible || !a.appActive || a.lastInteractionAt.IsZero() {
		return false
	}
	return !now.After(a.idleDeadline())
}

func (a *activeReading) start(now time.Time) {
	a.running = true
	a.flushedAt = now
}

// flush returns the engaged time since the previous flush. Credit never runs
// past the idle deadline nor before dayStart, and the flush mark only moves
// forward so a second flush at the same instant yields zero.
func (a *activeReading) flush(now, dayStart time.Time) time.Duration {
	if !a.running {
		return 0
	}
	end := now
	if deadline := a.idleDeadline(); deadline.Before(end) {
		end = deadline
	}
	begin := a.flushedAt
	if begin.Before(dayStart) {
		begin = dayStart
	}
	if end.After(a.flushedAt) {
		a.flushedAt = end
	}
	if !end.After(begin) {
		return 0
	}
	return end.Sub(begin)
}

func (a *activeReading) stop() {
	a.running = false
	a.generation++
	if a.stopTimer != nil {
		a.stopTimer()
		a.stopTimer = nil
	}
}
