package engagement

import (
	"slices"
	"time"
)

// visibilityWindow tracks when each on-screen verse was first seen. It is
// transient and never persisted.
type visibilityWindow struct {
	dwell     time.Duration
	firstSeen map[string]time.Time
}

func newVisibilityWindow(dwell time.Duration) *visibilityWindow {
	return &visibilityWindow{
		dwell:     dwell,
		firstSeen: make(map[string]time.Time),
	}
}

func (w *visibilityWindow) open(id string, at time.Time) {
	if _, ok := w.firstSeen[id]; ok {
		return
	}
	w.firstSeen[id] = at
}

// close drops the window for id and reports whether it had matured.
func (w *visibilityWindow) close(id string, at time.Time) bool {
	seen, ok := w.firstSeen[id]
	if !ok {
		return false
	}
	delete(w.firstSeen, id)
	return at.Sub(seen) >= w.dwell
}

func (w *visibilityWindow) forget(id string) {
	delete(w.firstSeen, id)
}

// sweep removes and returns every window whose age reached the dwell
// threshold at the given instant.
func (w *visibilityWindow) sweep(at time.Time) []string {
	var matured []string
	for id, seen := range w.firstSeen {
		if at.Sub(seen) >= w.dwell {
			matured = append(matured, id)
		}
	}
	for _, id := range matured {
		delete(w.firstSeen, id)
	}
	slices.Sort(matured)
	return matured
}

func (w *visibilityWindow) reset() {
	clear(w.firstSeen)
}

func (w *visibilityWindow) len() int {
	return len(w.firstSeen)
}
