package engagement

import "time"

// Clock is the engine's only source of time. AfterFunc returns a stop
// function with time.Timer.Stop semantics.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// DayResolver maps instants to calendar days in a fixed location.
type DayResolver struct {
	loc *time.Location
}

func NewDayResolver(loc *time.Location) DayResolver {
	if loc == nil {
		loc = time.Local
	}
	return DayResolver{loc: loc}
}

func (r DayResolver) Location() *time.Location {
	if r.loc == nil {
		return time.Local
	}
	return r.loc
}

func (r DayResolver) StartOfDay(t time.Time) time.Time {
	loc := r.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b, negative when b is earlier.
// Civil dates are compared in UTC so DST shifts never skew the count.
func (r DayResolver) DaysBetween(a, b time.Time) int {
	loc := r.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func (r DayResolver) SameDay(a, b time.Time) bool {
	return r.DaysBetween(a, b) == 0
}
