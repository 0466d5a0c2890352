package interfaces

import "time"

// SchedulerInterface drives periodic day resync and the startup/shutdown
// state round trip.
type SchedulerInterface interface {
	Init()
	Stop()
	Sweep()
	LastSweep() time.Time
	Restore() error
	Persist() error
}
