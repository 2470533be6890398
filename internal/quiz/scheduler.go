package quiz

import "time"

// Scheduler defers a callback. The returned cancel func stops the callback
// if it has not fired yet; the engine cancels every pending task whenever a
// transition supersedes it.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// WallClockScheduler schedules with time.AfterFunc.
type WallClockScheduler struct{}

func (WallClockScheduler) After(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}
