// internal/quiz/scheduler.go
//
// Deferred execution of guess resolutions. The default runs on the runtime
// timer heap; tests swap in a scheduler they fire by hand.

package quiz

import "time"

// Scheduler runs f once after d elapses. Scheduled work is never cancelled.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// DefaultScheduler schedules on the runtime timer heap.
func DefaultScheduler() Scheduler { return timerScheduler{} }
