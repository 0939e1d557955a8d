package tryon

import "time"

// Clock abstracts time for the polling orchestrator so tests can drive
// many poll cycles without real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewRealClock returns a Clock backed by the wall clock.
func NewRealClock() Clock {
	return realClock{}
}
