package service

import "time"

// Clock abstracts time for the poller so its termination conditions can
// be tested without real time passing
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the time package
func SystemClock() Clock {
	return systemClock{}
}
