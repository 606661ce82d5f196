package clock

import "time"

// Clock is the time source consulted by every deadline and staleness
// check. Implementations must be consistent within a single operation
// invocation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
