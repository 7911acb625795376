package replay

import "time"

// Clock supplies the monotonic time base and the sleep primitive.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock backed by the runtime's monotonic reading.
func SystemClock() Clock {
	return systemClock{}
}
