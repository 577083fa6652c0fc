package countdown

import "time"

// Sleeper is the clock collaborator: a blocking sleep with monotonic
// semantics, so wall-clock adjustments cannot cause early or late
// expiry. The default implementation uses time.Sleep, which the Go
// runtime backs with the monotonic clock.
type Sleeper interface {
	Sleep(d time.Duration)
}

type systemSleeper struct{}

func (systemSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}
