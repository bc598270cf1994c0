package box2d

import "time"

// Timer for profiling.
type B2Timer struct {
	start time.Time
}

func MakeB2Timer() B2Timer {
	return B2Timer{start: time.Now()}
}

func (timer *B2Timer) Reset() {
	timer.start = time.Now()
}

// GetMilliseconds returns the time since construction or the last reset.
func (timer B2Timer) GetMilliseconds() float64 {
	return float64(time.Since(timer.start)) / float64(time.Millisecond)
}
