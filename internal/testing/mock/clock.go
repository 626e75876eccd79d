package mock

import (
	"sync"
	"time"
)

// Clock returns the time rendered into {{ now }} placeholders.
type Clock func() time.Time

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// SteppingClock returns start on its first call and moves forward by step on
// every call after that, so consecutive responses carry distinct timestamps.
func SteppingClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
