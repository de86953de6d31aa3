package clock

import "time"

// Clock abstracts wall time so services and the unit of work stay
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }
