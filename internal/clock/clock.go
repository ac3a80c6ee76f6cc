package clock

import (
	"time"

	model "auction-engine/internal/models"
)

// Clock abstracts the wall clock so that time-dependent logic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Remaining returns the time left until the auction ends, floored at zero.
func Remaining(c Clock, a model.Auction) time.Duration {
	d := a.EndTime.Sub(c.Now())
	if d < 0 {
		return 0
	}
	return d
}

// HasStarted reports whether the auction's start time has passed.
func HasStarted(c Clock, a model.Auction) bool {
	return !c.Now().Before(a.StartTime)
}

// HasEnded reports whether the auction's end time has passed. Consumers must
// treat the zero-crossing as a one-time edge, not a repeated condition.
func HasEnded(c Clock, a model.Auction) bool {
	return !c.Now().Before(a.EndTime)
}
