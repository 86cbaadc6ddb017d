package chrono

import (
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

// Now returns the current local time, the milestone log is written in the
// operator's timezone.
func (StandardTime) Now() time.Time {
	return time.Now()
}

// SteppedTime is a TimeAPI for tests, it starts at Start and advances by Step
// every time Now is called.
type SteppedTime struct {
	Start time.Time
	Step  time.Duration
	calls int
}

func (s *SteppedTime) Now() time.Time {
	t := s.Start.Add(time.Duration(s.calls) * s.Step)
	s.calls++
	return t
}
