package scheduler

import "time"

// IntervalSchedule fires at a fixed period, anchored to the previous
// run rather than to wall-clock alignment. Good enough for cache
// rebuilds, where drift across restarts does not matter.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the time one interval after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in "@every" notation, e.g. "@every 5m0s".
func (s *IntervalSchedule) String() string {
	return "@every " + s.Interval.String()
}
