package chat

import "time"

// Test hooks for the unexported clock and timer.

func (c *Composer) SetNowForTest(now func() time.Time) {
	c.now = now
}

func (f *OrderFlow) SetScheduleForTest(schedule func(time.Duration, func())) {
	f.schedule = schedule
}

func WSURLForTest(base string) string { return wsURL(base) }
