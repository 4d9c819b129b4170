// Package clock abstracts wall-clock time for the time-tracking engines.
//
// Readings are milliseconds since the Unix epoch. A wall clock is required
// rather than a monotonic one: persisted start and end times are compared
// against the clock of a later process, possibly after a device reboot.
package clock

import "time"

// Clock provides the current wall-clock time.
type Clock interface {
	// Now returns milliseconds since the Unix epoch.
	Now() int64
}

// System reads the operating system clock.
type System struct{}

// Now returns time.Now() in Unix milliseconds.
func (System) Now() int64 {
	return time.Now().UnixMilli()
}

// Time converts a Clock reading to a time.Time.
func Time(millis int64) time.Time {
	return time.UnixMilli(millis)
}
