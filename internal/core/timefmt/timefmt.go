// Package timefmt renders millisecond durations for display.
package timefmt

import "fmt"

// Format renders ms as HH:MM:SS.cc where cc are centiseconds.
// Hours are not wrapped at 24. Negative input renders as zero.
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000
	centis := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// Split breaks ms into whole hours, minutes and seconds.
func Split(ms int64) (hours, minutes, seconds int) {
	if ms < 0 {
		ms = 0
	}
	return int(ms / 3_600_000), int((ms % 3_600_000) / 60_000), int((ms % 60_000) / 1000)
}
