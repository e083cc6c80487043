package timeutil

import (
	"fmt"
	"time"
)

// Elapsed returns the whole seconds between start and end, clamped at zero.
// Clock skew can put end before start; a negative duration is never stored.
func Elapsed(start, end time.Time) int64 {
	seconds := int64(end.Sub(start) / time.Second)
	if seconds < 0 {
		return 0
	}
	return seconds
}

// FormatHMS formats a duration in seconds as zero-padded HH:MM:SS. Hours are
// unbounded; there is no 24h wrap.
func FormatHMS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
