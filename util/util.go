// Package util contains small utility functions shared across packages
package util

import "time"

// SecsToDuration converts a floating point number of seconds to a Duration
func SecsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// DurationToSecs converts a Duration to a floating point number of seconds
func DurationToSecs(d time.Duration) float64 {
	return d.Seconds()
}
