// Package window computes rotation windows for periodic markets. A window of
// width W is the half-open interval [start, start+W) where start is a Unix
// timestamp aligned to a multiple of W. All arithmetic is UTC.
package window

import "time"

// DefaultWidth is the rotation width used by the 15-minute market families.
const DefaultWidth = 15 * time.Minute

// Current returns the Unix start of the window containing now.
func Current(width time.Duration, now time.Time) int64 {
	w := int64(width / time.Second)
	return now.UTC().Unix() / w * w
}

// Next returns the Unix start of the window immediately after the one
// containing now.
func Next(width time.Duration, now time.Time) int64 {
	w := int64(width / time.Second)
	return Current(width, now) + w
}

// UntilNext returns the duration from now until the next window boundary.
// The result is positive and never exceeds width.
func UntilNext(width time.Duration, now time.Time) time.Duration {
	next := time.Unix(Next(width, now), 0)
	return next.Sub(now.UTC())
}
