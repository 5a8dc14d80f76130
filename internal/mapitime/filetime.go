// Package mapitime converts between Windows FILETIME (100-ns ticks since
// 1601-01-01 UTC) and Go's time.Time.
package mapitime

import "time"

// filetimeEpochOffset is the number of 100-ns intervals between the
// FILETIME epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const filetimeEpochOffset = 116444736000000000

// ticksPerSecond is the number of 100-ns ticks in one second.
const ticksPerSecond = 10000000

// ToTime converts a FILETIME value to an instant. A zero FILETIME means
// "unset"; callers must check for it before calling ToTime if they need
// to preserve the distinction (ToTime itself just returns the Unix
// epoch for ft == 0, which is usually not the desired behavior).
func ToTime(ft uint64) time.Time {
	ticksSinceUnixEpoch := int64(ft) - filetimeEpochOffset
	sec := ticksSinceUnixEpoch / ticksPerSecond
	rem := ticksSinceUnixEpoch % ticksPerSecond
	nsec := rem * 100
	return time.Unix(sec, nsec).UTC()
}

// FromTime converts an instant to a FILETIME value.
func FromTime(t time.Time) uint64 {
	t = t.UTC()
	sec := t.Unix()
	nsec := int64(t.Nanosecond())
	ticks := sec*ticksPerSecond + nsec/100
	return uint64(ticks + filetimeEpochOffset)
}

// OptionalTime wraps ToTime, returning (time.Time{}, false) for the
// sentinel "unset" value 0, matching the design's requirement that a
// zero FILETIME survive as a null/optional on the outbound side.
func OptionalTime(ft uint64) (time.Time, bool) {
	if ft == 0 {
		return time.Time{}, false
	}
	return ToTime(ft), true
}

// OptionalFromTime is the inverse of OptionalTime.
func OptionalFromTime(t time.Time, ok bool) uint64 {
	if !ok {
		return 0
	}
	return FromTime(t)
}
