package utils

import "time"

// UnixMillis converts t to epoch milliseconds; the zero time maps to 0
func UnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMillis converts epoch milliseconds to UTC; 0 maps to the zero time
func FromUnixMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
