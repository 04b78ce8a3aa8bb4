// Package util contains misc internal utilities.
package util

import (
	"time"
	"unicode"
)

// SecsToDuration converts a floating point number of seconds to a Duration
func SecsToDuration(secs float64) time.Duration {
	return time.Duration(secs * 1e9)
}

// AllElementsNumbers returns true if every rune in the string is a digit
// or a decimal point
func AllElementsNumbers(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}

// IntSliceContains returns true if is contains v
func IntSliceContains(is []int, v int) bool {
	for _, i := range is {
		if i == v {
			return true
		}
	}
	return false
}
