// Package util contains misc internal utilities.
package util

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Arange mimics np.arange, returning float64s from start to stop
// (exclusive) spaced by step.  The last element may overshoot stop by less
// than one step when step does not evenly divide stop-start.  step may be
// negative, in which case the sequence descends.  A zero step returns nil.
func Arange(start, stop, step float64) []float64 {
	if step == 0 {
		return nil
	}
	n := int((stop - start) / step)
	if n < 0 {
		return nil
	}
	out := make([]float64, 0, n+1)
	if step > 0 {
		for v := start; v < stop; v += step {
			out = append(out, v)
		}
	} else {
		for v := start; v > stop; v += step {
			out = append(out, v)
		}
	}
	return out
}

// Clamp restricts x to the range [low, high]
func Clamp(x, low, high float64) float64 {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}

// Limiter is a pair of soft limits on a value
type Limiter struct {
	// Min is the lower limit
	Min float64 `yaml:"Min"`

	// Max is the upper limit
	Max float64 `yaml:"Max"`
}

// Check returns true if Min <= x <= Max.  The zero value of Limiter
// admits only zero; populate both fields.
func (l Limiter) Check(x float64) bool {
	return x >= l.Min && x <= l.Max
}

// IntSliceToCSV converts a slice of ints to CSV formatted data.
// e.g., []int{1,2,3,4,5} => "1,2,3,4,5"
func IntSliceToCSV(is []int) string {
	s := make([]string, len(is))
	for i, v := range is {
		s[i] = strconv.Itoa(v)
	}

	return strings.Join(s, ",")
}

// FloatSliceToCSV converts a slice of floats to CSV formatted data,
// formatting each element as strconv.FormatFloat with the given verb
// and precision
func FloatSliceToCSV(fs []float64, verb byte, prec int) string {
	s := make([]string, len(fs))
	for i, v := range fs {
		s[i] = strconv.FormatFloat(v, verb, prec, 64)
	}

	return strings.Join(s, ",")
}

// SecsToDuration converts a floating point number of seconds to a Duration
func SecsToDuration(secs float64) time.Duration {
	return time.Duration(secs * 1e9)
}

// AllElementsNumbers returns true if all the runes in a string are digits
// or a decimal point
func AllElementsNumbers(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}
