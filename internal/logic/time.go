package logic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default round duration.
const (
	DefaultMinutes = 1
	DefaultSeconds = 0
)

const (
	secondsPerMinute = 60
	tenthsPerSecond  = 10
	quarterSeconds   = 15
)

// Time is a countdown value in minutes, seconds and tenths of a second.
type Time struct {
	Minutes int
	Seconds int
	Tenths  int
}

// DefaultRoundTime is the round duration used after a reset.
var DefaultRoundTime = Time{Minutes: DefaultMinutes, Seconds: DefaultSeconds}

// Reset sets t to the default round duration.
func (t *Time) Reset() {
	*t = DefaultRoundTime
}

// IsZero reports whether all fields are zero.
func (t Time) IsZero() bool {
	return t.Minutes == 0 && t.Seconds == 0 && t.Tenths == 0
}

// TotalSeconds returns minutes*60 + seconds. Tenths are ignored.
func (t Time) TotalSeconds() int {
	return t.Minutes*secondsPerMinute + t.Seconds
}

// TotalTenths returns the number of ticks needed to count t down to zero.
func (t Time) TotalTenths() int {
	return t.TotalSeconds()*tenthsPerSecond + t.Tenths
}

// Duration converts t to a time.Duration.
func (t Time) Duration() time.Duration {
	return time.Duration(t.TotalTenths()) * 100 * time.Millisecond
}

// Tick counts down one tenth of a second. A zero value is left alone.
//
// When the tenths digit is already 0 the seconds digit is borrowed first and
// only then is tenths set to 9, so 14.1 -> 14.0 -> 13.9 and 0.1 -> 0.0 with
// no skipped or repeated tenth.
func (t *Time) Tick(maxSeconds int) {
	if t.IsZero() {
		return
	}
	if t.Tenths > 0 {
		t.Tenths--
		return
	}
	t.DecrementSeconds(maxSeconds)
	t.Tenths = tenthsPerSecond - 1
}

// IncrementSeconds adds one second, carrying into minutes.
func (t *Time) IncrementSeconds() {
	t.Seconds++
	if t.Seconds >= secondsPerMinute {
		t.Seconds = 0
		t.Minutes++
	}
}

// DecrementSeconds removes one second. Borrowing a minute sets seconds to
// maxSeconds-1. At 0:00 (ignoring tenths) it is a no-op.
func (t *Time) DecrementSeconds(maxSeconds int) {
	switch {
	case t.Seconds == 0 && t.Minutes == 0:
		return
	case t.Seconds == 0:
		t.Minutes--
		t.Seconds = max(maxSeconds, 1) - 1
	default:
		t.Seconds--
	}
}

// IncrementQuarter adds 15 seconds, carrying into minutes.
func (t *Time) IncrementQuarter() {
	t.Seconds += quarterSeconds
	if t.Seconds >= secondsPerMinute {
		t.Seconds -= secondsPerMinute
		t.Minutes++
	}
}

// DecrementQuarter removes 15 seconds. Below 0:15 it clamps to zero.
func (t *Time) DecrementQuarter() {
	switch {
	case t.Minutes == 0 && t.Seconds < quarterSeconds:
		*t = Time{}
	case t.Seconds < quarterSeconds:
		t.Minutes--
		t.Seconds += secondsPerMinute - quarterSeconds
	default:
		t.Seconds -= quarterSeconds
	}
}

// IncrementMinutes adds one minute.
func (t *Time) IncrementMinutes() {
	t.Minutes++
}

// DecrementMinutes removes one minute, never going below zero.
func (t *Time) DecrementMinutes() {
	if t.Minutes > 0 {
		t.Minutes--
	}
}

// Clock formats t as m:ss.
func (t Time) Clock() string {
	return fmt.Sprintf("%d:%02d", t.Minutes, t.Seconds)
}

// String formats t as m:ss.t.
func (t Time) String() string {
	return fmt.Sprintf("%d:%02d.%d", t.Minutes, t.Seconds, t.Tenths)
}

// ParseTime parses "m:ss" or a bare number of seconds ("90").
// Seconds >= 60 in the bare form are normalized into minutes.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, fmt.Errorf("parse time: empty value")
	}

	mins, secs, found := strings.Cut(s, ":")
	if !found {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Time{}, fmt.Errorf("parse time %q: want m:ss or seconds", s)
		}
		return Time{Minutes: n / secondsPerMinute, Seconds: n % secondsPerMinute}, nil
	}

	m, err := strconv.Atoi(mins)
	if err != nil || m < 0 {
		return Time{}, fmt.Errorf("parse time %q: bad minutes", s)
	}
	sec, err := strconv.Atoi(secs)
	if err != nil || sec < 0 || sec >= secondsPerMinute {
		return Time{}, fmt.Errorf("parse time %q: bad seconds", s)
	}
	return Time{Minutes: m, Seconds: sec}, nil
}
