package slotengine

import (
	"errors"
	"fmt"
)

// SlotDuration is the fixed length of a bookable slot in minutes.
const SlotDuration = 10

// ErrInvalidTimeFormat is returned for strings that are not zero-padded
// 24-hour "HH:MM".
var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

// ParseTime converts a zero-padded 24-hour "HH:MM" string to minutes since
// midnight.
func ParseTime(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, ok := twoDigits(s[0], s[1])
	if !ok || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minute, ok := twoDigits(s[3], s[4])
	if !ok || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return hour*60 + minute, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// FormatTime renders non-negative minutes since midnight as "HH:MM".
// Hours are not clamped to 24: a value of 1450 yields "24:10". Callers that
// need a same-day time must pass a value below 1440.
func FormatTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
