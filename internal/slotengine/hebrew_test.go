package slotengine

import (
	"testing"
	"time"
)

func TestHebrewFormatDate(t *testing.T) {
	f := HebrewFormatter{}

	tests := []struct {
		input    string
		expected string
	}{
		{"2024-02-01", "1 בפברואר 2024"},
		{"2026-01-15", "15 בינואר 2026"},
		{"2025-12-31", "31 בדצמבר 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := f.FormatDate(tt.input); got != tt.expected {
				t.Errorf("FormatDate(%q): expected %q, got %q", tt.input, tt.expected, got)
			}
		})
	}

	// Malformed input is passed through untouched.
	if got := f.FormatDate("garbage"); got != "garbage" {
		t.Errorf("malformed date: expected passthrough, got %q", got)
	}
}

func TestHebrewMonthYear(t *testing.T) {
	f := HebrewFormatter{}

	if got := f.MonthYear(2024, time.February); got != "פברואר 2024" {
		t.Errorf("MonthYear: got %q", got)
	}
	if got := f.MonthYear(2026, time.August); got != "אוגוסט 2026" {
		t.Errorf("MonthYear: got %q", got)
	}
}
