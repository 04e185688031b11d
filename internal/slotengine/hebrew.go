package slotengine

import (
	"fmt"
	"time"
)

// DateFormatter renders dates for a presentation locale.
type DateFormatter interface {
	// FormatDate renders a "YYYY-MM-DD" date as a long date string
	// (day, full month name, year).
	FormatDate(dateStr string) string
	// MonthYear renders a "long month name, year" header.
	MonthYear(year int, month time.Month) string
}

// HebrewFormatter formats Gregorian dates with Hebrew month names, matching
// the he-IL long date convention ("15 בינואר 2026").
type HebrewFormatter struct{}

var hebrewMonths = [...]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

// FormatDate renders "day בmonth year". Malformed dates are returned as-is.
func (HebrewFormatter) FormatDate(dateStr string) string {
	d, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return dateStr
	}
	return fmt.Sprintf("%d ב%s %d", d.Day(), hebrewMonths[d.Month()-1], d.Year())
}

// MonthYear renders "month year" for calendar headers.
func (HebrewFormatter) MonthYear(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", hebrewMonths[month-1], year)
}
