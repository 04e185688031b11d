package slotengine

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Month groups the calendar days of one month as "YYYY-MM-DD" strings.
type Month struct {
	Year      int
	Month     time.Month
	Dates     []string
	StartDate string
	EndDate   string
}

// MonthDates enumerates every calendar day of the given month in local time.
func MonthDates(year int, month time.Month) Month {
	days := daysIn(month, year)
	dates := make([]string, 0, days)
	for day := 1; day <= days; day++ {
		dates = append(dates, fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
	}
	return Month{
		Year:      year,
		Month:     month,
		Dates:     dates,
		StartDate: dates[0],
		EndDate:   dates[len(dates)-1],
	}
}

// CurrentMonthDates returns MonthDates for the current local month.
func CurrentMonthDates() Month {
	now := time.Now()
	return MonthDates(now.Year(), now.Month())
}

// IsDateInPast reports whether a "YYYY-MM-DD" date is strictly before today
// at local midnight. Only the date portion is compared; malformed dates are
// not considered past.
func IsDateInPast(dateStr string) bool {
	d, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return d.Before(today)
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
