package menu

import "time"

// maxFallbackDays is how many earlier weekdays are tried when the menu
// for the requested day is missing.
const maxFallbackDays = 5

// IsWeekend reports whether the day is a Saturday or Sunday.
func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// ISODate formats a day as YYYY-MM-DD.
func ISODate(day time.Time) string {
	return day.Format("2006-01-02")
}

// HumanDate formats a day for post captions.
func HumanDate(day time.Time) string {
	return day.Format("Monday, 02 January 2006")
}

// CandidateDates returns the dates to try for a request on today,
// newest first: today itself (when includeToday is set and today is a
// weekday) followed by up to maxFallbackDays previous weekdays. The
// result is never empty.
func CandidateDates(today time.Time, includeToday bool) []time.Time {
	today = Day(today)

	var dates []time.Time
	if includeToday && !IsWeekend(today) {
		dates = append(dates, today)
	}

	needed := maxFallbackDays + len(dates)
	current := today.AddDate(0, 0, -1)
	for attempts := 0; len(dates) < needed && attempts < 21; attempts++ {
		if !IsWeekend(current) {
			dates = append(dates, current)
		}
		current = current.AddDate(0, 0, -1)
	}

	if len(dates) == 0 {
		fallback := today
		for IsWeekend(fallback) {
			fallback = fallback.AddDate(0, 0, -1)
		}
		dates = append(dates, fallback)
	}

	return dates
}
