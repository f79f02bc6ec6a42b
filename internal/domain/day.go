package domain

import "time"

// Day normalizes a timestamp to the start of its UTC calendar day.
// All booking comparisons and storage happen at day granularity.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween enumerates every day in the half-open range [checkIn, checkOut).
// Both bounds are normalized first. Returns nil when the range is empty or
// inverted.
func DaysBetween(checkIn, checkOut time.Time) []time.Time {
	start := Day(checkIn)
	end := Day(checkOut)
	if !start.Before(end) {
		return nil
	}
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Nights counts the whole nights covered by [checkIn, checkOut).
func Nights(checkIn, checkOut time.Time) int {
	return len(DaysBetween(checkIn, checkOut))
}
