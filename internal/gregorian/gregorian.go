// Package gregorian converts calendar dates to gregorian seconds, the number of
// seconds since 0000-01-01 00:00:00 in the proleptic Gregorian calendar.
//
// Like the time package it ignores leap seconds, but it does not depend on
// time.Location: it is a low-level utility for building zone data that a
// time.Location would be made from.
package gregorian

import "time"

// UnixEpoch is 1970-01-01 00:00:00 in gregorian seconds.
const UnixEpoch int64 = 62167219200

// Seconds returns the gregorian seconds of the given date and time of day.
// Out of range values are normalized the way time.Date normalizes them, so
// hour 24 is midnight of the next day and a negative second reaches into the
// previous day.
func Seconds(year int, month time.Month, day int, hour, minute, second int) int64 {
	d := Days(year, month, day)
	return d*secondsPerDay + int64(hour)*secondsPerHour + int64(minute)*secondsPerMinute + int64(second)
}

// Days returns the number of days from 0000-01-01 to the given date.
// The day may be outside the month: day 0 is the last day of the previous month.
func Days(year int, month time.Month, day int) int64 {
	// Normalize the month into [1, 12], carrying into the year.
	m := int(month) - 1
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}

	d := int64(daysSinceEpoch(year)-daysSinceEpoch(0)) + int64(daysBefore[m]) + int64(day-1)
	if m >= int(time.March)-1 && IsLeapYear(year) {
		d++ // leap day
	}
	return d
}

// FromTime returns the gregorian seconds of t.
func FromTime(t time.Time) int64 {
	return t.Unix() + UnixEpoch
}

// ToTime returns the UTC time of the given gregorian seconds.
func ToTime(secs int64) time.Time {
	return time.Unix(secs-UnixEpoch, 0).UTC()
}

// Weekday returns the day of the week of the given date.
func Weekday(year int, month time.Month, day int) time.Weekday {
	// 0000-01-01 was a Saturday.
	wd := (Days(year, month, day) + int64(time.Saturday)) % 7
	if wd < 0 {
		wd += 7
	}
	return time.Weekday(wd)
}

// IsLeapYear reports whether year is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	if month == time.February {
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return int(daysBefore[month] - daysBefore[month-1])
}

// The constants were copied from time.go in the Go standard library's time package.
const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	daysPer400Years  = 365*400 + 97
	daysPer100Years  = 365*100 + 24
	daysPer4Years    = 365*4 + 1

	absoluteZeroYear = -292277022399
)

// daysBefore[m] counts the number of days in a non-leap year
// before month m begins.
var daysBefore = [...]int32{
	0,
	31,
	31 + 28,
	31 + 28 + 31,
	31 + 28 + 31 + 30,
	31 + 28 + 31 + 30 + 31,
	31 + 28 + 31 + 30 + 31 + 30,
	31 + 28 + 31 + 30 + 31 + 30 + 31,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30 + 31,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30 + 31 + 30,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30 + 31 + 30 + 31,
}

// daysSinceEpoch takes a year and returns the number of days from
// the absolute epoch to the start of that year.
// This is basically (year - zeroYear) * 365, but accounting for leap days.
//
// This function was copied from time.go in the Go standard library time package.
func daysSinceEpoch(year int) uint64 {
	y := uint64(int64(year) - absoluteZeroYear)

	// Add in days from 400-year cycles.
	n := y / 400
	y -= 400 * n
	d := daysPer400Years * n

	// Add in 100-year cycles.
	n = y / 100
	y -= 100 * n
	d += daysPer100Years * n

	// Add in 4-year cycles.
	n = y / 4
	y -= 4 * n
	d += daysPer4Years * n

	// Add in non-leap years.
	n = y
	d += 365 * n

	return d
}
