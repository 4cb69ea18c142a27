package tzexpand

import (
	"time"

	"github.com/ngrash/tzperiod/internal/gregorian"
)

// lastWeekdayOfMonth finds the last instance of a given weekday in a specific month and year.
func lastWeekdayOfMonth(year int, month time.Month, weekday time.Weekday) int {
	lastDay := gregorian.DaysIn(year, month)
	lastDayWeekday := gregorian.Weekday(year, month, lastDay)

	// Calculate how many days to subtract from the last day to get the last instance of the given weekday.
	offset := (int(lastDayWeekday) - int(weekday) + 7) % 7
	return lastDay - offset
}

// nextWeekday calculates the next occurrence of a weekday on or after a given day in the specified month and year,
// accounting for overflow into the next month or year.
func nextWeekday(year int, month time.Month, day int, target time.Weekday) (int, time.Month, int) {
	diff := int(target) - int(gregorian.Weekday(year, month, day))
	if diff < 0 {
		diff += 7
	}

	next := day + diff
	if n := gregorian.DaysIn(year, month); next > n {
		next -= n
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return year, month, next
}

// lastWeekday finds the last occurrence of a given weekday before or on a given day in the specified month and year,
// accounting for overflow into the previous month or year.
func lastWeekday(year int, month time.Month, day int, target time.Weekday) (int, time.Month, int) {
	diff := int(gregorian.Weekday(year, month, day)) - int(target)
	if diff < 0 {
		diff += 7
	}

	last := day - diff
	if last < 1 {
		month--
		if month < time.January {
			month = time.December
			year--
		}
		last += gregorian.DaysIn(year, month)
	}
	return year, month, last
}
