// Package tzexpand evaluates the calendar expressions of tz source files:
// ON day expressions, UNTIL columns and the yearly occurrences of rules.
package tzexpand

import (
	"fmt"
	"sort"
	"time"

	"github.com/ngrash/tzperiod/internal/gregorian"
	"github.com/ngrash/tzperiod/tzdata"
)

// Moment is a calendar date with a time of day whose frame is given by Time.Form.
type Moment struct {
	Year  int
	Month time.Month
	Day   int
	Time  tzdata.Time
}

// Seconds returns the gregorian seconds of the moment, read as if its frame was universal time.
func (m Moment) Seconds() int64 {
	return gregorian.Seconds(m.Year, m.Month, m.Day, 0, 0, 0) + m.Time.Seconds()
}

// Earliest returns the earliest moment described by the UNTIL column u.
// Missing parts default to January, the first day of the month and 00:00 wall clock time.
func Earliest(u tzdata.Until) Moment {
	m := Moment{Year: u.Year, Month: time.January, Day: 1}
	if u.Parts.Has(tzdata.UntilMonth) {
		m.Month = u.Month
	}
	if u.Parts.Has(tzdata.UntilDay) {
		m.Year, m.Month, m.Day = DayOfMonth(m.Year, m.Month, u.Day)
	}
	if u.Parts.Has(tzdata.UntilTime) {
		m.Time = u.Time
	}
	return m
}

// DayOfMonth resolves the day expression d in the given month.
// The ">=" and "<=" forms may resolve to a day in the neighboring month or year.
func DayOfMonth(year int, month time.Month, d tzdata.Day) (int, time.Month, int) {
	switch d.Form {
	case tzdata.DayFormNum:
		return year, month, d.Num
	case tzdata.DayFormLast:
		return year, month, lastWeekdayOfMonth(year, month, d.Weekday)
	case tzdata.DayFormAfter:
		return nextWeekday(year, month, d.Num, d.Weekday)
	case tzdata.DayFormBefore:
		return lastWeekday(year, month, d.Num, d.Weekday)
	}
	panic(fmt.Errorf("invalid DayForm: %v", d.Form))
}

// ToUTC converts local gregorian seconds in the given frame to universal time.
// utcOff is the standard offset of the zone and save the daylight saving amount in effect.
func ToUTC(local int64, form tzdata.TimeForm, utcOff, save int64) int64 {
	switch form {
	case tzdata.UniversalTime:
		return local
	case tzdata.StandardTime:
		return local - utcOff
	default:
		return local - utcOff - save
	}
}

// Transition is one occurrence of a rule.
type Transition struct {
	Rule tzdata.Rule
	// At is the date of the occurrence with the rule's AT time.
	At Moment
}

// ExpandRules returns the occurrences of the rules in the years from through to, inclusive,
// ordered by date. Occurrences on the same date keep the order of rs.
func ExpandRules(rs []tzdata.Rule, from, to int) []Transition {
	var tr []Transition
	for _, r := range rs {
		tr = append(tr, expandRule(r, from, to)...)
	}
	sort.SliceStable(tr, func(i, j int) bool {
		return tr[i].At.Seconds() < tr[j].At.Seconds()
	})
	return tr
}

func expandRule(r tzdata.Rule, from, to int) []Transition {
	first, last := from, to
	if r.From != tzdata.MinYear && int(r.From) > first {
		first = int(r.From)
	}
	if r.To != tzdata.MaxYear && int(r.To) < last {
		last = int(r.To)
	}

	var tr []Transition
	for year := first; year <= last; year++ {
		y, m, d := DayOfMonth(year, r.In, r.On)
		tr = append(tr, Transition{
			Rule: r,
			At:   Moment{Year: y, Month: m, Day: d, Time: r.At},
		})
	}
	return tr
}

// FirstYear returns the earliest FROM year of the rules, or false if rs is empty
// or a rule starts in the indefinite past.
func FirstYear(rs []tzdata.Rule) (int, bool) {
	if len(rs) == 0 {
		return 0, false
	}
	y := rs[0].From
	for _, r := range rs {
		y = min(y, r.From)
	}
	if y == tzdata.MinYear {
		return 0, false
	}
	return int(y), true
}
