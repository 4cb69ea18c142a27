package tzexpand

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ngrash/tzperiod/internal/gregorian"
	"github.com/ngrash/tzperiod/tzdata"
)

func dayNum(n int) tzdata.Day { return tzdata.Day{Form: tzdata.DayFormNum, Num: n} }
func dayLast(wd time.Weekday) tzdata.Day {
	return tzdata.Day{Form: tzdata.DayFormLast, Weekday: wd}
}
func dayAfter(n int, wd time.Weekday) tzdata.Day {
	return tzdata.Day{Form: tzdata.DayFormAfter, Num: n, Weekday: wd}
}
func dayBefore(n int, wd time.Weekday) tzdata.Day {
	return tzdata.Day{Form: tzdata.DayFormBefore, Num: n, Weekday: wd}
}

func TestDayOfMonth(t *testing.T) {
	type in struct {
		Year  int
		Month time.Month
		Day   tzdata.Day
	}
	type want struct {
		Year  int
		Month time.Month
		Day   int
	}
	cases := []struct {
		in   in
		want want
	}{
		{in{2021, time.March, dayNum(23)}, want{2021, time.March, 23}},
		{in{2021, time.March, dayLast(time.Sunday)}, want{2021, time.March, 28}},

		// Leap day
		{in{2020, time.February, dayAfter(28, time.Saturday)}, want{2020, time.February, 29}},
		{in{2020, time.February, dayLast(time.Saturday)}, want{2020, time.February, 29}},
		// Day Leap day in a non-leap year
		{in{2021, time.February, dayAfter(28, time.Saturday)}, want{2021, time.March, 6}},

		// Day of week is on the exact day of month
		{in{2021, time.March, dayAfter(28, time.Sunday)}, want{2021, time.March, 28}},
		// Day of week is later in the same month
		{in{2021, time.March, dayAfter(15, time.Sunday)}, want{2021, time.March, 21}},
		// Day of week is next month
		{in{2021, time.March, dayAfter(30, time.Sunday)}, want{2021, time.April, 4}},
		// Day of week is next year
		{in{2021, time.December, dayAfter(30, time.Sunday)}, want{2022, time.January, 2}},

		// Day of week is on the exact day of month
		{in{2021, time.March, dayBefore(28, time.Sunday)}, want{2021, time.March, 28}},
		// Day of week is earlier in the same month
		{in{2021, time.March, dayBefore(15, time.Sunday)}, want{2021, time.March, 14}},
		// Day of week is last month
		{in{2021, time.March, dayBefore(5, time.Sunday)}, want{2021, time.February, 28}},
		// Day of week is last year
		{in{2021, time.January, dayBefore(2, time.Sunday)}, want{2020, time.December, 27}},

		// US rules
		{in{2006, time.October, dayLast(time.Sunday)}, want{2006, time.October, 29}},
		{in{2007, time.March, dayAfter(8, time.Sunday)}, want{2007, time.March, 11}},
		{in{2007, time.November, dayAfter(1, time.Sunday)}, want{2007, time.November, 4}},
	}

	for _, c := range cases {
		y, m, d := DayOfMonth(c.in.Year, c.in.Month, c.in.Day)
		got := want{y, m, d}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("DayOfMonth(%+v) mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestEarliest(t *testing.T) {
	cases := []struct {
		name string
		in   tzdata.Until
		want Moment
	}{
		{
			name: "year only",
			in:   tzdata.Until{Defined: true, Parts: tzdata.UntilYear, Year: 1981},
			want: Moment{Year: 1981, Month: time.January, Day: 1},
		},
		{
			name: "year and month",
			in:   tzdata.Until{Defined: true, Parts: tzdata.UntilMonth, Year: 1894, Month: time.June},
			want: Moment{Year: 1894, Month: time.June, Day: 1},
		},
		{
			name: "day expression",
			in:   tzdata.Until{Defined: true, Parts: tzdata.UntilDay, Year: 1981, Month: time.March, Day: dayLast(time.Sunday)},
			want: Moment{Year: 1981, Month: time.March, Day: 29},
		},
		{
			name: "full",
			in: tzdata.Until{Defined: true, Parts: tzdata.UntilTime, Year: 1942, Month: time.November, Day: dayNum(2),
				Time: tzdata.Time{Duration: 2 * time.Hour, Form: tzdata.StandardTime}},
			want: Moment{Year: 1942, Month: time.November, Day: 2, Time: tzdata.Time{Duration: 2 * time.Hour, Form: tzdata.StandardTime}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Earliest(c.in)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("Earliest(%+v) mismatch (-want +got):\n%s", c.in, diff)
			}
		})
	}
}

func TestMomentSeconds(t *testing.T) {
	m := Moment{Year: 2006, Month: time.October, Day: 29, Time: tzdata.Time{Duration: 24 * time.Hour}}
	if got, want := m.Seconds(), gregorian.Seconds(2006, time.October, 30, 0, 0, 0); got != want {
		t.Errorf("Moment.Seconds() = %d, want %d", got, want)
	}
}

func TestToUTC(t *testing.T) {
	const local = 1000000
	cases := []struct {
		form tzdata.TimeForm
		want int64
	}{
		{tzdata.UniversalTime, local},
		{tzdata.StandardTime, local + 6*3600},
		{tzdata.WallClock, local + 5*3600},
	}
	for _, c := range cases {
		if got := ToUTC(local, c.form, -6*3600, 3600); got != c.want {
			t.Errorf("ToUTC(%d, %v, -6h, 1h) = %d, want %d", local, c.form, got, c.want)
		}
	}
}

func TestExpandRules(t *testing.T) {
	euSpring := tzdata.Rule{
		Name:   "EU",
		From:   1981,
		To:     tzdata.MaxYear,
		ToForm: tzdata.ToMax,
		In:     time.March,
		On:     dayLast(time.Sunday),
		At:     tzdata.Time{Duration: time.Hour, Form: tzdata.UniversalTime},
		Save:   tzdata.Time{Duration: time.Hour, Form: tzdata.DaylightSavingTime},
		Letter: "S",
	}
	euFall := tzdata.Rule{
		Name: "EU",
		From: 1979,
		To:   1995,
		In:   time.September,
		On:   dayLast(time.Sunday),
		At:   tzdata.Time{Duration: time.Hour, Form: tzdata.UniversalTime},
		Save: tzdata.Time{Form: tzdata.StandardTime},
	}
	at := func(y int, m time.Month, d int) Moment {
		return Moment{Year: y, Month: m, Day: d, Time: tzdata.Time{Duration: time.Hour, Form: tzdata.UniversalTime}}
	}

	cases := []struct {
		name     string
		from, to int
		in       []tzdata.Rule
		want     []Transition
	}{
		{
			name: "single year within range",
			from: 1981, to: 1981,
			in: []tzdata.Rule{euFall, euSpring},
			want: []Transition{
				{Rule: euSpring, At: at(1981, time.March, 29)},
				{Rule: euFall, At: at(1981, time.September, 27)},
			},
		},
		{
			name: "range clipped by rule years",
			from: 1970, to: 1982,
			in: []tzdata.Rule{euSpring},
			want: []Transition{
				{Rule: euSpring, At: at(1981, time.March, 29)},
				{Rule: euSpring, At: at(1982, time.March, 28)},
			},
		},
		{
			name: "rule outside range",
			from: 1996, to: 1999,
			in:   []tzdata.Rule{euFall},
			want: nil,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExpandRules(c.in, c.from, c.to)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("ExpandRules() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFirstYear(t *testing.T) {
	rs := []tzdata.Rule{{From: 1996}, {From: 1977}, {From: 1981}}
	if got, ok := FirstYear(rs); !ok || got != 1977 {
		t.Errorf("FirstYear() = %d, %v, want 1977, true", got, ok)
	}
	if _, ok := FirstYear(append(rs, tzdata.Rule{From: tzdata.MinYear})); ok {
		t.Errorf("FirstYear() with MinYear rule reported a year")
	}
	if _, ok := FirstYear(nil); ok {
		t.Errorf("FirstYear(nil) reported a year")
	}
}
