package tzdata

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_ExtendedExample(t *testing.T) {
	var input = strings.TrimSpace(`
# Rule  NAME  FROM  TO    -  IN   ON       AT    SAVE  LETTER/S
Rule    Swiss 1941  1942  -  May  Mon>=1   1:00  1:00  S
Rule    Swiss 1941  1942  -  Oct  Mon>=1   2:00  0     -
Rule    EU    1977  1980  -  Apr  Sun>=1   1:00u 1:00  S
Rule    EU    1977  only  -  Sep  lastSun  1:00u 0     -
Rule    EU    1978  only  -  Oct   1       1:00u 0     -
Rule    EU    1979  1995  -  Sep  lastSun  1:00u 0     -
Rule    EU    1981  max   -  Mar  lastSun  1:00u 1:00  S
Rule    EU    1996  max   -  Oct  lastSun  1:00u 0     -

# Zone  NAME           STDOFF      RULES  FORMAT  [UNTIL]
Zone    Europe/Zurich  0:34:08     -      LMT     1853 Jul 16
						0:29:45.50  -      BMT     1894 Jun
						1:00        Swiss  CE%sT   1981
						1:00        EU     CE%sT

Link    Europe/Zurich  Europe/Vaduz
`)

	got, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	hour := func(h time.Duration, f TimeForm) Time { return Time{Duration: h * time.Hour, Form: f} }
	want := File{
		Rules: []Rule{
			{Name: "Swiss", From: 1941, To: 1942, In: time.May, On: Day{Form: DayFormAfter, Weekday: time.Monday, Num: 1}, At: hour(1, WallClock), Save: hour(1, DaylightSavingTime), Letter: "S"},
			{Name: "Swiss", From: 1941, To: 1942, In: time.October, On: Day{Form: DayFormAfter, Weekday: time.Monday, Num: 1}, At: hour(2, WallClock), Save: hour(0, StandardTime), Letter: ""},
			{Name: "EU", From: 1977, To: 1980, In: time.April, On: Day{Form: DayFormAfter, Weekday: time.Sunday, Num: 1}, At: hour(1, UniversalTime), Save: hour(1, DaylightSavingTime), Letter: "S"},
			{Name: "EU", From: 1977, To: 1977, ToForm: ToOnly, In: time.September, On: Day{Form: DayFormLast, Weekday: time.Sunday}, At: hour(1, UniversalTime), Save: hour(0, StandardTime), Letter: ""},
			{Name: "EU", From: 1978, To: 1978, ToForm: ToOnly, In: time.October, On: Day{Form: DayFormNum, Num: 1}, At: hour(1, UniversalTime), Save: hour(0, StandardTime), Letter: ""},
			{Name: "EU", From: 1979, To: 1995, In: time.September, On: Day{Form: DayFormLast, Weekday: time.Sunday}, At: hour(1, UniversalTime), Save: hour(0, StandardTime), Letter: ""},
			{Name: "EU", From: 1981, To: MaxYear, ToForm: ToMax, In: time.March, On: Day{Form: DayFormLast, Weekday: time.Sunday}, At: hour(1, UniversalTime), Save: hour(1, DaylightSavingTime), Letter: "S"},
			{Name: "EU", From: 1996, To: MaxYear, ToForm: ToMax, In: time.October, On: Day{Form: DayFormLast, Weekday: time.Sunday}, At: hour(1, UniversalTime), Save: hour(0, StandardTime), Letter: ""},
		},
		Zones: []Zone{
			{
				Name: "Europe/Zurich",
				Lines: []ZoneLine{
					{Offset: 34*time.Minute + 8*time.Second, Rules: ZoneRules{Form: ZoneRulesStandard}, Format: "LMT", Until: Until{Defined: true, Year: 1853, Month: time.July, Day: Day{Form: DayFormNum, Num: 16}, Parts: UntilDay}},
					{Offset: 29*time.Minute + 45*time.Second + 500*time.Millisecond, Rules: ZoneRules{Form: ZoneRulesStandard}, Format: "BMT", Until: Until{Defined: true, Year: 1894, Month: time.June, Parts: UntilMonth}},
					{Offset: 1 * time.Hour, Rules: ZoneRules{Form: ZoneRulesName, Name: "Swiss"}, Format: "CE%sT", Until: Until{Defined: true, Year: 1981, Parts: UntilYear}},
					{Offset: 1 * time.Hour, Rules: ZoneRules{Form: ZoneRulesName, Name: "EU"}, Format: "CE%sT"},
				},
			},
		},
		Links: []Link{
			{From: "Europe/Zurich", To: "Europe/Vaduz"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Leap(t *testing.T) {
	var input = strings.TrimSpace(`
Leap  2016  Dec    31   23:59:60  +     S
Expires  2020  Dec    28   00:00:00
`)
	got, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	want := File{
		Leaps: []Leap{
			{Year: 2016, Month: time.December, Day: 31, Time: HMS{23, 59, 60}, Corr: LeapAdded, Mode: StationaryLeapTime},
		},
		Expires: []Expires{
			{Year: 2020, Month: time.December, Day: 28, Time: HMS{0, 0, 0}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLine_ZoneShapes(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Directive
	}{
		{
			name: "head with until",
			line: "Zone America/Chicago -5:50:36 - LMT 1883 Nov 18 12:09:24",
			want: ZoneHead{Name: "America/Chicago", Line: ZoneLine{
				Offset: -(5*time.Hour + 50*time.Minute + 36*time.Second),
				Rules:  ZoneRules{Form: ZoneRulesStandard},
				Format: "LMT",
				Until: Until{Defined: true, Parts: UntilTime, Year: 1883, Month: time.November,
					Day: Day{Form: DayFormNum, Num: 18}, Time: Time{Duration: 12*time.Hour + 9*time.Minute + 24*time.Second}},
			}},
		},
		{
			name: "head without until",
			line: "Zone\tEtc/UTC\t0\t-\tUTC",
			want: ZoneHead{Name: "Etc/UTC", Line: ZoneLine{Rules: ZoneRules{Form: ZoneRulesStandard}, Format: "UTC"}},
		},
		{
			name: "continuation with until",
			line: "\t\t\t-5:00\t-\tEST\t1936 Nov 15  2:00",
			want: ZoneContinuation{Line: ZoneLine{
				Offset: -5 * time.Hour,
				Rules:  ZoneRules{Form: ZoneRulesStandard},
				Format: "EST",
				Until: Until{Defined: true, Parts: UntilTime, Year: 1936, Month: time.November,
					Day: Day{Form: DayFormNum, Num: 15}, Time: Time{Duration: 2 * time.Hour}},
			}},
		},
		{
			name: "continuation without until",
			line: "                        -6:00   US      C%sT",
			want: ZoneContinuation{Line: ZoneLine{Offset: -6 * time.Hour, Rules: ZoneRules{Form: ZoneRulesName, Name: "US"}, Format: "C%sT"}},
		},
		{
			name: "continuation with fixed save",
			line: "\t1:00\t1:00\tCEST\t1945 Apr  2 2:00s",
			want: ZoneContinuation{Line: ZoneLine{
				Offset: time.Hour,
				Rules:  ZoneRules{Form: ZoneRulesTime, Save: Time{Duration: time.Hour, Form: DaylightSavingTime}},
				Format: "CEST",
				Until: Until{Defined: true, Parts: UntilTime, Year: 1945, Month: time.April,
					Day: Day{Form: DayFormNum, Num: 2}, Time: Time{Duration: 2 * time.Hour, Form: StandardTime}},
			}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseLine(c.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", c.line, err)
			}
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", c.line, diff)
			}
		})
	}
}

func TestParseLine_Blank(t *testing.T) {
	for _, line := range []string{"", "   ", "# comment", "\t# indented comment"} {
		got, err := ParseLine(line)
		if err != nil || got != nil {
			t.Errorf("ParseLine(%q) = %v, %v, want nil, nil", line, got, err)
		}
	}
}

func TestParseLine_NoMatch(t *testing.T) {
	_, err := ParseLine("Foo bar baz")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("ParseLine() error = %v, want ErrNoMatch", err)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"unknown keyword", "Rule EU 1981 max - Mar lastSun 1:00u 1:00 S\nBogus line here", 2},
		{"bad rule month", "Rule EU 1981 max - Foo lastSun 1:00u 1:00 S", 1},
		{"continuation without zone", "\t1:00 EU CE%sT", 1},
		{"missing continuation", "Zone Europe/Zurich 0:34:08 - LMT 1853 Jul 16\nRule EU 1981 max - Mar lastSun 1:00u 1:00 S", 2},
		{"truncated zone", "Zone Europe/Zurich 0:34:08 - LMT 1853 Jul 16", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseFile("europe", strings.NewReader(c.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("ParseFile() error = %v, want *ParseError", err)
			}
			if perr.LineNumber != c.wantLine {
				t.Errorf("ParseError.LineNumber = %d, want %d", perr.LineNumber, c.wantLine)
			}
			if perr.File != "europe" {
				t.Errorf("ParseError.File = %q, want %q", perr.File, "europe")
			}
		})
	}
}

func TestParseUntil(t *testing.T) {
	cases := []struct {
		input string
		want  Until
	}{
		{"1981", Until{Defined: true, Year: 1981, Parts: UntilYear}},
		{"1981 Mar", Until{Defined: true, Year: 1981, Month: time.March, Parts: UntilMonth}},
		{"1981 Mar lastSun", Until{Defined: true, Year: 1981, Month: time.March, Day: Day{Form: DayFormLast, Weekday: time.Sunday}, Parts: UntilDay}},
		{"1981 Mar lastSun 1:00u", Until{Defined: true, Year: 1981, Month: time.March, Day: Day{Form: DayFormLast, Weekday: time.Sunday}, Time: Time{time.Hour, UniversalTime}, Parts: UntilTime}},
		{"1942 Nov  2 2:00s", Until{Defined: true, Year: 1942, Month: time.November, Day: Day{Form: DayFormNum, Num: 2}, Time: Time{2 * time.Hour, StandardTime}, Parts: UntilTime}},
	}

	for _, c := range cases {
		got, err := parseUntil(strings.Join(strings.Fields(c.input), " "))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("parseUntil(%q) mismatch (-want +got):\n%s", c.input, diff)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"0", 0},
		{"-", 0},
		{"2", 2 * time.Hour},
		{"1:00", time.Hour},
		{"01:28:14", time.Hour + 28*time.Minute + 14*time.Second},
		{"00:19:32.13", 19*time.Minute + 32*time.Second + 130*time.Millisecond},
		{"24:00", 24 * time.Hour},
		{"260:00", 260 * time.Hour},
		{"-2:30", -(2*time.Hour + 30*time.Minute)},
		{"-0:01:15", -(time.Minute + 15*time.Second)},
		{"0:50:20", 50*time.Minute + 20*time.Second},
	}
	for _, c := range cases {
		got, err := parseTimeOfDay(c.in)
		if err != nil {
			t.Errorf("parseTimeOfDay(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseTimeOfDay(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseRuleAT(t *testing.T) {
	cases := []struct {
		in   string
		want Time
	}{
		{"2:00", Time{2 * time.Hour, WallClock}},
		{"2:00w", Time{2 * time.Hour, WallClock}},
		{"2:00s", Time{2 * time.Hour, StandardTime}},
		{"1:00u", Time{time.Hour, UniversalTime}},
		{"1:00g", Time{time.Hour, UniversalTime}},
		{"1:00z", Time{time.Hour, UniversalTime}},
		{"0", Time{0, WallClock}},
	}
	for _, c := range cases {
		got, err := parseRuleAT(c.in)
		if err != nil {
			t.Errorf("parseRuleAT(%q) error: %v", c.in, err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("parseRuleAT(%q) mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestParseRuleON(t *testing.T) {
	cases := []struct {
		in   string
		want Day
	}{
		{"5", Day{Form: DayFormNum, Num: 5}},
		{"lastSun", Day{Form: DayFormLast, Weekday: time.Sunday}},
		{"lastsunday", Day{Form: DayFormLast, Weekday: time.Sunday}},
		{"LASTMON", Day{Form: DayFormLast, Weekday: time.Monday}},
		{"Sun>=8", Day{Form: DayFormAfter, Weekday: time.Sunday, Num: 8}},
		{"Sat<=25", Day{Form: DayFormBefore, Weekday: time.Saturday, Num: 25}},
		{"thu>=1", Day{Form: DayFormAfter, Weekday: time.Thursday, Num: 1}},
	}
	for _, c := range cases {
		got, err := parseRuleON(c.in)
		if err != nil {
			t.Errorf("parseRuleON(%q) error: %v", c.in, err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("parseRuleON(%q) mismatch (-want +got):\n%s", c.in, diff)
		}
	}

	for _, bad := range []string{"lastFoo", "Sun>=", "Xyz>=3", "32", "S>=1"} {
		if _, err := parseRuleON(bad); err == nil {
			t.Errorf("parseRuleON(%q) = nil error, want error", bad)
		}
	}
}

func TestSplitLine_Quoted(t *testing.T) {
	got, err := splitLine(`Link "Etc/GMT#0" Etc/GMT0 # trailing`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Link", "Etc/GMT#0", "Etc/GMT0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitLine() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanner(t *testing.T) {
	input := "# header\nRule EU 1981 max - Mar lastSun 1:00u 1:00 S\n\nLink Europe/Berlin Europe/Copenhagen\n"
	s := NewScanner(strings.NewReader(input))
	var lines []int
	for s.Scan() {
		lines = append(lines, s.LineNumber())
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 4}, lines); diff != "" {
		t.Errorf("Scanner line numbers mismatch (-want +got):\n%s", diff)
	}
}
