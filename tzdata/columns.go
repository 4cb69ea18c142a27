package tzdata

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// splitLine splits a line into fields.
// It returns nil if the line is a comment or empty.
//
// From zic(8):
//
//	Fields are separated from one another by one or more white space
//	characters. An unquoted sharp character (#) in the input introduces
//	a comment which extends to the end of the line. White space
//	characters and sharp characters may be enclosed in double quotes (")
//	if they're to be used as part of a field.
func splitLine(line string) ([]string, error) {
	var (
		fields  []string
		field   strings.Builder
		inField bool
		quoted  bool
	)
loop:
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			inField = true
		case quoted:
			field.WriteRune(r)
		case r == '#':
			break loop
		case r == ' ' || r == '\t' || r == '\f' || r == '\r' || r == '\v' || r == '\n':
			if inField {
				fields = append(fields, field.String())
				field.Reset()
				inField = false
			}
		default:
			field.WriteRune(r)
			inField = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("no closing quote")
	}
	if inField {
		fields = append(fields, field.String())
	}
	return fields, nil
}

// parseRuleLine parses a rule line.
//
//	Rule  NAME  FROM  TO    -  IN   ON       AT     SAVE   LETTER/S
//	Rule  US    1967  1973  -  Apr  lastSun  2:00w  1:00d  D
func parseRuleLine(fields []string) (Rule, error) {
	if len(fields) != 10 {
		return Rule{}, fmt.Errorf("expected 10 fields, got %d", len(fields))
	}
	var (
		r    Rule
		errs error
		err  error
	)
	if r.Name, err = parseRuleNAME(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("NAME %q: %w", fields[1], err))
	}
	if r.From, err = parseRuleFROM(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("FROM %q: %w", fields[2], err))
	}
	if r.To, r.ToForm, err = parseRuleTO(fields[3], r.From); err != nil {
		errs = errors.Join(errs, fmt.Errorf("TO %q: %w", fields[3], err))
	}
	if fields[4] != "-" {
		errs = errors.Join(errs, fmt.Errorf("TYPE %q: must be \"-\"", fields[4]))
	}
	if r.In, err = parseMonth(fields[5]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("IN %q: %w", fields[5], err))
	}
	if r.On, err = parseRuleON(fields[6]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("ON %q: %w", fields[6], err))
	}
	if r.At, err = parseRuleAT(fields[7]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("AT %q: %w", fields[7], err))
	}
	if r.Save, err = parseRuleSAVE(fields[8]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("SAVE %q: %w", fields[8], err))
	}
	r.Letter = parseRuleLETTERS(fields[9])
	return r, errs
}

// parseZoneLine parses a zone line with or without UNTIL.
//
//	Zone  NAME        STDOFF  RULES   FORMAT  [UNTIL]
//	Zone  Asia/Amman  2:00    Jordan  EE%sT   2017 Oct 27 01:00
func parseZoneLine(fields []string) (string, ZoneLine, error) {
	if len(fields) < 5 {
		return "", ZoneLine{}, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}
	if len(fields) > 9 {
		return "", ZoneLine{}, fmt.Errorf("expected at most 9 fields, got %d", len(fields))
	}
	name, err := parseZoneNAME(fields[1])
	z, lineErr := parseZoneColumns(fields[2:])
	if err != nil {
		lineErr = errors.Join(fmt.Errorf("NAME %q: %w", fields[1], err), lineErr)
	}
	return name, z, lineErr
}

// parseZoneContinuationLine parses a zone continuation line with or without UNTIL.
// It has the same form as a zone line except that the keyword and the name are omitted.
func parseZoneContinuationLine(fields []string) (ZoneLine, error) {
	if len(fields) < 3 {
		return ZoneLine{}, fmt.Errorf("expected at least 3 fields, got %d", len(fields))
	}
	if len(fields) > 7 {
		return ZoneLine{}, fmt.Errorf("expected at most 7 fields, got %d", len(fields))
	}
	return parseZoneColumns(fields)
}

// parseZoneColumns parses STDOFF RULES FORMAT [UNTIL].
func parseZoneColumns(fields []string) (ZoneLine, error) {
	var (
		z    ZoneLine
		errs error
		err  error
	)
	if z.Offset, err = parseTimeOfDay(fields[0]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("STDOFF %q: %w", fields[0], err))
	}
	if z.Rules, err = parseZoneRULES(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("RULES %q: %w", fields[1], err))
	}
	if z.Format, err = parseZoneFORMAT(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("FORMAT %q: %w", fields[2], err))
	}
	if len(fields) > 3 {
		until := strings.Join(fields[3:], " ")
		if z.Until, err = parseUntil(until); err != nil {
			errs = errors.Join(errs, fmt.Errorf("UNTIL %q: %w", until, err))
		}
	}
	return z, errs
}

// parseLinkLine parses a link line.
//
//	Link  TARGET           LINK-NAME
//	Link  Europe/Istanbul  Asia/Istanbul
func parseLinkLine(fields []string) (Link, error) {
	if len(fields) != 3 {
		return Link{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	return Link{From: fields[1], To: fields[2]}, nil
}

// parseLeapLine parses a leap line.
//
//	Leap  YEAR  MONTH  DAY  HH:MM:SS  CORR  R/S
//	Leap  2016  Dec    31   23:59:60  +     S
func parseLeapLine(fields []string) (Leap, error) {
	if len(fields) != 7 {
		return Leap{}, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}
	var (
		leap Leap
		errs error
		err  error
	)
	if leap.Year, err = strconv.Atoi(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("YEAR %q: %w", fields[1], err))
	}
	if leap.Month, err = parseMonth(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("MONTH %q: %w", fields[2], err))
	}
	if leap.Day, err = strconv.Atoi(fields[3]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("DAY %q: %w", fields[3], err))
	}
	if leap.Time, err = parseHMS(fields[4]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("HH:MM:SS %q: %w", fields[4], err))
	}
	switch fields[5] {
	case "+":
		leap.Corr = LeapAdded
	case "-":
		leap.Corr = LeapSkipped
	default:
		errs = errors.Join(errs, fmt.Errorf("CORR %q: invalid leap correction", fields[5]))
	}
	switch l := strings.ToLower(fields[6]); {
	case isAbbrev(l, "rolling", "r"):
		leap.Mode = RollingLeapTime
	case isAbbrev(l, "stationary", "s"):
		leap.Mode = StationaryLeapTime
	default:
		errs = errors.Join(errs, fmt.Errorf("R/S %q: invalid leap mode", fields[6]))
	}
	return leap, errs
}

// parseExpiresLine parses an expires line.
//
//	Expires  2020  Dec  28  00:00:00
func parseExpiresLine(fields []string) (Expires, error) {
	if len(fields) != 5 {
		return Expires{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	var (
		expires Expires
		errs    error
		err     error
	)
	if expires.Year, err = strconv.Atoi(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("YEAR %q: %w", fields[1], err))
	}
	if expires.Month, err = parseMonth(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("MONTH %q: %w", fields[2], err))
	}
	if expires.Day, err = strconv.Atoi(fields[3]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("DAY %q: %w", fields[3], err))
	}
	if expires.Time, err = parseHMS(fields[4]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("HH:MM:SS %q: %w", fields[4], err))
	}
	return expires, errs
}

// parseHMS parses a time in HH:MM:SS format. Seconds may be 60 for leap seconds.
func parseHMS(s string) (HMS, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return HMS{}, fmt.Errorf("expected 3 parts, got %d", len(parts))
	}
	var (
		hms HMS
		err error
	)
	if hms.Hours, err = strconv.Atoi(parts[0]); err != nil {
		return HMS{}, fmt.Errorf("hours: %v", err)
	}
	if hms.Minutes, err = strconv.Atoi(parts[1]); err != nil {
		return HMS{}, fmt.Errorf("minutes: %v", err)
	}
	if hms.Seconds, err = strconv.Atoi(parts[2]); err != nil {
		return HMS{}, fmt.Errorf("seconds: %v", err)
	}
	return hms, nil
}

// parseZoneNAME parses the NAME column of a zone line.
// A file name component of the name must not be "." or "..".
func parseZoneNAME(s string) (string, error) {
	for _, c := range strings.Split(s, "/") {
		if c == "" || c == "." || c == ".." {
			return "", fmt.Errorf("invalid file name component %q", c)
		}
	}
	return s, nil
}

// parseZoneRULES parses the RULES column of a zone line.
// It is "-", an amount in SAVE column format, or the name of a rule set.
// Whether the named rule set exists is checked when the zone is compiled.
func parseZoneRULES(s string) (ZoneRules, error) {
	if s == "-" || s == "" {
		return ZoneRules{Form: ZoneRulesStandard}, nil
	}
	if c := s[0]; c == '-' || c == '+' || (c >= '0' && c <= '9') {
		d, err := parseRuleSAVE(s)
		if err != nil {
			return ZoneRules{}, err
		}
		return ZoneRules{Form: ZoneRulesTime, Save: d}, nil
	}
	return ZoneRules{Form: ZoneRulesName, Name: s}, nil
}

// parseZoneFORMAT parses the FORMAT column of a zone line.
// It may contain %s (rule letter), %z (numeric offset) or a slash separating
// standard and daylight abbreviations.
func parseZoneFORMAT(s string) (string, error) {
	if len(s) == 0 {
		return "", fmt.Errorf("empty format")
	}
	if strings.Count(s, "/") > 1 {
		return "", fmt.Errorf("more than one slash")
	}
	return s, nil
}

// parseUntil parses the UNTIL column of a zone line: YEAR [MONTH [DAY [TIME]]].
// Month, day and time have the same format as the IN, ON and AT columns of a rule.
func parseUntil(s string) (Until, error) {
	if len(s) == 0 {
		return Until{}, nil
	}

	var u Until
	parts := strings.Fields(s)
	if len(parts) > 4 {
		return u, fmt.Errorf("too many fields: %d", len(parts))
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return u, fmt.Errorf("year: %v", err)
	}
	u.Year = year
	u.Parts = u.Parts.Set(untilYearOnly)

	if len(parts) > 1 {
		if u.Month, err = parseMonth(parts[1]); err != nil {
			return u, fmt.Errorf("month: %v", err)
		}
		u.Parts = u.Parts.Set(untilMonthOnly)
	}
	if len(parts) > 2 {
		if u.Day, err = parseRuleON(parts[2]); err != nil {
			return u, fmt.Errorf("day: %v", err)
		}
		u.Parts = u.Parts.Set(untilDayOnly)
	}
	if len(parts) > 3 {
		if u.Time, err = parseRuleAT(parts[3]); err != nil {
			return u, fmt.Errorf("time: %v", err)
		}
		u.Parts = u.Parts.Set(untilTimeOnly)
	}

	u.Defined = true
	return u, nil
}

// parseRuleNAME parses the NAME column of a rule.
// The name must start with a character that is neither an ASCII digit nor "-" nor "+".
func parseRuleNAME(s string) (string, error) {
	if len(s) == 0 {
		return "", fmt.Errorf("empty name")
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "", fmt.Errorf("name starts with a digit")
	}
	if s[0] == '-' || s[0] == '+' {
		return "", fmt.Errorf("name starts with a sign")
	}
	if strings.ContainsAny(s, "!$%&'()*,/:;<=>?@[\\]^`{|}~") {
		return "", fmt.Errorf("name contains special character")
	}
	return s, nil
}

// parseRuleFROM parses the FROM column of a rule: a year, "minimum" or "maximum".
func parseRuleFROM(s string) (Year, error) {
	l := strings.ToLower(s)
	if isAbbrev(l, "minimum", "mi") {
		return MinYear, nil
	}
	if isAbbrev(l, "maximum", "ma") {
		return MaxYear, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return Year(n), nil
}

// parseRuleTO parses the TO column of a rule. "only" repeats FROM.
func parseRuleTO(s string, from Year) (Year, ToForm, error) {
	l := strings.ToLower(s)
	if isAbbrev(l, "only", "o") {
		return from, ToOnly, nil
	}
	if isAbbrev(l, "maximum", "ma") {
		return MaxYear, ToMax, nil
	}
	if isAbbrev(l, "minimum", "mi") {
		return MinYear, ToYear, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ToYear, err
	}
	if Year(n) < from {
		return 0, ToYear, fmt.Errorf("ends before FROM %v", from)
	}
	return Year(n), ToYear, nil
}

var months = [...]string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"}

func parseMonth(s string) (time.Month, error) {
	l := strings.ToLower(s)
	for i, m := range months {
		if isAbbrev(l, m, m[:3]) {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("invalid month")
}

// parseRuleON parses the ON column of a rule.
//
//	5        the fifth of the month
//	lastSun  the last Sunday in the month
//	Sun>=8   first Sunday on or after the eighth
//	Sun<=25  last Sunday on or before the 25th
//
// The "<=" and ">=" forms can result in a day in the neighboring month.
func parseRuleON(s string) (Day, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 31 {
			return Day{}, fmt.Errorf("day %d out of range", n)
		}
		return Day{Form: DayFormNum, Num: n}, nil
	}
	if l := strings.ToLower(s); strings.HasPrefix(l, "last") {
		wd, err := parseWeekday(l[4:])
		if err != nil {
			return Day{}, err
		}
		return Day{Form: DayFormLast, Weekday: wd}, nil
	}
	form, sep := DayFormAfter, ">="
	if strings.Contains(s, "<=") {
		form, sep = DayFormBefore, "<="
	}
	name, num, ok := strings.Cut(s, sep)
	if !ok || name == "" || num == "" {
		return Day{}, fmt.Errorf("expected weekday<=dayofmonth or weekday>=dayofmonth")
	}
	wd, err := parseWeekday(name)
	if err != nil {
		return Day{}, fmt.Errorf("left part of comparison %q: %w", name, err)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return Day{}, fmt.Errorf("right part of comparison %q: %w", num, err)
	}
	return Day{Form: form, Weekday: wd, Num: n}, nil
}

// parseRuleAT parses the AT column of a rule.
// A suffix w means wall clock time (the default), s standard time and u, g or z universal time.
func parseRuleAT(s string) (Time, error) {
	d, suffix, err := parseTimeOfDayWithSuffix(s, "wsugz")
	if err != nil {
		return Time{}, err
	}
	form := WallClock
	switch suffix {
	case 's':
		form = StandardTime
	case 'u', 'g', 'z':
		form = UniversalTime
	}
	return Time{Duration: d, Form: form}, nil
}

// parseRuleSAVE parses the SAVE column of a rule.
// The suffix s marks standard time and d daylight saving time. Without a suffix
// the amount is standard time when zero and daylight saving time otherwise.
func parseRuleSAVE(s string) (Time, error) {
	d, suffix, err := parseTimeOfDayWithSuffix(s, "sd")
	if err != nil {
		return Time{}, err
	}
	form := DaylightSavingTime
	if suffix == 's' || (suffix == 0 && d == 0) {
		form = StandardTime
	}
	return Time{Duration: d, Form: form}, nil
}

// parseRuleLETTERS parses the LETTER/S column of a rule. "-" means the empty string.
func parseRuleLETTERS(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

func parseTimeOfDayWithSuffix(s string, suffixes string) (time.Duration, byte, error) {
	var suffix byte
	if n := len(s); n > 1 && strings.IndexByte(suffixes, s[n-1]) >= 0 {
		suffix = s[n-1]
		s = s[:n-1]
	}
	d, err := parseTimeOfDay(s)
	return d, suffix, err
}

// parseTimeOfDay parses an offset or time of day such as "2", "2:00",
// "01:28:14", "00:19:32.13", "24:00", "260:00", "-2:30" or "-".
// A leading minus sign negates the whole value.
func parseTimeOfDay(s string) (time.Duration, error) {
	if s == "-" || s == "0" {
		return 0, nil
	}

	isNegative := strings.HasPrefix(s, "-")
	if isNegative {
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("too many components")
	}
	var total time.Duration
	units := [...]time.Duration{time.Hour, time.Minute, time.Second}
	for i, p := range parts {
		if i == 2 {
			// Only the seconds may carry a fraction.
			f, err := strconv.ParseFloat(p, 64)
			if err != nil || f < 0 {
				return 0, fmt.Errorf("invalid seconds %q", p)
			}
			total += time.Duration(math.Round(f * float64(time.Second)))
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid component %q", p)
		}
		total += time.Duration(n) * units[i]
	}
	if isNegative {
		total = -total
	}
	return total, nil
}

var weekdays = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// weekdayMin holds the shortest unambiguous abbreviation of each weekday.
var weekdayMin = [...]string{"su", "m", "tu", "w", "th", "f", "sa"}

func parseWeekday(s string) (time.Weekday, error) {
	l := strings.ToLower(s)
	for i, wd := range weekdays {
		if isAbbrev(l, wd, weekdayMin[i]) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// isAbbrev reports whether s is a prefix of long that is at least as long as min.
func isAbbrev(s string, long string, min string) bool {
	return strings.HasPrefix(s, min) && strings.HasPrefix(long, s)
}
