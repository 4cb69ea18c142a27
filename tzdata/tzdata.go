// Package tzdata provides a parser for the tz source files and leapsecond files provided by IANA
// at https://www.iana.org/time-zones.
//
// The format is described in the zic(8) manual page. Each non-blank line is a
// directive: a Rule, Zone, Link, Leap or Expires line, or a Zone continuation.
// A Zone line and its continuation lines are merged into a single Zone record.
package tzdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoMatch is returned when a line does not have the shape of any known directive.
var ErrNoMatch = errors.New("no matching directive")

// ParseError is an error that occurred during parsing.
// It contains the file name, the line number and the line where the error occurred.
type ParseError struct {
	File       string
	LineNumber int
	Line       string
	Err        error
}

// Error returns a string representation of the parse error, implementing the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %q: %v", e.File, e.LineNumber, e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %q: %v", e.LineNumber, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// File represents the result of parsing a tz source or leapsecond file.
// Rules, zones and links are kept in the order they appear in the file.
// Leaps and Expires are only present in leapsecond files.
type File struct {
	Name    string
	Rules   []Rule
	Zones   []Zone
	Links   []Link
	Leaps   []Leap
	Expires []Expires
}

// Directive is one parsed source line. It is one of Rule, Link, ZoneHead,
// ZoneContinuation, Leap or Expires.
type Directive interface {
	directive()
}

// ZoneHead is a Zone line including the "Zone" keyword and the zone name.
type ZoneHead struct {
	Name string
	Line ZoneLine
}

// ZoneContinuation is an indented line continuing the preceding zone.
type ZoneContinuation struct {
	Line ZoneLine
}

func (Rule) directive()             {}
func (Link) directive()             {}
func (Leap) directive()             {}
func (Expires) directive()          {}
func (ZoneHead) directive()         {}
func (ZoneContinuation) directive() {}

// ParseLine parses a single source line.
// It returns a nil Directive and a nil error for blank and comment-only lines.
// Lines starting with white space are zone continuation lines.
func ParseLine(line string) (Directive, error) {
	fields, err := splitLine(line)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, nil
	}
	if line[0] == ' ' || line[0] == '\t' {
		zl, err := parseZoneContinuationLine(fields)
		if err != nil {
			return nil, fmt.Errorf("parse zone continuation: %w", err)
		}
		return ZoneContinuation{Line: zl}, nil
	}
	keyword := strings.ToLower(fields[0])
	switch {
	case isAbbrev(keyword, "zone", "z"):
		name, zl, err := parseZoneLine(fields)
		if err != nil {
			return nil, fmt.Errorf("parse zone: %w", err)
		}
		return ZoneHead{Name: name, Line: zl}, nil
	case isAbbrev(keyword, "rule", "r"):
		rule, err := parseRuleLine(fields)
		if err != nil {
			return nil, fmt.Errorf("parse rule: %w", err)
		}
		return rule, nil
	case isAbbrev(keyword, "link", "l"):
		link, err := parseLinkLine(fields)
		if err != nil {
			return nil, fmt.Errorf("parse link: %w", err)
		}
		return link, nil
	case isAbbrev(keyword, "leap", "lea"):
		leap, err := parseLeapLine(fields)
		if err != nil {
			return nil, fmt.Errorf("parse leap: %w", err)
		}
		return leap, nil
	case isAbbrev(keyword, "expires", "e"):
		expires, err := parseExpiresLine(fields)
		if err != nil {
			return nil, fmt.Errorf("parse expires: %w", err)
		}
		return expires, nil
	}
	return nil, fmt.Errorf("%w: unknown keyword %q", ErrNoMatch, fields[0])
}

// Scanner reads directives from a tz source file, skipping blank and comment lines.
//
//	s := tzdata.NewScanner(r)
//	for s.Scan() {
//		d := s.Directive()
//		...
//	}
//	if err := s.Err(); err != nil { ... }
type Scanner struct {
	name       string
	lines      *bufio.Scanner
	lineNumber int
	line       string
	directive  Directive
	err        error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{lines: bufio.NewScanner(r)}
}

// NewNamedScanner returns a Scanner whose errors carry the given file name.
func NewNamedScanner(name string, r io.Reader) *Scanner {
	s := NewScanner(r)
	s.name = name
	return s
}

// Scan advances to the next directive. It returns false at the end of the input or on error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.lines.Scan() {
		s.lineNumber++
		s.line = s.lines.Text()
		d, err := ParseLine(s.line)
		if err != nil {
			s.err = s.parseError(err)
			return false
		}
		if d == nil {
			continue // skip comment or empty line
		}
		s.directive = d
		return true
	}
	if err := s.lines.Err(); err != nil {
		s.err = fmt.Errorf("scanner: %w", err)
	}
	return false
}

// Directive returns the directive read by the last call to Scan.
func (s *Scanner) Directive() Directive {
	return s.directive
}

// LineNumber returns the 1-based line number of the last directive.
func (s *Scanner) LineNumber() int {
	return s.lineNumber
}

// Err returns the first error encountered by the Scanner.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) parseError(err error) error {
	return &ParseError{File: s.name, LineNumber: s.lineNumber, Line: s.line, Err: err}
}

// Parse parses the content of a tz source file and returns a File containing the parsed records.
func Parse(r io.Reader) (File, error) {
	return ParseFile("", r)
}

// ParseFile is like Parse but records name in the result and in parse errors.
func ParseFile(name string, r io.Reader) (File, error) {
	result := File{Name: name}
	s := NewNamedScanner(name, r)

	// continuationExpected is true while the last zone line had an UNTIL column.
	var continuationExpected bool
	for s.Scan() {
		switch d := s.Directive().(type) {
		case ZoneContinuation:
			if !continuationExpected {
				return result, s.parseError(errors.New("unexpected zone continuation line"))
			}
			z := &result.Zones[len(result.Zones)-1]
			z.Lines = append(z.Lines, d.Line)
			continuationExpected = d.Line.Until.Defined
			continue
		case ZoneHead:
			if continuationExpected {
				return result, s.parseError(errors.New("zone continuation line expected"))
			}
			result.Zones = append(result.Zones, Zone{Name: d.Name, Lines: []ZoneLine{d.Line}})
			continuationExpected = d.Line.Until.Defined
			continue
		}
		if continuationExpected {
			return result, s.parseError(errors.New("zone continuation line expected"))
		}
		switch d := s.Directive().(type) {
		case Rule:
			result.Rules = append(result.Rules, d)
		case Link:
			result.Links = append(result.Links, d)
		case Leap:
			result.Leaps = append(result.Leaps, d)
		case Expires:
			result.Expires = append(result.Expires, d)
		}
	}
	if err := s.Err(); err != nil {
		return result, err
	}
	if continuationExpected {
		return result, &ParseError{File: name, LineNumber: s.LineNumber(), Err: errors.New("unexpected end of input: zone continuation line expected")}
	}
	return result, nil
}

// Year represents a year in the proleptic Gregorian calendar.
type Year int

func (y Year) String() string {
	if y == MinYear {
		return "<indefinite past>"
	}
	if y == MaxYear {
		return "<indefinite future>"
	}
	return strconv.Itoa(int(y))
}

const (
	// MinYear means the indefinite past.
	MinYear Year = math.MinInt
	// MaxYear means the indefinite future.
	MaxYear Year = math.MaxInt
)

// TimeForm represents the reference frame of a time of day.
type TimeForm int

func (f TimeForm) String() string {
	switch f {
	case WallClock:
		return "WallClock"
	case StandardTime:
		return "StandardTime"
	case DaylightSavingTime:
		return "DaylightSavingTime"
	case UniversalTime:
		return "UniversalTime"
	default:
		return "<UNDEFINED>"
	}
}

const (
	WallClock TimeForm = iota
	StandardTime
	DaylightSavingTime
	UniversalTime
)

// Time represents a time instance by the duration since 00:00, the start of a calendar day.
type Time struct {
	time.Duration
	Form TimeForm
}

// Seconds returns the duration rounded to whole seconds.
func (t Time) Seconds() int64 {
	return int64(t.Duration.Round(time.Second) / time.Second)
}

// DayForm represents the form of a day in a rule or zone line.
type DayForm int

func (f DayForm) String() string {
	switch f {
	case DayFormNum:
		return "Num"
	case DayFormLast:
		return "Last"
	case DayFormAfter:
		return "After"
	case DayFormBefore:
		return "Before"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// DayFormNum is a plain day of the month, "5".
	DayFormNum DayForm = iota
	// DayFormLast is the last given weekday of the month, "lastSun".
	DayFormLast
	// DayFormAfter is the first given weekday on or after a day, "Sun>=8".
	DayFormAfter
	// DayFormBefore is the last given weekday on or before a day, "Sun<=25".
	DayFormBefore
)

// Day represents the ON column of a rule line or the day of an UNTIL column.
type Day struct {
	Form    DayForm
	Num     int
	Weekday time.Weekday
}

// ToForm tells how the TO column of a rule line was written.
type ToForm int

const (
	// ToYear means the TO column is a year.
	ToYear ToForm = iota
	// ToOnly means the TO column is "only"; To equals From.
	ToOnly
	// ToMax means the TO column is "max"; To is MaxYear.
	ToMax
)

// Rule represents a rule line.
type Rule struct {
	Name   string     // The NAME field of the rule line.
	From   Year       // The FROM field of the rule line.
	To     Year       // The TO field of the rule line, resolved for "only" and "max".
	ToForm ToForm     // How the TO field was written.
	In     time.Month // The IN field of the rule line.
	On     Day        // The ON field of the rule line.
	At     Time       // The AT field of the rule line.
	Save   Time       // The SAVE field of the rule line.
	Letter string     // The LETTER/S field of the rule line; "-" is stored as "".
}

// AppliesIn reports whether the rule is in effect in the given year.
func (r Rule) AppliesIn(year int) bool {
	return r.From <= Year(year) && Year(year) <= r.To
}

// Link represents a link line. From is the target zone, To is the alias.
type Link struct {
	From string
	To   string
}

// Zone is a Zone line merged with its continuation lines.
type Zone struct {
	Name  string
	Lines []ZoneLine
}

// ZoneLine represents one line of a zone: the Zone line itself or a continuation line.
type ZoneLine struct {
	Offset time.Duration // The STDOFF field of the zone line.
	Rules  ZoneRules     // The RULES field of the zone line.
	Format string        // The FORMAT field of the zone line.
	Until  Until         // The UNTIL field of the zone line.
}

// ZoneRulesForm represents the type of the RULES column of a zone line.
type ZoneRulesForm int

func (f ZoneRulesForm) String() string {
	switch f {
	case ZoneRulesName:
		return "Name"
	case ZoneRulesTime:
		return "Time"
	case ZoneRulesStandard:
		return "Standard"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// ZoneRulesStandard means standard time always applies because the RULES column is "-".
	ZoneRulesStandard ZoneRulesForm = iota
	// ZoneRulesName means the RULES column references rule lines by name.
	ZoneRulesName
	// ZoneRulesTime means the RULES column contains a time in rule-line SAVE column format.
	ZoneRulesTime
)

// ZoneRules represents the RULES column of a zone line.
type ZoneRules struct {
	// Form is the form of the RULES column.
	Form ZoneRulesForm
	// Name contains the rule set name if Form is ZoneRulesName.
	Name string
	// Save contains the fixed amount if Form is ZoneRulesTime.
	Save Time
}

// UntilPartsMask is a bitmask of the parts that are defined in the UNTIL column of a zone line.
// Missing trailing parts default to the earliest possible value.
type UntilPartsMask uint8

// Has returns true if all the parts in the mask are set.
func (p UntilPartsMask) Has(parts UntilPartsMask) bool {
	return p&parts == parts
}

// Set sets the parts in the mask.
func (p UntilPartsMask) Set(parts UntilPartsMask) UntilPartsMask {
	return p | parts
}

const (
	// UntilUndefined is the zero value of UntilPartsMask.
	UntilUndefined = UntilPartsMask(0)

	untilYearOnly UntilPartsMask = 1 << iota
	untilMonthOnly
	untilDayOnly
	untilTimeOnly

	// UntilYear indicates that Until.Year is defined. This is always set if Until.Defined is true.
	UntilYear = untilYearOnly
	// UntilMonth indicates that Until.Month is defined.
	UntilMonth = untilYearOnly | untilMonthOnly
	// UntilDay indicates that Until.Day is defined.
	UntilDay = untilYearOnly | untilMonthOnly | untilDayOnly
	// UntilTime indicates that Until.Time is defined.
	UntilTime = untilYearOnly | untilMonthOnly | untilDayOnly | untilTimeOnly
)

// Until represents the UNTIL column of a zone line.
// The zero value means the column is absent and the line applies forever.
type Until struct {
	// Defined is true if the UNTIL column is present.
	Defined bool
	// Parts tells which of the fields below were written.
	Parts UntilPartsMask
	Year  int
	Month time.Month
	Day   Day
	Time  Time
}

// LeapCorr represents the correction direction of a leap second.
type LeapCorr string

const (
	// LeapAdded means a second was added.
	LeapAdded LeapCorr = "+"
	// LeapSkipped means a second was skipped.
	LeapSkipped LeapCorr = "-"
)

// LeapTimeMode represents the mode of a leap second.
type LeapTimeMode int

const (
	// StationaryLeapTime means the leap second time is UTC.
	StationaryLeapTime LeapTimeMode = iota
	// RollingLeapTime means the leap second time is local wall clock time.
	// It is accepted but not used by any released data.
	RollingLeapTime
)

// HMS represents the time that is shown on a watch.
type HMS struct {
	Hours   int
	Minutes int
	Seconds int
}

// Leap represents a leap line.
type Leap struct {
	Year  int
	Month time.Month
	Day   int
	Time  HMS
	Corr  LeapCorr
	Mode  LeapTimeMode
}

// Expires represents an expires line of the leapsecond file.
type Expires struct {
	Year  int
	Month time.Month
	Day   int
	Time  HMS
}
