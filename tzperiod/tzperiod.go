// Package tzperiod defines the compiled form of a time zone: an ordered
// timeline of periods with fixed offsets and abbreviation.
//
// Times are gregorian seconds, the number of seconds since
// 0000-01-01 00:00:00 in the proleptic Gregorian calendar, with the
// sentinels Min and Max standing for the unbounded past and future.
package tzperiod

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ngrash/tzperiod/internal/gregorian"
)

// Time is a point in time in gregorian seconds.
type Time int64

const (
	// Min is the indefinite past.
	Min Time = math.MinInt64
	// Max is the indefinite future.
	Max Time = math.MaxInt64
)

// FromTime returns the gregorian seconds of t, read in its own location's wall clock
// if t is not UTC. Use t.UTC() to get the universal time.
func FromTime(t time.Time) Time {
	return Time(gregorian.Seconds(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()))
}

// Date returns the gregorian seconds of the given calendar date and time of day.
func Date(year int, month time.Month, day, hour, min, sec int) Time {
	return Time(gregorian.Seconds(year, month, day, hour, min, sec))
}

// Add returns t shifted by secs seconds. The sentinels Min and Max are returned unchanged.
func (t Time) Add(secs int64) Time {
	if t == Min || t == Max {
		return t
	}
	return t + Time(secs)
}

// IsBounded reports whether t is neither Min nor Max.
func (t Time) IsBounded() bool {
	return t != Min && t != Max
}

// Time returns t as a UTC time.Time. It panics on the sentinels.
func (t Time) Time() time.Time {
	if !t.IsBounded() {
		panic(fmt.Sprintf("tzperiod: %v has no time.Time", t))
	}
	return gregorian.ToTime(int64(t))
}

// Unix returns t as seconds since the Unix epoch. The sentinels are returned unchanged.
func (t Time) Unix() int64 {
	if !t.IsBounded() {
		return int64(t)
	}
	return int64(t) - gregorian.UnixEpoch
}

func (t Time) String() string {
	switch t {
	case Min:
		return "min"
	case Max:
		return "max"
	}
	return t.Time().Format("2006-01-02T15:04:05")
}

// MarshalJSON encodes the sentinels as the strings "min" and "max" and
// other times as numbers.
func (t Time) MarshalJSON() ([]byte, error) {
	switch t {
	case Min:
		return []byte(`"min"`), nil
	case Max:
		return []byte(`"max"`), nil
	}
	return strconv.AppendInt(nil, int64(t), 10), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"min"`:
		*t = Min
		return nil
	case `"max"`:
		*t = Max
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tzperiod: invalid time %s: %w", b, err)
	}
	*t = Time(n)
	return nil
}

// Frame is a reference frame for reading a Time.
type Frame int

const (
	// UTC is universal time.
	UTC Frame = iota
	// Standard is local time ignoring daylight saving time: UTC plus the UTC offset.
	Standard
	// Wall is local civil clock time: UTC plus the UTC offset and the standard offset.
	Wall
)

func (f Frame) String() string {
	switch f {
	case UTC:
		return "utc"
	case Standard:
		return "standard"
	case Wall:
		return "wall"
	default:
		return "<UNDEFINED>"
	}
}

// ParseFrame parses the names returned by Frame.String.
func ParseFrame(s string) (Frame, error) {
	switch s {
	case "utc", "u":
		return UTC, nil
	case "standard", "s":
		return Standard, nil
	case "wall", "w":
		return Wall, nil
	}
	return 0, fmt.Errorf("unknown frame %q", s)
}

// Boundary is one end of a period in all three frames.
type Boundary struct {
	UTC      Time `json:"utc"`
	Standard Time `json:"standard"`
	Wall     Time `json:"wall"`
}

// NewBoundary returns the boundary at utc for the given offsets.
func NewBoundary(utc Time, utcOffset, stdOffset int64) Boundary {
	return Boundary{
		UTC:      utc,
		Standard: utc.Add(utcOffset),
		Wall:     utc.Add(utcOffset + stdOffset),
	}
}

// In returns the boundary in the given frame.
func (b Boundary) In(f Frame) Time {
	switch f {
	case Standard:
		return b.Standard
	case Wall:
		return b.Wall
	default:
		return b.UTC
	}
}

// Period is a span of time with fixed offsets and abbreviation.
// The span includes From and excludes Until.
type Period struct {
	// UTCOffset is the offset of standard time from UTC in seconds.
	UTCOffset int64 `json:"utc_offset"`
	// StdOffset is the daylight saving amount in seconds, 0 in standard time.
	StdOffset int64    `json:"std_offset"`
	From      Boundary `json:"from"`
	Until     Boundary `json:"until"`
	Abbr      string   `json:"zone_abbr"`
}

// TotalOffset returns the offset of wall clock time from UTC in seconds.
func (p Period) TotalOffset() int64 {
	return p.UTCOffset + p.StdOffset
}

// IsDST reports whether daylight saving time is in effect.
func (p Period) IsDST() bool {
	return p.StdOffset != 0
}

// Contains reports whether t read in frame f lies in the period.
// A period ending at Max contains Max itself.
func (p Period) Contains(t Time, f Frame) bool {
	until := p.Until.In(f)
	return p.From.In(f) <= t && (t < until || until == Max)
}

func (p Period) String() string {
	return fmt.Sprintf("[%v, %v) %s utc%+d std%+d", p.From.UTC, p.Until.UTC, p.Abbr, p.UTCOffset, p.StdOffset)
}

// ErrCoverage is returned by Validate for timelines that are not contiguous
// or do not cover all time.
var ErrCoverage = errors.New("periods do not cover all time")

// Validate checks that ps is ordered and contiguous in UTC and covers
// the whole timeline from Min to Max.
func Validate(ps []Period) error {
	if len(ps) == 0 {
		return fmt.Errorf("%w: no periods", ErrCoverage)
	}
	if ps[0].From.UTC != Min {
		return fmt.Errorf("%w: first period starts at %v", ErrCoverage, ps[0].From.UTC)
	}
	if last := ps[len(ps)-1]; last.Until.UTC != Max {
		return fmt.Errorf("%w: last period ends at %v", ErrCoverage, last.Until.UTC)
	}
	for i, p := range ps {
		if p.From.UTC >= p.Until.UTC {
			return fmt.Errorf("%w: period %d is empty: %v", ErrCoverage, i, p)
		}
		if i > 0 && ps[i-1].Until.UTC != p.From.UTC {
			return fmt.Errorf("%w: gap or overlap between period %d and %d: %v != %v", ErrCoverage, i-1, i, ps[i-1].Until.UTC, p.From.UTC)
		}
	}
	return nil
}
