package tzif

import (
	"errors"
	"fmt"
)

// Validate checks the structural requirements RFC 8536 places on d.
func Validate(d Data) error {
	var errs []error
	if d.Version != d.V1Header.Version || (d.Version > V1 && d.V1Header.Version != d.V2Header.Version) {
		errs = append(errs, fmt.Errorf("inconsistent version: file = %v, v1 header = %v, v2 header = %v", d.Version, d.V1Header.Version, d.V2Header.Version))
	}
	errs = append(errs, validateBlock("v1", d.V1Header, d.V1Data)...)
	if d.Version > V1 {
		errs = append(errs, validateBlock("v2", d.V2Header, d.V2Data)...)
	}
	return errors.Join(errs...)
}

func validateBlock(name string, h Header, b DataBlock) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("invalid "+name+" "+format, args...))
	}

	if h.Isutcnt != 0 && h.Isutcnt != h.Typecnt {
		add("isutcnt (%d): must be 0 or equal to typecnt (%d)", h.Isutcnt, h.Typecnt)
	}
	if h.Isstdcnt != 0 && h.Isstdcnt != h.Typecnt {
		add("isstdcnt (%d): must be 0 or equal to typecnt (%d)", h.Isstdcnt, h.Typecnt)
	}
	if h.Typecnt == 0 {
		add("typecnt: must not be zero")
	}
	if h.Charcnt == 0 {
		add("charcnt: must not be zero")
	}

	counts := []struct {
		field  string
		header uint32
		data   int
	}{
		{"isutcnt", h.Isutcnt, len(b.UTLocal)},
		{"isstdcnt", h.Isstdcnt, len(b.StandardWall)},
		{"leapcnt", h.Leapcnt, len(b.LeapSeconds)},
		{"timecnt", h.Timecnt, len(b.TransitionTimes)},
		{"typecnt", h.Typecnt, len(b.LocalTimeTypes)},
		{"charcnt", h.Charcnt, len(b.Designations)},
	}
	for _, c := range counts {
		if int(c.header) != c.data {
			add("%s: header = %d, data = %d", c.field, c.header, c.data)
		}
	}
	if times, types := len(b.TransitionTimes), len(b.TransitionTypes); times != types {
		add("transitions: transition times = %d, transition types = %d", times, types)
	}

	for i := 1; i < len(b.TransitionTimes); i++ {
		if b.TransitionTimes[i] <= b.TransitionTimes[i-1] {
			add("transition times: %d at %d is not after %d", b.TransitionTimes[i], i, b.TransitionTimes[i-1])
			break
		}
	}
	for i, typ := range b.TransitionTypes {
		if int(typ) >= len(b.LocalTimeTypes) {
			add("transition type %d: index %d out of range", i, typ)
		}
	}
	for i, r := range b.LocalTimeTypes {
		if _, err := b.Designation(r.Idx); err != nil {
			add("local time type %d: %v", i, err)
		}
	}
	for i := range b.UTLocal {
		if b.UTLocal[i] && i < len(b.StandardWall) && !b.StandardWall[i] {
			add("indicators of type %d: UT implies standard time", i)
		}
	}
	if n := len(b.Designations); n > 0 && b.Designations[n-1] != 0 {
		add("time zone designations: missing null terminator")
	}
	return errs
}
