// Package tzir builds the period timeline of a zone from its zone lines and
// the rules they reference.
//
// The builder walks the zone lines in order carrying the state
// (from, save, letter): the start of the next period in universal time, the
// daylight saving amount and the rule letter in effect. Each rule transition
// closes the current period and updates the state.
package tzir

import (
	"fmt"
	"strings"
	"time"

	"github.com/ngrash/tzperiod/internal/tzexpand"
	"github.com/ngrash/tzperiod/tzdata"
	"github.com/ngrash/tzperiod/tzdb"
	"github.com/ngrash/tzperiod/tzperiod"
)

const (
	// DefaultMinYear is the first year rules are expanded for.
	DefaultMinYear = 1900
	// DefaultMaxYear is the last year rules are expanded for
	// on zone lines that apply forever.
	DefaultMaxYear = 2203
)

// ErrRulesNotFound is returned when a zone line references an unknown rule set.
var ErrRulesNotFound = fmt.Errorf("rule set %w", tzdb.ErrNotFound)

// RuleSource looks up rule sets by name.
type RuleSource interface {
	RulesByName(name string) ([]tzdata.Rule, bool)
}

// Options bound the expansion of rules. Zero values select the defaults.
type Options struct {
	MinYear int
	MaxYear int
}

func (o Options) withDefaults() Options {
	if o.MinYear == 0 {
		o.MinYear = DefaultMinYear
	}
	if o.MaxYear == 0 {
		o.MaxYear = DefaultMaxYear
	}
	return o
}

// Build returns the periods of z. They are ordered and contiguous in universal
// time and cover the whole timeline: the first period starts at tzperiod.Min
// and the last one ends at tzperiod.Max.
func Build(z tzdata.Zone, rules RuleSource, opts Options) ([]tzperiod.Period, error) {
	if len(z.Lines) == 0 {
		return nil, fmt.Errorf("zone %s: no zone lines", z.Name)
	}
	b := builder{opts: opts.withDefaults(), from: tzperiod.Min}
	for i, l := range z.Lines {
		last := i == len(z.Lines)-1
		if last && l.Until.Defined {
			return nil, fmt.Errorf("zone %s: last line has UNTIL %d", z.Name, l.Until.Year)
		}
		if !last && !l.Until.Defined {
			return nil, fmt.Errorf("zone %s: line %d has no UNTIL", z.Name, i+1)
		}

		switch l.Rules.Form {
		case tzdata.ZoneRulesStandard:
			b.fixed(l, 0)
		case tzdata.ZoneRulesTime:
			b.fixed(l, l.Rules.Save.Seconds())
		case tzdata.ZoneRulesName:
			rs, ok := rules.RulesByName(l.Rules.Name)
			if !ok {
				return nil, fmt.Errorf("zone %s: line %d: rules %q: %w", z.Name, i+1, l.Rules.Name, ErrRulesNotFound)
			}
			b.named(l, rs)
		default:
			return nil, fmt.Errorf("zone %s: line %d: invalid rules form %v", z.Name, i+1, l.Rules.Form)
		}
	}
	return b.periods, nil
}

type builder struct {
	opts    Options
	periods []tzperiod.Period
	// from is the start of the next period in universal time.
	from tzperiod.Time
}

// emit closes the period from b.from to until.
// Empty periods are dropped and a period equal in offsets and abbreviation
// to its predecessor extends it.
func (b *builder) emit(until tzperiod.Time, utcOff, save int64, abbr string) {
	if until <= b.from {
		return
	}
	if n := len(b.periods); n > 0 {
		if p := &b.periods[n-1]; p.UTCOffset == utcOff && p.StdOffset == save && p.Abbr == abbr {
			p.Until = tzperiod.NewBoundary(until, utcOff, save)
			b.from = until
			return
		}
	}
	b.periods = append(b.periods, tzperiod.Period{
		UTCOffset: utcOff,
		StdOffset: save,
		From:      tzperiod.NewBoundary(b.from, utcOff, save),
		Until:     tzperiod.NewBoundary(until, utcOff, save),
		Abbr:      abbr,
	})
	b.from = until
}

// until returns the end of the zone line in universal time, read with the
// offsets in effect just before it.
func until(l tzdata.ZoneLine, utcOff, save int64) tzperiod.Time {
	if !l.Until.Defined {
		return tzperiod.Max
	}
	m := tzexpand.Earliest(l.Until)
	return tzperiod.Time(tzexpand.ToUTC(m.Seconds(), m.Time.Form, utcOff, save))
}

// fixed handles a zone line without rules or with a fixed amount of saved time.
func (b *builder) fixed(l tzdata.ZoneLine, save int64) {
	utcOff := seconds(l.Offset)
	b.emit(until(l, utcOff, save), utcOff, save, Abbreviation(l.Format, "", utcOff, save))
}

// named handles a zone line with a named rule set.
//
// Transitions at or before the start of the line only update the state, so
// the line starts with the rule in effect at its start. Without such a
// transition it starts in standard time with the letter of the first
// transition into standard time.
func (b *builder) named(l tzdata.ZoneLine, rs []tzdata.Rule) {
	utcOff := seconds(l.Offset)

	first := b.opts.MinYear
	if y, ok := tzexpand.FirstYear(rs); ok && y > first {
		first = y
	}
	last := b.opts.MaxYear
	if l.Until.Defined {
		last = tzexpand.Earliest(l.Until).Year
	}
	ts := tzexpand.ExpandRules(rs, first, last)

	var save int64
	letter := firstStandardLetter(ts)
	for _, t := range ts {
		at := tzperiod.Time(tzexpand.ToUTC(t.At.Seconds(), t.At.Time.Form, utcOff, save))
		if at > b.from {
			if at >= until(l, utcOff, save) {
				break
			}
			b.emit(at, utcOff, save, Abbreviation(l.Format, letter, utcOff, save))
		}
		save, letter = t.Rule.Save.Seconds(), t.Rule.Letter
	}
	b.emit(until(l, utcOff, save), utcOff, save, Abbreviation(l.Format, letter, utcOff, save))
}

// seconds rounds d to whole seconds.
func seconds(d time.Duration) int64 {
	return int64(d.Round(time.Second) / time.Second)
}

func firstStandardLetter(ts []tzexpand.Transition) string {
	for _, t := range ts {
		if t.Rule.Save.Duration == 0 {
			return t.Rule.Letter
		}
	}
	return ""
}

// Abbreviation formats the FORMAT column of a zone line.
//
//	CE%sT    %s is replaced by the rule letter
//	GMT/BST  the part before the slash in standard time, after it otherwise
//	%z       the total UTC offset as +hh, +hhmm or +hhmmss
func Abbreviation(format, letter string, utcOff, save int64) string {
	if std, dst, ok := strings.Cut(format, "/"); ok {
		if save == 0 {
			return std
		}
		return dst
	}
	if strings.Contains(format, "%s") {
		return strings.Replace(format, "%s", letter, 1)
	}
	if strings.Contains(format, "%z") {
		return strings.Replace(format, "%z", numericOffset(utcOff+save), 1)
	}
	return format
}

func numericOffset(off int64) string {
	sign := '+'
	if off < 0 {
		sign, off = '-', -off
	}
	h, m, s := off/3600, off/60%60, off%60
	switch {
	case s != 0:
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, s)
	case m != 0:
		return fmt.Sprintf("%c%02d%02d", sign, h, m)
	default:
		return fmt.Sprintf("%c%02d", sign, h)
	}
}
