package tzif

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ngrash/tzperiod/tzperiod"
)

// FromPeriods encodes the timeline of a zone as a version 2 file. The
// version 1 block is the minimal placeholder zic writes in slim mode, so
// readers that only understand 32-bit data see UTC.
//
// The footer carries a TZ string only when the last period is standard
// time; the transitions of daylight saving zones are listed up to the
// end of the compiled horizon instead.
func FromPeriods(ps []tzperiod.Period) (Data, error) {
	if len(ps) == 0 {
		return Data{}, errors.New("no periods")
	}

	type ltt struct {
		utoff int64
		dst   bool
		abbr  string
	}
	var (
		b       DataBlock
		types   = map[ltt]uint8{}
		desigs  = map[string]uint8{}
		typeFor = func(p tzperiod.Period) (uint8, error) {
			k := ltt{p.TotalOffset(), p.IsDST(), p.Abbr}
			if i, ok := types[k]; ok {
				return i, nil
			}
			if len(b.LocalTimeTypes) > math.MaxUint8 {
				return 0, errors.New("more than 256 local time types")
			}
			if k.utoff <= math.MinInt32 || k.utoff > math.MaxInt32 {
				return 0, fmt.Errorf("offset %d out of range", k.utoff)
			}
			idx, ok := desigs[k.abbr]
			if !ok {
				if len(b.Designations) > math.MaxUint8 {
					return 0, errors.New("time zone designations exceed 256 octets")
				}
				idx = uint8(len(b.Designations))
				desigs[k.abbr] = idx
				b.Designations = append(append(b.Designations, k.abbr...), 0)
			}
			i := uint8(len(b.LocalTimeTypes))
			types[k] = i
			b.LocalTimeTypes = append(b.LocalTimeTypes, LocalTimeTypeRecord{Utoff: int32(k.utoff), Dst: k.dst, Idx: idx})
			return i, nil
		}
	)

	if _, err := typeFor(ps[0]); err != nil {
		return Data{}, fmt.Errorf("period 0: %w", err)
	}
	prev := uint8(0)
	for i, p := range ps[1:] {
		typ, err := typeFor(p)
		if err != nil {
			return Data{}, fmt.Errorf("period %d: %w", i+1, err)
		}
		if typ == prev {
			continue
		}
		b.TransitionTimes = append(b.TransitionTimes, p.From.UTC.Unix())
		b.TransitionTypes = append(b.TransitionTypes, typ)
		prev = typ
	}

	slim := DataBlock{
		LocalTimeTypes: []LocalTimeTypeRecord{{}},
		Designations:   []byte{0},
	}
	return NewData(V2, slim, b, Footer{TZString: posixTZ(ps[len(ps)-1])}), nil
}

// posixTZ returns the TZ string of a standard time period, or "" if p
// observes daylight saving time or its abbreviation cannot be expressed.
func posixTZ(p tzperiod.Period) string {
	if p.IsDST() || len(p.Abbr) < 3 {
		return ""
	}
	var sb strings.Builder
	quoted := false
	for _, c := range p.Abbr {
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z':
		case '0' <= c && c <= '9', c == '+', c == '-':
			quoted = true
		default:
			return ""
		}
	}
	if quoted {
		sb.WriteString("<" + p.Abbr + ">")
	} else {
		sb.WriteString(p.Abbr)
	}

	// POSIX offsets are positive west of Greenwich.
	off := -p.TotalOffset()
	if off < 0 {
		sb.WriteByte('-')
		off = -off
	}
	h, m, s := off/3600, off/60%60, off%60
	fmt.Fprintf(&sb, "%d", h)
	if m != 0 || s != 0 {
		fmt.Fprintf(&sb, ":%02d", m)
	}
	if s != 0 {
		fmt.Fprintf(&sb, ":%02d", s)
	}
	return sb.String()
}
