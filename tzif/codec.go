package tzif

import (
	"fmt"
	"io"
	"math"
)

// Data is a complete TZif file.
type Data struct {
	Version Version

	V1Header Header
	V1Data   DataBlock

	// The fields below are unset for V1 files.
	V2Header Header
	V2Data   DataBlock
	Footer   Footer
}

// NewData assembles a file of version v from its blocks, deriving the headers.
func NewData(v Version, v1 DataBlock, v2 DataBlock, footer Footer) Data {
	d := Data{
		Version:  v,
		V1Header: v1.Header(v),
		V1Data:   v1,
	}
	if v > V1 {
		d.V2Header = v2.Header(v)
		d.V2Data = v2
		d.Footer = footer
	}
	return d
}

// Encode writes d to w. The version 2+ parts are only written for V2 and later.
func (d Data) Encode(w io.Writer) error {
	if err := d.V1Header.Write(w); err != nil {
		return fmt.Errorf("write v1 header: %w", err)
	}
	if err := d.V1Data.Write(w, V1TimeSize); err != nil {
		return fmt.Errorf("write v1 data: %w", err)
	}
	if d.Version == V1 {
		return nil
	}
	if err := d.V2Header.Write(w); err != nil {
		return fmt.Errorf("write v2 header: %w", err)
	}
	if err := d.V2Data.Write(w, V2TimeSize); err != nil {
		return fmt.Errorf("write v2 data: %w", err)
	}
	if err := d.Footer.Write(w); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

// DecodeData reads a TZif file from r.
func DecodeData(r io.Reader) (Data, error) {
	var (
		d   Data
		err error
	)
	d.V1Header, err = ReadHeader(r)
	if err != nil {
		return d, fmt.Errorf("read v1 header: %w", err)
	}
	d.Version = d.V1Header.Version

	d.V1Data, err = ReadDataBlock(r, d.V1Header, V1TimeSize)
	if err != nil {
		return d, fmt.Errorf("read v1 data block: %w", err)
	}
	if d.Version == V1 {
		return d, nil
	}

	d.V2Header, err = ReadHeader(r)
	if err != nil {
		return d, fmt.Errorf("read v2 header: %w", err)
	}
	d.V2Data, err = ReadDataBlock(r, d.V2Header, V2TimeSize)
	if err != nil {
		return d, fmt.Errorf("read v2 data block: %w", err)
	}
	d.Footer, err = ReadFooter(r)
	if err != nil {
		return d, fmt.Errorf("read footer: %w", err)
	}
	return d, nil
}

// Transition is a change of local time type in a decoded file.
type Transition struct {
	// At is the Unix time of the change, math.MinInt64 for the type in
	// effect before the first transition.
	At     int64
	Utoff  int32
	Dst    bool
	Abbrev string
}

// Transitions lists the local time types of d in order, starting with the
// type in effect before the first transition. The 64-bit block is used
// when present.
func (d Data) Transitions() ([]Transition, error) {
	b := d.V1Data
	if d.Version > V1 {
		b = d.V2Data
	}
	typ := func(at int64, i uint8) (Transition, error) {
		if int(i) >= len(b.LocalTimeTypes) {
			return Transition{}, fmt.Errorf("type index %d out of range [0, %d)", i, len(b.LocalTimeTypes))
		}
		r := b.LocalTimeTypes[i]
		abbr, err := b.Designation(r.Idx)
		if err != nil {
			return Transition{}, err
		}
		return Transition{At: at, Utoff: r.Utoff, Dst: r.Dst, Abbrev: abbr}, nil
	}
	first, err := typ(math.MinInt64, 0)
	if err != nil {
		return nil, err
	}
	ts := []Transition{first}
	for i, at := range b.TransitionTimes {
		if i >= len(b.TransitionTypes) {
			return nil, fmt.Errorf("transition %d has no type", i)
		}
		t, err := typ(at, b.TransitionTypes[i])
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
		ts = append(ts, t)
	}
	return ts, nil
}
