// Package tzif reads and writes the Time Zone Information Format of RFC 8536.
// https://datatracker.ietf.org/doc/html/rfc8536
package tzif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// All multi-octet integers are big-endian two's complement.
var order = binary.BigEndian

// Version identifies the format of a TZif file.
type Version byte

const (
	// V1 files carry only the 32-bit header and data block.
	V1 Version = 0x00
	// V2 files add a 64-bit header, data block and a POSIX TZ string footer.
	V2 Version = '2'
	// V3 files may use the TZ string extensions of RFC 8536 section 3.3.1.
	V3 Version = '3'
	// V4 files may truncate or expire the leap second table (tzfile(5)).
	V4 Version = '4'
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1 (0x00)"
	case V2, V3, V4:
		return fmt.Sprintf("V%c (0x%x)", byte(v), byte(v))
	default:
		return fmt.Sprintf("<undefined version (%d)>", v)
	}
}

// Size of a time value in the data block following a header.
const (
	V1TimeSize = 4
	V2TimeSize = 8
)

// Magic identifies a TZif file.
var Magic = [4]byte{'T', 'Z', 'i', 'f'}

// Header precedes each data block.
//
//	+---------------+---+
//	|  magic    (4) |ver|
//	+---------------+---+---------------------------------------+
//	|           [unused - reserved for future use] (15)         |
//	+---------------+---------------+---------------+-----------+
//	|  isutcnt  (4) |  isstdcnt (4) |  leapcnt  (4) |
//	+---------------+---------------+---------------+
//	|  timecnt  (4) |  typecnt  (4) |  charcnt  (4) |
//	+---------------+---------------+---------------+
type Header struct {
	Version  Version
	Reserved [15]byte
	// Isutcnt is zero or equal to Typecnt.
	Isutcnt uint32
	// Isstdcnt is zero or equal to Typecnt.
	Isstdcnt uint32
	Leapcnt  uint32
	Timecnt  uint32
	// Typecnt must not be zero.
	Typecnt uint32
	// Charcnt must not be zero. It includes the trailing NUL.
	Charcnt uint32
}

// Write writes the magic and the header to w.
func (h Header) Write(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	return binary.Write(w, order, h)
}

// ReadHeader reads a header including its magic.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return h, fmt.Errorf("reading magic: %w", err)
	}
	if magic != Magic {
		return h, fmt.Errorf("invalid magic: %q", magic[:])
	}
	if err := binary.Read(r, order, &h); err != nil {
		return h, fmt.Errorf("reading header: %w", err)
	}
	return h, nil
}

// DataBlock follows a header. Time values are held as int64 for both
// block sizes and narrowed to 32 bits when a version 1 block is written.
//
//	+---------------------------------------------------------+
//	|  transition times          (timecnt x TIME_SIZE)        |
//	+---------------------------------------------------------+
//	|  transition types          (timecnt)                    |
//	+---------------------------------------------------------+
//	|  local time type records   (typecnt x 6)                |
//	+---------------------------------------------------------+
//	|  time zone designations    (charcnt)                    |
//	+---------------------------------------------------------+
//	|  leap-second records       (leapcnt x (TIME_SIZE + 4))  |
//	+---------------------------------------------------------+
//	|  standard/wall indicators  (isstdcnt)                   |
//	+---------------------------------------------------------+
//	|  UT/local indicators       (isutcnt)                    |
//	+---------------------------------------------------------+
type DataBlock struct {
	// TransitionTimes are Unix times in strictly ascending order.
	TransitionTimes []int64
	// TransitionTypes index LocalTimeTypes, one per transition time.
	TransitionTypes []uint8
	// LocalTimeTypes are the offsets in effect between transitions. Type 0
	// applies before the first transition.
	LocalTimeTypes []LocalTimeTypeRecord
	// Designations is a series of NUL-terminated abbreviations.
	Designations []byte
	LeapSeconds  []LeapSecondRecord
	// StandardWall marks transitions given in standard time.
	StandardWall []bool
	// UTLocal marks transitions given in UT.
	UTLocal []bool
}

// LeapSecondRecord gives the total correction in effect from Occur on.
type LeapSecondRecord struct {
	Occur int64
	Corr  int32
}

// LocalTimeTypeRecord is one local time type.
//
//	+---------------+---+---+
//	|  utoff (4)    |dst|idx|
//	+---------------+---+---+
type LocalTimeTypeRecord struct {
	// Utoff is added to UT to get local time. It must not be -2**31.
	Utoff int32
	Dst   bool
	// Idx is the offset of the designation in the block's Designations.
	Idx uint8
}

// Header returns the header describing b.
func (b DataBlock) Header(v Version) Header {
	return Header{
		Version:  v,
		Isutcnt:  uint32(len(b.UTLocal)),
		Isstdcnt: uint32(len(b.StandardWall)),
		Leapcnt:  uint32(len(b.LeapSeconds)),
		Timecnt:  uint32(len(b.TransitionTimes)),
		Typecnt:  uint32(len(b.LocalTimeTypes)),
		Charcnt:  uint32(len(b.Designations)),
	}
}

// Designation returns the NUL-terminated string starting at idx.
func (b DataBlock) Designation(idx uint8) (string, error) {
	if int(idx) >= len(b.Designations) {
		return "", fmt.Errorf("designation index %d out of range [0, %d)", idx, len(b.Designations))
	}
	s := b.Designations[idx:]
	end := bytes.IndexByte(s, 0)
	if end < 0 {
		return "", fmt.Errorf("designation at %d is not NUL-terminated", idx)
	}
	return string(s[:end]), nil
}

// Write writes b with time values of timeSize octets.
func (b DataBlock) Write(w io.Writer, timeSize int) error {
	if timeSize != V1TimeSize && timeSize != V2TimeSize {
		return fmt.Errorf("invalid time size %d", timeSize)
	}
	var buf []byte
	putTime := func(t int64) error {
		if timeSize == V2TimeSize {
			buf = order.AppendUint64(buf, uint64(t))
			return nil
		}
		if t < math.MinInt32 || t > math.MaxInt32 {
			return fmt.Errorf("time %d does not fit in 32 bits", t)
		}
		buf = order.AppendUint32(buf, uint32(int32(t)))
		return nil
	}
	for _, t := range b.TransitionTimes {
		if err := putTime(t); err != nil {
			return fmt.Errorf("transition time: %w", err)
		}
	}
	buf = append(buf, b.TransitionTypes...)
	for _, r := range b.LocalTimeTypes {
		buf = order.AppendUint32(buf, uint32(r.Utoff))
		buf = append(buf, boolOctet(r.Dst), r.Idx)
	}
	buf = append(buf, b.Designations...)
	for _, r := range b.LeapSeconds {
		if err := putTime(r.Occur); err != nil {
			return fmt.Errorf("leap second occurrence: %w", err)
		}
		buf = order.AppendUint32(buf, uint32(r.Corr))
	}
	for _, v := range b.StandardWall {
		buf = append(buf, boolOctet(v))
	}
	for _, v := range b.UTLocal {
		buf = append(buf, boolOctet(v))
	}
	_, err := w.Write(buf)
	return err
}

// ReadDataBlock reads the data block described by h.
func ReadDataBlock(r io.Reader, h Header, timeSize int) (DataBlock, error) {
	var b DataBlock
	if timeSize != V1TimeSize && timeSize != V2TimeSize {
		return b, fmt.Errorf("invalid time size %d", timeSize)
	}
	size := int64(h.Timecnt)*int64(timeSize+1) +
		int64(h.Typecnt)*6 +
		int64(h.Charcnt) +
		int64(h.Leapcnt)*int64(timeSize+4) +
		int64(h.Isstdcnt) +
		int64(h.Isutcnt)
	buf := make([]byte, 0, min(size, 1<<20))
	buf, err := readN(r, buf, size)
	if err != nil {
		return b, fmt.Errorf("reading data block: %w", err)
	}

	getTime := func() int64 {
		var t int64
		if timeSize == V2TimeSize {
			t = int64(order.Uint64(buf))
		} else {
			t = int64(int32(order.Uint32(buf)))
		}
		buf = buf[timeSize:]
		return t
	}
	if h.Timecnt > 0 {
		b.TransitionTimes = make([]int64, h.Timecnt)
		for i := range b.TransitionTimes {
			b.TransitionTimes[i] = getTime()
		}
		b.TransitionTypes = append([]uint8(nil), buf[:h.Timecnt]...)
		buf = buf[h.Timecnt:]
	}
	if h.Typecnt > 0 {
		b.LocalTimeTypes = make([]LocalTimeTypeRecord, h.Typecnt)
		for i := range b.LocalTimeTypes {
			dst, err := octetBool(buf[4])
			if err != nil {
				return b, fmt.Errorf("local time type %d: isdst: %w", i, err)
			}
			b.LocalTimeTypes[i] = LocalTimeTypeRecord{
				Utoff: int32(order.Uint32(buf)),
				Dst:   dst,
				Idx:   buf[5],
			}
			buf = buf[6:]
		}
	}
	if h.Charcnt > 0 {
		b.Designations = append([]byte(nil), buf[:h.Charcnt]...)
		buf = buf[h.Charcnt:]
	}
	if h.Leapcnt > 0 {
		b.LeapSeconds = make([]LeapSecondRecord, h.Leapcnt)
		for i := range b.LeapSeconds {
			b.LeapSeconds[i].Occur = getTime()
			b.LeapSeconds[i].Corr = int32(order.Uint32(buf))
			buf = buf[4:]
		}
	}
	if b.StandardWall, err = indicators(buf[:h.Isstdcnt]); err != nil {
		return b, fmt.Errorf("standard/wall indicator: %w", err)
	}
	buf = buf[h.Isstdcnt:]
	if b.UTLocal, err = indicators(buf[:h.Isutcnt]); err != nil {
		return b, fmt.Errorf("UT/local indicator: %w", err)
	}
	return b, nil
}

func readN(r io.Reader, buf []byte, n int64) ([]byte, error) {
	w := bytes.NewBuffer(buf)
	copied, err := io.CopyN(w, r, n)
	if err != nil {
		if errors.Is(err, io.EOF) && copied < n {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return w.Bytes(), nil
}

func indicators(bs []byte) ([]bool, error) {
	if len(bs) == 0 {
		return nil, nil
	}
	vs := make([]bool, len(bs))
	for i, c := range bs {
		v, err := octetBool(c)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func boolOctet(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func octetBool(c byte) (bool, error) {
	switch c {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid value %d: must be 0 or 1", c)
	}
}

// Footer closes a version 2+ file.
//
//	+---+--------------------+---+
//	| NL|  TZ string (0...)  |NL |
//	+---+--------------------+---+
type Footer struct {
	// TZString is a POSIX TZ string for instants after the last
	// transition, or empty if that information is not available.
	TZString string
}

const newline = '\n'

// Write writes the footer to w.
func (f Footer) Write(w io.Writer) error {
	_, err := io.WriteString(w, "\n"+f.TZString+"\n")
	return err
}

// ReadFooter reads a footer.
func ReadFooter(r io.Reader) (Footer, error) {
	var f Footer
	var c [1]byte
	if _, err := io.ReadFull(r, c[:]); err != nil {
		return f, fmt.Errorf("reading newline: %w", err)
	}
	if c[0] != newline {
		return f, fmt.Errorf("expected newline, got %#x", c[0])
	}
	var s []byte
	for {
		if _, err := io.ReadFull(r, c[:]); err != nil {
			return f, fmt.Errorf("reading TZ string: %w", err)
		}
		if c[0] == newline {
			break
		}
		if c[0] == 0 {
			return f, errors.New("TZ string contains NUL")
		}
		s = append(s, c[0])
	}
	f.TZString = string(s)
	return f, nil
}
