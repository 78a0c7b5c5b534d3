package internal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var le = binary.LittleEndian

var errFloatWidth = errors.New("float width must be 32 or 64 bits")

// OffsetError reports a read that would leave the buffer or that is not
// aligned to its own width.
type OffsetError struct {
	Offset int
	Width  BitWidth
	Len    int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("bad offset %d for %s-bit read in %d-byte buffer", e.Offset, e.Width, e.Len)
}

// ValidateOffset checks that a w-wide read at off stays inside buf and is
// aligned to its own byte width.
func ValidateOffset(buf []byte, off int, w BitWidth) error {
	bw := w.ByteWidth()
	if off < 0 || off+bw > len(buf) || off&(bw-1) != 0 {
		return &OffsetError{Offset: off, Width: w, Len: len(buf)}
	}
	return nil
}

func ReadUInt(buf []byte, off int, w BitWidth) (uint64, error) {
	if err := ValidateOffset(buf, off, w); err != nil {
		return 0, err
	}
	switch w {
	case Width8:
		return uint64(buf[off]), nil
	case Width16:
		return uint64(le.Uint16(buf[off:])), nil
	case Width32:
		return uint64(le.Uint32(buf[off:])), nil
	default:
		return le.Uint64(buf[off:]), nil
	}
}

func ReadInt(buf []byte, off int, w BitWidth) (int64, error) {
	if err := ValidateOffset(buf, off, w); err != nil {
		return 0, err
	}
	switch w {
	case Width8:
		return int64(int8(buf[off])), nil
	case Width16:
		return int64(int16(le.Uint16(buf[off:]))), nil
	case Width32:
		return int64(int32(le.Uint32(buf[off:]))), nil
	default:
		return int64(le.Uint64(buf[off:])), nil
	}
}

func ReadFloat(buf []byte, off int, w BitWidth) (float64, error) {
	if w != Width32 && w != Width64 {
		return 0, errFloatWidth
	}
	if err := ValidateOffset(buf, off, w); err != nil {
		return 0, err
	}
	if w == Width32 {
		return float64(math.Float32frombits(le.Uint32(buf[off:]))), nil
	}
	return math.Float64frombits(le.Uint64(buf[off:])), nil
}

// Indirect follows the back-offset stored at off.
func Indirect(buf []byte, off int, w BitWidth) (int, error) {
	step, err := ReadUInt(buf, off, w)
	if err != nil {
		return 0, err
	}
	if step > uint64(off) {
		return 0, &OffsetError{Offset: off, Width: w, Len: len(buf)}
	}
	return off - int(step), nil
}

// PutUInt stores the low byteWidth bytes of v at off.
func PutUInt(buf []byte, off int, v uint64, byteWidth int) {
	switch byteWidth {
	case 1:
		buf[off] = byte(v)
	case 2:
		le.PutUint16(buf[off:], uint16(v))
	case 4:
		le.PutUint32(buf[off:], uint32(v))
	default:
		le.PutUint64(buf[off:], v)
	}
}

// PutInt stores v in two's complement.
func PutInt(buf []byte, off int, v int64, byteWidth int) {
	PutUInt(buf, off, uint64(v), byteWidth)
}

// PutFloat stores v as IEEE-754 single precision when byteWidth is 4 and
// double precision otherwise.
func PutFloat(buf []byte, off int, v float64, byteWidth int) {
	if byteWidth == 4 {
		le.PutUint32(buf[off:], math.Float32bits(float32(v)))
		return
	}
	le.PutUint64(buf[off:], math.Float64bits(v))
}
