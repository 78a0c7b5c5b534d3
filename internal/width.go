package internal

import "math"

// BitWidth is the storage width of a scalar or offset slot.
// Only the low two bits are meaningful: 8, 16, 32 or 64 bits.
type BitWidth uint8

const (
	Width8 BitWidth = iota
	Width16
	Width32
	Width64
)

// ByteWidth returns the number of bytes a slot of width w occupies.
func (w BitWidth) ByteWidth() int { return 1 << (w & 3) }

func (w BitWidth) String() string {
	switch w {
	case Width8:
		return "8"
	case Width16:
		return "16"
	case Width32:
		return "32"
	default:
		return "64"
	}
}

// FromByteWidth maps 1, 2 and 4 to their widths; anything else is 64 bits.
func FromByteWidth(n int) BitWidth {
	switch n {
	case 1:
		return Width8
	case 2:
		return Width16
	case 4:
		return Width32
	default:
		return Width64
	}
}

// WidthI returns the smallest width holding the signed integer v.
func WidthI(v int64) BitWidth {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return Width8
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return Width16
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return Width32
	default:
		return Width64
	}
}

// WidthU returns the smallest width holding the unsigned integer v.
func WidthU(v uint64) BitWidth {
	switch {
	case v <= math.MaxUint8:
		return Width8
	case v <= math.MaxUint16:
		return Width16
	case v <= math.MaxUint32:
		return Width32
	default:
		return Width64
	}
}

// WidthF returns Width32 when v survives a round trip through float32.
// NaN never compares equal and so always takes 64 bits.
func WidthF(v float64) BitWidth {
	if float64(float32(v)) == v {
		return Width32
	}
	return Width64
}

// PaddingFor returns how many bytes bring offset up to a multiple of
// byteWidth, which must be a power of two.
func PaddingFor(offset, byteWidth int) int {
	return -offset & (byteWidth - 1)
}
