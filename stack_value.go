package flexbuffers

import (
	"fmt"

	intr "github.com/dadrian/flexbuffers/internal"
)

// stackValue is a value pushed on the builder stack but not yet written
// into its parent. Inline values carry their scalar; all others carry the
// absolute offset of a payload already in the buffer.
type stackValue struct {
	typ    ValueType
	width  BitWidth
	ival   int64
	uval   uint64
	fval   float64
	offset int
}

func nullValue() stackValue { return stackValue{typ: TypeNull, width: Width8} }

func boolValue(v bool) stackValue {
	sv := stackValue{typ: TypeBool, width: Width8}
	if v {
		sv.uval = 1
	}
	return sv
}

func intValue(v int64) stackValue {
	return stackValue{typ: TypeInt, width: intr.WidthI(v), ival: v}
}

func uintValue(v uint64) stackValue {
	return stackValue{typ: TypeUInt, width: intr.WidthU(v), uval: v}
}

func floatValue(v float64) stackValue {
	return stackValue{typ: TypeFloat, width: intr.WidthF(v), fval: v}
}

func offsetValue(offset int, t ValueType, w BitWidth) stackValue {
	return stackValue{typ: t, width: w, offset: offset}
}

func (v stackValue) isOffset() bool { return !v.typ.IsInline() }

// elementWidth returns the narrowest width able to hold v in slot index of
// a vector whose data starts once the buffer, currently size bytes long, is
// aligned to that width.
func (v stackValue) elementWidth(size, index int) BitWidth {
	if v.typ.IsInline() {
		return v.width
	}
	for w := Width8; w <= Width64; w++ {
		bw := w.ByteWidth()
		loc := size + intr.PaddingFor(size, bw) + index*bw
		if intr.WidthU(uint64(loc-v.offset)).ByteWidth() <= bw {
			return w
		}
	}
	panic(fmt.Sprintf("flexbuffers: no width holds offset %d from %d at index %d", v.offset, size, index))
}

func (v stackValue) storedWidth(minWidth BitWidth) BitWidth {
	if v.typ.IsInline() {
		return max(minWidth, v.width)
	}
	return v.width
}

func (v stackValue) storedPackedType(minWidth BitWidth) PackedType {
	return NewPackedType(v.typ, v.storedWidth(minWidth))
}

// writeTo stores an inline value into buf at off using byteWidth bytes.
func (v stackValue) writeTo(buf []byte, off, byteWidth int) {
	switch v.typ {
	case TypeFloat:
		intr.PutFloat(buf, off, v.fval, byteWidth)
	case TypeInt:
		intr.PutInt(buf, off, v.ival, byteWidth)
	case TypeUInt, TypeBool, TypeNull:
		intr.PutUInt(buf, off, v.uval, byteWidth)
	default:
		panic(fmt.Sprintf("flexbuffers: %v is not an inline value", v.typ))
	}
}
