package flexbuffers

import (
	"fmt"

	intr "github.com/dadrian/flexbuffers/internal"
)

// BitWidth is the width of a stored slot: 8, 16, 32 or 64 bits.
type BitWidth = intr.BitWidth

const (
	Width8  = intr.Width8
	Width16 = intr.Width16
	Width32 = intr.Width32
	Width64 = intr.Width64
)

// ValueType tags every value stored in a buffer.
type ValueType byte

const (
	TypeNull          ValueType = 0
	TypeInt           ValueType = 1
	TypeUInt          ValueType = 2
	TypeFloat         ValueType = 3
	TypeKey           ValueType = 4
	TypeString        ValueType = 5
	TypeIndirectInt   ValueType = 6
	TypeIndirectUInt  ValueType = 7
	TypeIndirectFloat ValueType = 8
	TypeMap           ValueType = 9
	TypeVector        ValueType = 10
	TypeVectorInt     ValueType = 11
	TypeVectorUInt    ValueType = 12
	TypeVectorFloat   ValueType = 13
	TypeVectorKey     ValueType = 14
	TypeVectorString  ValueType = 15
	TypeVectorInt2    ValueType = 16
	TypeVectorUInt2   ValueType = 17
	TypeVectorFloat2  ValueType = 18
	TypeVectorInt3    ValueType = 19
	TypeVectorUInt3   ValueType = 20
	TypeVectorFloat3  ValueType = 21
	TypeVectorInt4    ValueType = 22
	TypeVectorUInt4   ValueType = 23
	TypeVectorFloat4  ValueType = 24
	TypeBlob          ValueType = 25
	TypeBool          ValueType = 26
	TypeVectorBool    ValueType = 36
)

var typeNames = map[ValueType]string{
	TypeNull:          "Null",
	TypeInt:           "Int",
	TypeUInt:          "UInt",
	TypeFloat:         "Float",
	TypeKey:           "Key",
	TypeString:        "String",
	TypeIndirectInt:   "IndirectInt",
	TypeIndirectUInt:  "IndirectUInt",
	TypeIndirectFloat: "IndirectFloat",
	TypeMap:           "Map",
	TypeVector:        "Vector",
	TypeVectorInt:     "VectorInt",
	TypeVectorUInt:    "VectorUInt",
	TypeVectorFloat:   "VectorFloat",
	TypeVectorKey:     "VectorKey",
	TypeVectorString:  "VectorString",
	TypeVectorInt2:    "VectorInt2",
	TypeVectorUInt2:   "VectorUInt2",
	TypeVectorFloat2:  "VectorFloat2",
	TypeVectorInt3:    "VectorInt3",
	TypeVectorUInt3:   "VectorUInt3",
	TypeVectorFloat3:  "VectorFloat3",
	TypeVectorInt4:    "VectorInt4",
	TypeVectorUInt4:   "VectorUInt4",
	TypeVectorFloat4:  "VectorFloat4",
	TypeBlob:          "Blob",
	TypeBool:          "Bool",
	TypeVectorBool:    "VectorBool",
}

func (t ValueType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(%d)", byte(t))
}

// IsInline reports whether values of type t are stored in their slot
// rather than behind a back-offset.
func (t ValueType) IsInline() bool { return t <= TypeFloat || t == TypeBool }

// IsNumber covers the direct numeric types only.
func (t ValueType) IsNumber() bool { return t >= TypeInt && t <= TypeFloat }

func (t ValueType) IsIndirectNumber() bool { return t >= TypeIndirectInt && t <= TypeIndirectFloat }

// IsTypedVectorElement reports whether a homogeneous run of t can be stored
// as a typed vector.
func (t ValueType) IsTypedVectorElement() bool {
	return (t >= TypeInt && t <= TypeString) || t == TypeBool
}

func (t ValueType) IsTypedVector() bool {
	return (t >= TypeVectorInt && t <= TypeVectorString) || t == TypeVectorBool
}

func (t ValueType) IsFixedTypedVector() bool {
	return t >= TypeVectorInt2 && t <= TypeVectorFloat4
}

// IsAVector is true for untyped, typed and fixed typed vectors. Maps are
// not vectors.
func (t ValueType) IsAVector() bool {
	return t == TypeVector || t.IsTypedVector() || t.IsFixedTypedVector()
}

// toTypedVector maps an element type to its typed vector type. fixedLen is
// 0 for a variable length vector or 2..4 for a fixed one.
func toTypedVector(t ValueType, fixedLen int) ValueType {
	switch fixedLen {
	case 0:
		return t - TypeInt + TypeVectorInt
	case 2:
		return t - TypeInt + TypeVectorInt2
	case 3:
		return t - TypeInt + TypeVectorInt3
	case 4:
		return t - TypeInt + TypeVectorInt4
	}
	panic(fmt.Sprintf("flexbuffers: no fixed typed vector of length %d", fixedLen))
}

func typedVectorElementType(t ValueType) ValueType { return t - TypeVectorInt + TypeInt }

func fixedTypedVectorElementType(t ValueType) ValueType {
	return (t-TypeVectorInt2)%3 + TypeInt
}

func fixedTypedVectorElementSize(t ValueType) int {
	return int(t-TypeVectorInt2)/3 + 2
}

// PackedType combines a value type and a width into the byte stored next
// to every untyped value.
type PackedType byte

func NewPackedType(t ValueType, w BitWidth) PackedType {
	return PackedType(byte(t)<<2 | byte(w&3))
}

func (p PackedType) Type() ValueType { return ValueType(p >> 2) }
func (p PackedType) Width() BitWidth { return BitWidth(p & 3) }
func (p PackedType) ByteWidth() int { return p.Width().ByteWidth() }
func (p PackedType) String() string { return fmt.Sprintf("%v/%v", p.Type(), p.Width()) }
