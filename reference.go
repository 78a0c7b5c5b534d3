package flexbuffers

import (
	"math"
	"strconv"
	"sync"

	intr "github.com/dadrian/flexbuffers/internal"
)

// Reference is a read-only cursor onto one value inside a finished buffer.
// Nothing is parsed up front: each accessor decodes just the bytes it needs.
//
// The buffer must not change while References to it are in use. Any number
// of References may read the same buffer from different goroutines.
type Reference struct {
	buf         []byte
	offset      int
	parentWidth BitWidth
	packedType  PackedType
	path        string

	lengthOnce sync.Once
	length     int
	lengthErr  error
}

// GetRoot returns the root value of buf. The last byte holds the root's
// slot width and the one before it the root's packed type.
func GetRoot(buf []byte) (*Reference, error) {
	if len(buf) < 3 {
		return nil, newError(ErrBufferTooSmallKind, 0, "%d bytes", len(buf))
	}
	bw := int(buf[len(buf)-1])
	switch bw {
	case 1, 2, 4, 8:
	default:
		return nil, newError(ErrBadOffsetKind, len(buf)-1, "root byte width %d", bw)
	}
	off := len(buf) - bw - 2
	if off < 0 {
		return nil, newError(ErrBufferTooSmallKind, 0, "%d bytes for a %d byte root", len(buf), bw)
	}
	return newReference(buf, off, intr.FromByteWidth(bw), PackedType(buf[len(buf)-2]), ""), nil
}

func newReference(buf []byte, offset int, parentWidth BitWidth, pt PackedType, path string) *Reference {
	return &Reference{buf: buf, offset: offset, parentWidth: parentWidth, packedType: pt, path: path}
}

func (r *Reference) Type() ValueType        { return r.packedType.Type() }
func (r *Reference) PackedType() PackedType { return r.packedType }

// BitWidth is the width the value declares for its own payload.
func (r *Reference) BitWidth() BitWidth { return r.packedType.Width() }

// Path names the value by the indices and keys leading to it from the root.
func (r *Reference) Path() string {
	if r.path == "" {
		return "/"
	}
	return r.path
}

func (r *Reference) IsNull() bool { return r.Type() == TypeNull }
func (r *Reference) IsBool() bool { return r.Type() == TypeBool }

func (r *Reference) IsInt() bool {
	t := r.Type()
	return t == TypeInt || t == TypeIndirectInt
}

func (r *Reference) IsUInt() bool {
	t := r.Type()
	return t == TypeUInt || t == TypeIndirectUInt
}

func (r *Reference) IsFloat() bool {
	t := r.Type()
	return t == TypeFloat || t == TypeIndirectFloat
}

func (r *Reference) IsNumber() bool { return r.IsInt() || r.IsUInt() || r.IsFloat() }

// IsString is true for strings and keys.
func (r *Reference) IsString() bool {
	t := r.Type()
	return t == TypeString || t == TypeKey
}

func (r *Reference) IsKey() bool              { return r.Type() == TypeKey }
func (r *Reference) IsBlob() bool             { return r.Type() == TypeBlob }
func (r *Reference) IsVector() bool           { return r.Type().IsAVector() }
func (r *Reference) IsTypedVector() bool      { return r.Type().IsTypedVector() }
func (r *Reference) IsFixedTypedVector() bool { return r.Type().IsFixedTypedVector() }
func (r *Reference) IsMap() bool              { return r.Type() == TypeMap }

func (r *Reference) mismatch(want string) error {
	return newError(ErrTypeMismatchKind, r.offset, "%s: %v is not %s", r.Path(), r.Type(), want)
}

// indirect resolves the back-offset in this value's slot.
func (r *Reference) indirect() (int, error) {
	at, err := intr.Indirect(r.buf, r.offset, r.parentWidth)
	if err != nil {
		return 0, readError(r.Path(), err)
	}
	return at, nil
}

func (r *Reference) BoolValue() (bool, error) {
	if !r.IsBool() {
		return false, r.mismatch("a bool")
	}
	v, err := intr.ReadUInt(r.buf, r.offset, r.parentWidth)
	if err != nil {
		return false, readError(r.Path(), err)
	}
	return v != 0, nil
}

// IntValue reads signed integers, and unsigned ones that fit in an int64.
func (r *Reference) IntValue() (int64, error) {
	switch r.Type() {
	case TypeInt:
		v, err := intr.ReadInt(r.buf, r.offset, r.parentWidth)
		if err != nil {
			return 0, readError(r.Path(), err)
		}
		return v, nil
	case TypeIndirectInt:
		at, err := r.indirect()
		if err != nil {
			return 0, err
		}
		v, err := intr.ReadInt(r.buf, at, r.BitWidth())
		if err != nil {
			return 0, readError(r.Path(), err)
		}
		return v, nil
	case TypeUInt, TypeIndirectUInt:
		u, err := r.UIntValue()
		if err != nil {
			return 0, err
		}
		if u > math.MaxInt64 {
			return 0, newError(ErrTypeMismatchKind, r.offset, "%s: %d overflows int64", r.Path(), u)
		}
		return int64(u), nil
	}
	return 0, r.mismatch("an integer")
}

// UIntValue reads unsigned integers, and signed ones that are not negative.
func (r *Reference) UIntValue() (uint64, error) {
	switch r.Type() {
	case TypeUInt:
		v, err := intr.ReadUInt(r.buf, r.offset, r.parentWidth)
		if err != nil {
			return 0, readError(r.Path(), err)
		}
		return v, nil
	case TypeIndirectUInt:
		at, err := r.indirect()
		if err != nil {
			return 0, err
		}
		v, err := intr.ReadUInt(r.buf, at, r.BitWidth())
		if err != nil {
			return 0, readError(r.Path(), err)
		}
		return v, nil
	case TypeInt, TypeIndirectInt:
		i, err := r.IntValue()
		if err != nil {
			return 0, err
		}
		if i < 0 {
			return 0, newError(ErrTypeMismatchKind, r.offset, "%s: %d is negative", r.Path(), i)
		}
		return uint64(i), nil
	}
	return 0, r.mismatch("an unsigned integer")
}

func (r *Reference) FloatValue() (float64, error) {
	var (
		v   float64
		err error
	)
	switch r.Type() {
	case TypeFloat:
		v, err = intr.ReadFloat(r.buf, r.offset, r.parentWidth)
	case TypeIndirectFloat:
		var at int
		if at, err = r.indirect(); err != nil {
			return 0, err
		}
		v, err = intr.ReadFloat(r.buf, at, r.BitWidth())
	default:
		return 0, r.mismatch("a float")
	}
	if err != nil {
		return 0, readError(r.Path(), err)
	}
	return v, nil
}

// payload returns the bytes of a string, key or blob without copying.
func (r *Reference) payload() ([]byte, error) {
	at, err := r.indirect()
	if err != nil {
		return nil, err
	}
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	if at+n > len(r.buf) {
		return nil, newError(ErrBadOffsetKind, at, "%s: %d bytes run past the buffer", r.Path(), n)
	}
	return r.buf[at : at+n : at+n], nil
}

// StringValue returns the text of a string or key.
func (r *Reference) StringValue() (string, error) {
	if !r.IsString() {
		return "", r.mismatch("a string")
	}
	p, err := r.payload()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// BlobValue returns the blob's bytes. The slice aliases the buffer.
func (r *Reference) BlobValue() ([]byte, error) {
	if !r.IsBlob() {
		return nil, r.mismatch("a blob")
	}
	return r.payload()
}

// Length is the number of elements of a vector or map, the byte length of
// a string, key or blob, and 1 for everything else. It is computed once.
func (r *Reference) Length() (int, error) {
	r.lengthOnce.Do(func() {
		r.length, r.lengthErr = r.computeLength()
	})
	return r.length, r.lengthErr
}

func (r *Reference) computeLength() (int, error) {
	t := r.Type()
	bw := r.packedType.ByteWidth()
	switch {
	case t.IsFixedTypedVector():
		return fixedTypedVectorElementSize(t), nil
	case t == TypeBlob || t == TypeMap || t.IsAVector():
		at, err := r.indirect()
		if err != nil {
			return 0, err
		}
		return r.readSize(at, bw)
	case t == TypeString:
		at, err := r.indirect()
		if err != nil {
			return 0, err
		}
		// A string shared from a wider context may have a wider size
		// field than its packed type declares. Widen until the size
		// lands on the terminator.
		for sw := bw; ; sw <<= 1 {
			n, err := r.readSize(at, sw)
			if err != nil {
				return 0, err
			}
			if at+n < len(r.buf) && r.buf[at+n] == 0 {
				return n, nil
			}
			if sw == 8 {
				return 0, newError(ErrBadOffsetKind, at, "%s: string is not NUL terminated", r.Path())
			}
		}
	case t == TypeKey:
		at, err := r.indirect()
		if err != nil {
			return 0, err
		}
		n, err := intr.KeyLen(r.buf, at)
		if err != nil {
			return 0, readError(r.Path(), err)
		}
		return n, nil
	}
	return 1, nil
}

// readSize reads the byteWidth size field just before payload start at.
func (r *Reference) readSize(at, byteWidth int) (int, error) {
	n, err := intr.ReadUInt(r.buf, at-byteWidth, intr.FromByteWidth(byteWidth))
	if err != nil {
		return 0, readError(r.Path(), err)
	}
	if n > uint64(len(r.buf)) {
		return 0, newError(ErrBadOffsetKind, at-byteWidth, "%s: size %d exceeds buffer", r.Path(), n)
	}
	return int(n), nil
}

// Index returns element i of a vector.
func (r *Reference) Index(i int) (*Reference, error) {
	t := r.Type()
	if !t.IsAVector() {
		return nil, r.mismatch("a vector")
	}
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= n {
		return nil, newError(ErrIndexOutOfRangeKind, r.offset, "%s: index %d, length %d", r.Path(), i, n)
	}
	path := r.path + "[" + strconv.Itoa(i) + "]"
	switch {
	case t.IsTypedVector():
		return r.typedElement(i, typedVectorElementType(t), path)
	case t.IsFixedTypedVector():
		return r.typedElement(i, fixedTypedVectorElementType(t), path)
	}
	return r.element(i, n, path)
}

func (r *Reference) typedElement(i int, et ValueType, path string) (*Reference, error) {
	at, err := r.indirect()
	if err != nil {
		return nil, err
	}
	bw := r.packedType.ByteWidth()
	return newReference(r.buf, at+i*bw, r.BitWidth(), NewPackedType(et, Width8), path), nil
}

// element returns entry i of an untyped vector or map of n entries; the
// packed types follow the n slots.
func (r *Reference) element(i, n int, path string) (*Reference, error) {
	at, err := r.indirect()
	if err != nil {
		return nil, err
	}
	bw := r.packedType.ByteWidth()
	pt, err := intr.ReadUInt(r.buf, at+n*bw+i, Width8)
	if err != nil {
		return nil, readError(path, err)
	}
	return newReference(r.buf, at+i*bw, r.BitWidth(), PackedType(pt), path), nil
}

// Lookup returns the value stored under key by binary search over the
// map's sorted keys.
func (r *Reference) Lookup(key string) (*Reference, error) {
	if !r.IsMap() {
		return nil, r.mismatch("a map")
	}
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	i, ok, err := intr.KeyIndex([]byte(key), r.buf, r.offset, r.parentWidth, r.packedType.ByteWidth(), n)
	if err != nil {
		return nil, readError(r.Path(), err)
	}
	if !ok {
		return nil, newError(ErrKeyNotFoundKind, r.offset, "%s: key %q", r.Path(), key)
	}
	return r.element(i, n, r.path+"/"+key)
}

// Get indexes a vector with an int or looks up a map with a string.
func (r *Reference) Get(key any) (*Reference, error) {
	switch k := key.(type) {
	case int:
		return r.Index(k)
	case string:
		return r.Lookup(k)
	}
	return nil, newError(ErrTypeMismatchKind, r.offset, "%s: cannot get %T", r.Path(), key)
}

// KeyAt returns the i'th key of a map in sorted order.
func (r *Reference) KeyAt(i int) (string, error) {
	if _, err := r.mapIndex(i); err != nil {
		return "", err
	}
	k, err := intr.KeyForIndex(r.buf, i, r.offset, r.parentWidth, r.packedType.ByteWidth())
	if err != nil {
		return "", readError(r.Path(), err)
	}
	return string(k), nil
}

// ValueAt returns the value paired with KeyAt(i).
func (r *Reference) ValueAt(i int) (*Reference, error) {
	n, err := r.mapIndex(i)
	if err != nil {
		return nil, err
	}
	k, err := r.KeyAt(i)
	if err != nil {
		return nil, err
	}
	return r.element(i, n, r.path+"/"+k)
}

func (r *Reference) mapIndex(i int) (int, error) {
	if !r.IsMap() {
		return 0, r.mismatch("a map")
	}
	n, err := r.Length()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, newError(ErrIndexOutOfRangeKind, r.offset, "%s: index %d, length %d", r.Path(), i, n)
	}
	return n, nil
}

// Keys returns the keys of a map in stored (sorted) order.
func (r *Reference) Keys() ([]string, error) {
	if !r.IsMap() {
		return nil, r.mismatch("a map")
	}
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	keys := make([]string, n)
	for i := range keys {
		if keys[i], err = r.KeyAt(i); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// ToObject converts the value and everything below it into plain Go
// values: nil, bool, int64, uint64, float64, string, []byte (copied),
// []any and map[string]any.
func (r *Reference) ToObject() (any, error) {
	switch {
	case r.IsVector():
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := range out {
			e, err := r.Index(i)
			if err != nil {
				return nil, err
			}
			if out[i], err = e.ToObject(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case r.IsMap():
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, n)
		for i := 0; i < n; i++ {
			k, err := r.KeyAt(i)
			if err != nil {
				return nil, err
			}
			v, err := r.element(i, n, r.path+"/"+k)
			if err != nil {
				return nil, err
			}
			if out[k], err = v.ToObject(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case r.IsNull():
		return nil, nil
	case r.IsBool():
		return r.BoolValue()
	case r.IsInt():
		return r.IntValue()
	case r.IsUInt():
		return r.UIntValue()
	case r.IsFloat():
		return r.FloatValue()
	case r.IsString():
		return r.StringValue()
	case r.IsBlob():
		p, err := r.BlobValue()
		if err != nil {
			return nil, err
		}
		return append([]byte{}, p...), nil
	}
	return nil, r.mismatch("a known value")
}
