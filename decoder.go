package flexbuffers

import (
	"reflect"

	intr "github.com/dadrian/flexbuffers/internal"
)

// Decode stores the value r refers to in v, which must be a non-nil
// pointer. Maps decode into structs by field name or `flexbuffers` tag;
// keys with no matching field are ignored. Null leaves the zero value.
func (r *Reference) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Kind: ErrTypeMismatchKind, Detail: "Decode target must be non-nil pointer"}
	}
	return r.decodeInto(rv.Elem())
}

func (r *Reference) decodeInto(dst reflect.Value) error {
	switch {
	case dst.Kind() == reflect.Interface && dst.NumMethod() == 0:
		obj, err := r.ToObject()
		if err != nil {
			return err
		}
		if obj == nil {
			dst.Set(reflect.Zero(dst.Type()))
		} else {
			dst.Set(reflect.ValueOf(obj))
		}
		return nil
	case r.IsNull():
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	case dst.Kind() == reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return r.decodeInto(dst.Elem())
	}

	switch dst.Kind() {
	case reflect.Bool:
		v, err := r.BoolValue()
		if err != nil {
			return err
		}
		dst.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := r.IntValue()
		if err != nil {
			return err
		}
		if dst.OverflowInt(v) {
			return newError(ErrTypeMismatchKind, r.offset, "%s: %d overflows %s", r.Path(), v, dst.Type())
		}
		dst.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v, err := r.UIntValue()
		if err != nil {
			return err
		}
		if dst.OverflowUint(v) {
			return newError(ErrTypeMismatchKind, r.offset, "%s: %d overflows %s", r.Path(), v, dst.Type())
		}
		dst.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := r.asFloat()
		if err != nil {
			return err
		}
		dst.SetFloat(v)
	case reflect.String:
		v, err := r.StringValue()
		if err != nil {
			return err
		}
		dst.SetString(v)
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 && (r.IsBlob() || r.IsString()) {
			p, err := r.payload()
			if err != nil {
				return err
			}
			dst.SetBytes(append([]byte{}, p...))
			return nil
		}
		n, err := r.vectorLength()
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(dst.Type(), n, n)
		if err := r.decodeElements(s, n); err != nil {
			return err
		}
		dst.Set(s)
	case reflect.Array:
		n, err := r.vectorLength()
		if err != nil {
			return err
		}
		if n > dst.Len() {
			return newError(ErrIndexOutOfRangeKind, r.offset, "%s: %d elements into %s", r.Path(), n, dst.Type())
		}
		if err := r.decodeElements(dst, n); err != nil {
			return err
		}
		for i := n; i < dst.Len(); i++ {
			dst.Index(i).Set(reflect.Zero(dst.Type().Elem()))
		}
	case reflect.Map:
		return r.decodeMap(dst)
	case reflect.Struct:
		return r.decodeStruct(dst)
	default:
		return newError(ErrTypeMismatchKind, r.offset, "%s: cannot decode into %s", r.Path(), dst.Type())
	}
	return nil
}

func (r *Reference) asFloat() (float64, error) {
	switch {
	case r.IsInt():
		v, err := r.IntValue()
		return float64(v), err
	case r.IsUInt():
		v, err := r.UIntValue()
		return float64(v), err
	}
	return r.FloatValue()
}

func (r *Reference) vectorLength() (int, error) {
	if !r.IsVector() {
		return 0, r.mismatch("a vector")
	}
	return r.Length()
}

func (r *Reference) decodeElements(dst reflect.Value, n int) error {
	for i := 0; i < n; i++ {
		e, err := r.Index(i)
		if err != nil {
			return err
		}
		if err := e.decodeInto(dst.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reference) decodeMap(dst reflect.Value) error {
	if !r.IsMap() {
		return r.mismatch("a map")
	}
	kt := dst.Type().Key()
	if kt.Kind() != reflect.String {
		return newError(ErrTypeMismatchKind, r.offset, "%s: map key type %s is not a string", r.Path(), kt)
	}
	n, err := r.Length()
	if err != nil {
		return err
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMapWithSize(dst.Type(), n))
	}
	for i := 0; i < n; i++ {
		k, err := r.KeyAt(i)
		if err != nil {
			return err
		}
		v, err := r.ValueAt(i)
		if err != nil {
			return err
		}
		ev := reflect.New(dst.Type().Elem()).Elem()
		if err := v.decodeInto(ev); err != nil {
			return err
		}
		dst.SetMapIndex(reflect.ValueOf(k).Convert(kt), ev)
	}
	return nil
}

func (r *Reference) decodeStruct(dst reflect.Value) error {
	if !r.IsMap() {
		return r.mismatch("a map")
	}
	rt := dst.Type()
	nameToIndex := make(map[string]int)
	for i := 0; i < rt.NumField(); i++ {
		if name, _, ok := intr.ParseFlexTag(rt.Field(i)); ok {
			nameToIndex[name] = i
		}
	}
	n, err := r.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		k, err := r.KeyAt(i)
		if err != nil {
			return err
		}
		idx, ok := nameToIndex[k]
		if !ok {
			// unknown field: ignore
			continue
		}
		v, err := r.ValueAt(i)
		if err != nil {
			return err
		}
		if err := v.decodeInto(dst.Field(idx)); err != nil {
			return err
		}
	}
	return nil
}
