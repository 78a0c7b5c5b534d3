package flexbuffers

import (
	"maps"
	"reflect"
	"slices"
	"sort"

	intr "github.com/dadrian/flexbuffers/internal"
)

// Add pushes any Go value, choosing the FlexBuffer type from its shape:
//
//	nil, nil pointers, nil slices and nil maps   Null
//	bool                                         Bool
//	signed integers                              Int
//	unsigned integers                            UInt
//	float32, float64                             Float
//	string                                       String
//	[]byte                                       Blob
//	slices and arrays                            Vector (typed when homogeneous)
//	maps with string keys, structs               Map
//
// Map keys are sorted before they are added, so the map is written without
// a second sort. Struct fields are named by the `flexbuffers` tag or the
// field name. Other kinds fail with ErrUnsupportedValue.
func (b *Builder) Add(v any) error {
	switch x := v.(type) {
	case nil:
		return b.AddNull()
	case bool:
		return b.AddBool(x)
	case int:
		return b.AddInt(int64(x))
	case int8:
		return b.AddInt(int64(x))
	case int16:
		return b.AddInt(int64(x))
	case int32:
		return b.AddInt(int64(x))
	case int64:
		return b.AddInt(x)
	case uint:
		return b.AddUInt(uint64(x))
	case uint8:
		return b.AddUInt(uint64(x))
	case uint16:
		return b.AddUInt(uint64(x))
	case uint32:
		return b.AddUInt(uint64(x))
	case uint64:
		return b.AddUInt(x)
	case float32:
		return b.AddFloat(float64(x))
	case float64:
		return b.AddFloat(x)
	case string:
		return b.AddString(x)
	case []byte:
		if x == nil {
			return b.AddNull()
		}
		return b.AddBlob(x)
	case []any:
		if x == nil {
			return b.AddNull()
		}
		if err := b.StartVector(); err != nil {
			return err
		}
		for _, e := range x {
			if err := b.Add(e); err != nil {
				return err
			}
		}
		return b.End()
	case map[string]any:
		if x == nil {
			return b.AddNull()
		}
		if err := b.StartMap(true); err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(x)) {
			if err := b.AddKey(k); err != nil {
				return err
			}
			if err := b.Add(x[k]); err != nil {
				return err
			}
		}
		return b.End()
	}
	return b.addValue(reflect.ValueOf(v))
}

func (b *Builder) addValue(rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return b.AddNull()
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return b.AddNull()
	case reflect.Bool:
		return b.AddBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return b.AddInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return b.AddUInt(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return b.AddFloat(rv.Float())
	case reflect.String:
		return b.AddString(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return b.AddNull()
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return b.AddBlob(rv.Bytes())
		}
		return b.addVector(rv)
	case reflect.Array:
		return b.addVector(rv)
	case reflect.Map:
		if rv.IsNil() {
			return b.AddNull()
		}
		return b.addMap(rv)
	case reflect.Struct:
		return b.addStruct(rv)
	default:
		if err := b.checkValue(); err != nil {
			return err
		}
		return b.fail(newError(ErrUnsupportedValueKind, b.offset, "cannot add %s", rv.Type()))
	}
}

func (b *Builder) addVector(rv reflect.Value) error {
	if err := b.StartVector(); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := b.addValue(rv.Index(i)); err != nil {
			return err
		}
	}
	return b.End()
}

func (b *Builder) addMap(rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		if err := b.checkValue(); err != nil {
			return err
		}
		return b.fail(newError(ErrUnsupportedValueKind, b.offset, "map key type %s is not a string", rv.Type().Key()))
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	if err := b.StartMap(true); err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.AddKey(k.String()); err != nil {
			return err
		}
		if err := b.addValue(rv.MapIndex(k)); err != nil {
			return err
		}
	}
	return b.End()
}

func (b *Builder) addStruct(rv reflect.Value) error {
	type fieldInfo struct {
		name  string
		value reflect.Value
	}
	rt := rv.Type()
	var fields []fieldInfo
	for i := 0; i < rt.NumField(); i++ {
		name, omitempty, ok := intr.ParseFlexTag(rt.Field(i))
		if !ok {
			continue
		}
		fv := rv.Field(i)
		if omitempty && fv.IsZero() {
			continue
		}
		fields = append(fields, fieldInfo{name: name, value: fv})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
	if err := b.StartMap(true); err != nil {
		return err
	}
	for _, f := range fields {
		if err := b.AddKey(f.name); err != nil {
			return err
		}
		if err := b.addValue(f.value); err != nil {
			return err
		}
	}
	return b.End()
}
