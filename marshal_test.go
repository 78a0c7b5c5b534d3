package flexbuffers

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type point struct {
	X int `flexbuffers:"x"`
	Y int `flexbuffers:"y"`
}

type record struct {
	Name    string
	Count   uint16
	Ratio   float64
	Tags    []string `flexbuffers:"tags"`
	Origin  *point   `flexbuffers:"origin"`
	Path    [2]point
	Extra   map[string]int
	Data    []byte
	Note    string `flexbuffers:"note,omitempty"`
	Ignored string `flexbuffers:"-"`
	Any     any
}

// assertRoundtrip marshals v, unmarshals into a fresh value of the same
// type and compares against want.
func assertRoundtrip[T any](t *testing.T, v, want T) {
	t.Helper()
	buf, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got T
	if err := Unmarshal(buf, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalStruct(t *testing.T) {
	in := record{
		Name:    "route",
		Count:   300,
		Ratio:   0.25,
		Tags:    []string{"a", "b"},
		Origin:  &point{X: -1, Y: 2},
		Path:    [2]point{{1, 2}, {3, 4}},
		Extra:   map[string]int{"k": 1 << 40},
		Data:    []byte{0, 1, 2},
		Ignored: "dropped",
		Any:     []any{"x", int64(1)},
	}
	want := in
	want.Ignored = ""
	assertRoundtrip(t, in, want)
}

func TestMarshalStructKeys(t *testing.T) {
	buf, err := Marshal(record{Note: "n"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root, err := GetRoot(buf)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	keys, err := root.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"Any", "Count", "Data", "Extra", "Name", "Path", "Ratio", "note", "origin", "tags"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}

	buf, err = Marshal(record{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root, _ = GetRoot(buf)
	if _, err := root.Lookup("note"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("empty note was written: %v", err)
	}
	origin, err := root.Lookup("origin")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !origin.IsNull() {
		t.Errorf("nil pointer stored as %v", origin.Type())
	}
}

func TestMarshalScalars(t *testing.T) {
	assertRoundtrip(t, int8(-5), int8(-5))
	assertRoundtrip(t, uint32(1<<31), uint32(1<<31))
	assertRoundtrip(t, float32(2.5), float32(2.5))
	assertRoundtrip(t, "text", "text")
	assertRoundtrip(t, true, true)
	assertRoundtrip(t, []int{}, []int{})
	assertRoundtrip(t, map[string]string{"a": "b"}, map[string]string{"a": "b"})
	assertRoundtrip[[]int](t, nil, nil)
	assertRoundtrip[*point](t, nil, nil)
}

func TestUnmarshalConversions(t *testing.T) {
	buf, err := Marshal(map[string]any{"ints": []any{1, 2}, "u": uint8(7), "s": "str"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var loose struct {
		Ints  [3]float64 `flexbuffers:"ints"`
		U     int        `flexbuffers:"u"`
		S     []byte     `flexbuffers:"s"`
		Other string
	}
	if err := Unmarshal(buf, &loose); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if loose.Ints != [3]float64{1, 2, 0} || loose.U != 7 || string(loose.S) != "str" {
		t.Errorf("decoded %+v", loose)
	}

	var generic any
	if err := Unmarshal(buf, &generic); err != nil {
		t.Fatalf("Unmarshal any: %v", err)
	}
	want := map[string]any{"ints": []any{int64(1), int64(2)}, "u": uint64(7), "s": "str"}
	if diff := cmp.Diff(want, generic); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	buf, err := Marshal(300)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var small int8
	if err := Unmarshal(buf, &small); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("overflow: %v", err)
	}
	var u uint8
	if err := Unmarshal(buf, &u); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("overflow: %v", err)
	}
	var s string
	if err := Unmarshal(buf, &s); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("string from int: %v", err)
	}
	var notPtr int
	if err := Unmarshal(buf, notPtr); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("non-pointer: %v", err)
	}
	var arr [1]int
	vec, _ := Marshal([]int{1, 2})
	if err := Unmarshal(vec, &arr); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("short array: %v", err)
	}
	var m map[int]int
	obj, _ := Marshal(map[string]int{"a": 1})
	if err := Unmarshal(obj, &m); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("int keyed map: %v", err)
	}
	if err := Unmarshal([]byte{1}, &s); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("short buffer: %v", err)
	}
}

func TestMarshalResultsIndependent(t *testing.T) {
	first, err := Marshal("first")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	saved := string(first)
	for i := 0; i < 4; i++ {
		if _, err := Marshal([]string{"overwrite", "attempt"}); err != nil {
			t.Fatalf("Marshal: %v", err)
		}
	}
	if string(first) != saved {
		t.Fatalf("earlier Marshal result was modified")
	}
}

func TestEmptyBlobStaysBlob(t *testing.T) {
	buf, err := Marshal([]byte{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root, err := GetRoot(buf)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	obj, err := root.ToObject()
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	if p, ok := obj.([]byte); !ok || p == nil || len(p) != 0 {
		t.Fatalf("ToObject = %#v, want empty non-nil []byte", obj)
	}
	var out []byte
	if err := Unmarshal(buf, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out == nil {
		t.Fatalf("Unmarshal gave a nil slice")
	}
	again, err := Marshal(out)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	root, err = GetRoot(again)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if root.Type() != TypeBlob {
		t.Fatalf("re-encoded as %v", root.Type())
	}
	assertRoundtrip(t, map[string][]byte{"k": {}}, map[string][]byte{"k": {}})
}
