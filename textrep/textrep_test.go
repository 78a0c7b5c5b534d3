package textrep

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/dadrian/flexbuffers"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func toObject(t *testing.T, buf []byte) any {
	t.Helper()
	root, err := flexbuffers.GetRoot(buf)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	obj, err := root.ToObject()
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	return obj
}

func TestEncodeYAML(t *testing.T) {
	src := []byte(`
name: Ada
age: 36
ratio: 0.5
big: 18446744073709551615
neg: -7
ok: true
none: ~
when: 2001-12-14
raw: !!binary aGVsbG8=
tags: [a, b, "1"]
nested:
  z: 1
  a: {}
`)
	out, err := EncodeBytes(src, DefaultOptions)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	want := map[string]any{
		"name":   "Ada",
		"age":    int64(36),
		"ratio":  0.5,
		"big":    uint64(math.MaxUint64),
		"neg":    int64(-7),
		"ok":     true,
		"none":   nil,
		"when":   "2001-12-14",
		"raw":    []byte("hello"),
		"tags":   []any{"a", "b", "1"},
		"nested": map[string]any{"z": int64(1), "a": map[string]any{}},
	}
	if diff := cmp.Diff(want, toObject(t, out)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEncodeJSON(t *testing.T) {
	src := []byte(`{"b": [1, 2.5, "x", null, false], "a": {"k": "v"}}`)
	out, err := EncodeBytes(src, DefaultOptions)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	root, err := flexbuffers.GetRoot(out)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	keys, err := root.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	want := map[string]any{
		"a": map[string]any{"k": "v"},
		"b": []any{int64(1), 2.5, "x", nil, false},
	}
	if diff := cmp.Diff(want, toObject(t, out)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEncodeAliases(t *testing.T) {
	src := []byte(`
base: &b {x: 1, y: [2]}
copy: *b
list: [*b]
`)
	out, err := EncodeBytes(src, DefaultOptions)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	base := map[string]any{"x": int64(1), "y": []any{int64(2)}}
	want := map[string]any{
		"base": base,
		"copy": base,
		"list": []any{base},
	}
	if diff := cmp.Diff(want, toObject(t, out)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEncodeErrors(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"empty", "", "empty document"},
		{"syntax", "a: [1, 2", "parse document"},
		{"int key", "a: 1\n1: b\n", "line 2, column 1"},
		{"nested int key", "a:\n  - {true: 1}\n", "line 2, column 6"},
		{"tag", "a: !custom x\n", "unsupported tag !custom"},
		{"bad binary", "a: !!binary '@@'\n", "binary scalar"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := EncodeBytes([]byte(c.src), DefaultOptions)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error %q does not mention %q", err, c.want)
			}
		})
	}
}

func TestEncodeReader(t *testing.T) {
	var w bytes.Buffer
	if err := Encode(strings.NewReader("[1, 2, 3]"), &w, Options{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want, err := flexbuffers.Marshal([]int{1, 2, 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if diff := cmp.Diff(want, w.Bytes()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEncodeSharing(t *testing.T) {
	src := []byte(`[{name: repeated}, {name: repeated}, {name: repeated}]`)
	shared, err := EncodeBytes(src, DefaultOptions)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	plain, err := EncodeBytes(src, Options{Flags: flexbuffers.ShareNone, InitialSize: 1})
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	if len(shared) >= len(plain) {
		t.Errorf("shared %d bytes, unshared %d", len(shared), len(plain))
	}
	if diff := cmp.Diff(toObject(t, plain), toObject(t, shared)); diff != "" {
		t.Errorf("(-plain +shared):\n%s", diff)
	}
}

func TestDecodeYAML(t *testing.T) {
	src := []byte(`{c: x, a: 1, b: [true, null, 2.0, "yes"], d: !!binary aGk=, e: -1.5e300}`)
	buf, err := EncodeBytes(src, DefaultOptions)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	text, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(text, &got); err != nil {
		t.Fatalf("yaml.Unmarshal(%s): %v", text, err)
	}
	want := map[string]any{
		"a": 1,
		"b": []any{true, nil, 2.0, "yes"},
		"c": "x",
		"d": "hi",
		"e": -1.5e300,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s\ndocument:\n%s", diff, text)
	}
	if !strings.HasPrefix(string(text), "a: 1\n") {
		t.Errorf("keys not in stored order:\n%s", text)
	}

	again, err := EncodeBytes(text, DefaultOptions)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if diff := cmp.Diff(toObject(t, buf), toObject(t, again)); diff != "" {
		t.Errorf("text round trip (-first +second):\n%s", diff)
	}
}

func TestDecodeJSON(t *testing.T) {
	buf, err := flexbuffers.Marshal(map[string]any{
		"n": 3,
		"s": []string{"a"},
		"b": []byte("hi"),
		"u": uint64(5),
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text, err := DecodeJSON(buf)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(text, &got); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", text, err)
	}
	want := map[string]any{"n": 3.0, "s": []any{"a"}, "b": "aGk=", "u": 5.0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	nan, _ := flexbuffers.Marshal(math.NaN())
	if _, err := DecodeJSON(nan); err == nil {
		t.Errorf("expected error rendering NaN as JSON")
	}
	if _, err := Decode([]byte{1}); err == nil {
		t.Errorf("expected error for a short buffer")
	}
}

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		2:            "2.0",
		-0.5:         "-0.5",
		1e21:         "1e+21",
		math.Inf(1):  ".inf",
		math.Inf(-1): "-.inf",
	}
	for v, want := range cases {
		if got := formatFloat(v); got != want {
			t.Errorf("formatFloat(%v)=%q want %q", v, got, want)
		}
	}
}
