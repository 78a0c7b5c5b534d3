package flexbuffers

import "sync"

var builderPool = sync.Pool{New: func() any { return NewDefaultBuilder() }}

// Marshal encodes v into a new FlexBuffer. See Builder.Add for how Go
// values map onto FlexBuffer types.
func Marshal(v any) ([]byte, error) {
	b := builderPool.Get().(*Builder)
	defer builderPool.Put(b)
	b.Reset()
	if err := b.Add(v); err != nil {
		return nil, err
	}
	return b.Finish()
}

// Unmarshal decodes data into v, which must be a non-nil pointer.
func Unmarshal(data []byte, v any) error {
	root, err := GetRoot(data)
	if err != nil {
		return err
	}
	return root.Decode(v)
}
