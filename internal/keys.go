package internal

import (
	"bytes"
	"errors"
)

var errUnterminatedKey = errors.New("key is not NUL terminated")

// KeyLen returns the number of bytes before the NUL that ends the key
// starting at off.
func KeyLen(buf []byte, off int) (int, error) {
	if off < 0 || off > len(buf) {
		return 0, &OffsetError{Offset: off, Width: Width8, Len: len(buf)}
	}
	n := bytes.IndexByte(buf[off:], 0)
	if n < 0 {
		return 0, errUnterminatedKey
	}
	return n, nil
}

// CompareKeys orders the NUL-terminated keys at a and b byte by byte.
// The terminator takes part in the comparison so a prefix sorts first.
func CompareKeys(buf []byte, a, b int) int {
	if a == b {
		return 0
	}
	for i := 0; ; i++ {
		c1, c2 := buf[a+i], buf[b+i]
		if c1 != c2 {
			if c1 < c2 {
				return -1
			}
			return 1
		}
		if c1 == 0 {
			return 0
		}
	}
}

// DiffKeys compares key against the element at index of the key vector
// starting at keys whose slots are keyWidth wide.
// The result is negative when key sorts before the element.
func DiffKeys(key []byte, index int, buf []byte, keys int, keyWidth BitWidth) (int, error) {
	at, err := Indirect(buf, keys+index*keyWidth.ByteWidth(), keyWidth)
	if err != nil {
		return 0, err
	}
	if at+len(key) >= len(buf) {
		return 0, &OffsetError{Offset: at, Width: Width8, Len: len(buf)}
	}
	for i, c := range key {
		if d := int(c) - int(buf[at+i]); d != 0 {
			return d, nil
		}
	}
	if buf[at+len(key)] == 0 {
		return 0, nil
	}
	return -1, nil
}

// KeyVector locates the sorted key vector of the map whose slot is at
// mapOffset. byteWidth is the map's own element width.
func KeyVector(buf []byte, mapOffset int, parentWidth BitWidth, byteWidth int) (int, BitWidth, error) {
	values, err := Indirect(buf, mapOffset, parentWidth)
	if err != nil {
		return 0, 0, err
	}
	w := FromByteWidth(byteWidth)
	slot := values - 3*byteWidth
	keys, err := Indirect(buf, slot, w)
	if err != nil {
		return 0, 0, err
	}
	kw, err := ReadUInt(buf, slot+byteWidth, w)
	if err != nil {
		return 0, 0, err
	}
	return keys, FromByteWidth(int(kw)), nil
}

// KeyIndex binary searches the key vector of a map of length entries.
// It reports false when no key matches exactly.
func KeyIndex(key []byte, buf []byte, mapOffset int, parentWidth BitWidth, byteWidth, length int) (int, bool, error) {
	keys, kw, err := KeyVector(buf, mapOffset, parentWidth, byteWidth)
	if err != nil {
		return 0, false, err
	}
	low, high := 0, length-1
	for low <= high {
		mid := int(uint(low+high) >> 1)
		d, err := DiffKeys(key, mid, buf, keys, kw)
		if err != nil {
			return 0, false, err
		}
		switch {
		case d == 0:
			return mid, true, nil
		case d < 0:
			high = mid - 1
		default:
			low = mid + 1
		}
	}
	return 0, false, nil
}

// KeyForIndex returns the bytes of the index'th key of a map, without the
// terminator. The slice aliases buf.
func KeyForIndex(buf []byte, index int, mapOffset int, parentWidth BitWidth, byteWidth int) ([]byte, error) {
	keys, kw, err := KeyVector(buf, mapOffset, parentWidth, byteWidth)
	if err != nil {
		return nil, err
	}
	at, err := Indirect(buf, keys+index*kw.ByteWidth(), kw)
	if err != nil {
		return nil, err
	}
	n, err := KeyLen(buf, at)
	if err != nil {
		return nil, err
	}
	return buf[at : at+n], nil
}
