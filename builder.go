package flexbuffers

import (
	"fmt"
	"strconv"

	intr "github.com/dadrian/flexbuffers/internal"
)

// BuilderFlag selects which payloads a Builder shares between repeated
// occurrences.
type BuilderFlag uint8

const (
	ShareKeys BuilderFlag = 1 << iota
	ShareStrings
	ShareKeyVectors

	ShareNone           BuilderFlag = 0
	ShareKeysAndStrings BuilderFlag = ShareKeys | ShareStrings
	ShareAll            BuilderFlag = ShareKeys | ShareStrings | ShareKeyVectors
)

const defaultInitialSize = 2048

type scope struct {
	stackPosition int
	isVector      bool
	presorted     bool
}

// Builder constructs a FlexBuffer in a single growable byte slice.
//
// Values are pushed onto a stack; StartVector/StartMap open a scope and End
// folds the scope's values into one vector or map. Finish writes the root
// and returns the buffer.
//
// The first misuse poisons the Builder: that call and every later one
// returns the same error, and Finish never returns a partial buffer. Reset
// makes it usable again. A Builder must not be shared between goroutines.
type Builder struct {
	buf      []byte
	initSize int
	offset   int
	stack    []stackValue
	scopes   []scope
	flags    BuilderFlag
	finished bool
	err      error

	strings        map[string]stackValue
	keys           map[string]stackValue
	keyVectors     map[string]stackValue
	indirectInts   map[int64]stackValue
	indirectUInts  map[uint64]stackValue
	indirectFloats map[float64]stackValue
}

// NewBuilder returns a Builder with an initialSize byte buffer that grows by
// doubling.
func NewBuilder(initialSize int, flags BuilderFlag) *Builder {
	if initialSize < 1 {
		initialSize = 1
	}
	b := &Builder{buf: make([]byte, initialSize), initSize: initialSize, flags: flags}
	b.resetLookups()
	return b
}

// NewDefaultBuilder shares keys, strings and key vectors.
func NewDefaultBuilder() *Builder { return NewBuilder(defaultInitialSize, ShareAll) }

func (b *Builder) resetLookups() {
	b.strings = make(map[string]stackValue)
	b.keys = make(map[string]stackValue)
	b.keyVectors = make(map[string]stackValue)
	b.indirectInts = make(map[int64]stackValue)
	b.indirectUInts = make(map[uint64]stackValue)
	b.indirectFloats = make(map[float64]stackValue)
}

// Reset discards everything built so far, including a pending error.
// A buffer returned by Finish is not reused; the next one starts again at
// the initial size.
func (b *Builder) Reset() {
	if b.finished {
		b.buf = make([]byte, b.initSize)
	} else {
		clear(b.buf[:min(b.offset, len(b.buf))])
	}
	b.offset = 0
	b.stack = b.stack[:0]
	b.scopes = b.scopes[:0]
	b.finished = false
	b.err = nil
	b.resetLookups()
}

func (b *Builder) IsFinished() bool { return b.finished }

// Offset is the number of bytes committed so far.
func (b *Builder) Offset() int { return b.offset }

// Err returns the error that poisoned the Builder, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return b.err
}

// computeOffset makes room for n more bytes and returns the offset just
// past them. The buffer doubles until large enough; committed bytes keep
// their positions.
func (b *Builder) computeOffset(n int) int {
	target := b.offset + n
	size := len(b.buf)
	if size < target {
		for size < target {
			size <<= 1
		}
		grown := make([]byte, size)
		copy(grown, b.buf)
		b.buf = grown
	}
	return target
}

func (b *Builder) align(w BitWidth) int {
	bw := w.ByteWidth()
	b.offset += intr.PaddingFor(b.offset, bw)
	return bw
}

func (b *Builder) writeUInt(v uint64, byteWidth int) {
	next := b.computeOffset(byteWidth)
	intr.PutUInt(b.buf, b.offset, v, byteWidth)
	b.offset = next
}

// writeStackValue writes v into a byteWidth slot at the cursor, either
// inline or as the distance back to its payload.
func (b *Builder) writeStackValue(v stackValue, byteWidth int) {
	next := b.computeOffset(byteWidth)
	if v.isOffset() {
		rel := uint64(b.offset - v.offset)
		if byteWidth != 8 && rel >= 1<<(uint(byteWidth)*8) {
			panic(fmt.Sprintf("flexbuffers: offset %d does not fit %d bytes", rel, byteWidth))
		}
		intr.PutUInt(b.buf, b.offset, rel, byteWidth)
	} else {
		v.writeTo(b.buf, b.offset, byteWidth)
	}
	b.offset = next
}

func (b *Builder) checkValue() error {
	if b.err != nil {
		return b.err
	}
	if b.finished {
		return b.fail(ErrFinished)
	}
	if n := len(b.scopes); n > 0 && !b.scopes[n-1].isVector {
		if (len(b.stack)-b.scopes[n-1].stackPosition)%2 == 0 {
			return b.fail(ErrValueWithoutKey)
		}
	}
	return nil
}

func (b *Builder) checkKey(key string) error {
	if b.err != nil {
		return b.err
	}
	if b.finished {
		return b.fail(ErrFinished)
	}
	n := len(b.scopes)
	if n == 0 || b.scopes[n-1].isVector {
		return b.fail(newError(ErrKeyBeforeMapKind, b.offset, "key %q added outside of a map", key))
	}
	if (len(b.stack)-b.scopes[n-1].stackPosition)%2 != 0 {
		return b.fail(newError(ErrValueWithoutKeyKind, b.offset, "key %q follows a key with no value", key))
	}
	return nil
}

func (b *Builder) push(v stackValue) { b.stack = append(b.stack, v) }

func (b *Builder) AddNull() error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.push(nullValue())
	return nil
}

func (b *Builder) AddBool(v bool) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.push(boolValue(v))
	return nil
}

// AddInt pushes v to be stored inline in its parent.
func (b *Builder) AddInt(v int64) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.push(intValue(v))
	return nil
}

func (b *Builder) AddUInt(v uint64) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.push(uintValue(v))
	return nil
}

func (b *Builder) AddFloat(v float64) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.push(floatValue(v))
	return nil
}

// AddIndirectInt writes v to the buffer now, at its own minimal width, and
// pushes a reference to it. With dedup, an earlier indirect write of the
// same value is referenced instead.
func (b *Builder) AddIndirectInt(v int64, dedup bool) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	if sv, ok := b.indirectInts[v]; ok && dedup {
		b.push(sv)
		return nil
	}
	sv := b.writeIndirect(intValue(v), TypeIndirectInt)
	if dedup {
		b.indirectInts[v] = sv
	}
	return nil
}

func (b *Builder) AddIndirectUInt(v uint64, dedup bool) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	if sv, ok := b.indirectUInts[v]; ok && dedup {
		b.push(sv)
		return nil
	}
	sv := b.writeIndirect(uintValue(v), TypeIndirectUInt)
	if dedup {
		b.indirectUInts[v] = sv
	}
	return nil
}

func (b *Builder) AddIndirectFloat(v float64, dedup bool) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	if sv, ok := b.indirectFloats[v]; ok && dedup {
		b.push(sv)
		return nil
	}
	sv := b.writeIndirect(floatValue(v), TypeIndirectFloat)
	if dedup {
		b.indirectFloats[v] = sv
	}
	return nil
}

func (b *Builder) writeIndirect(v stackValue, t ValueType) stackValue {
	bw := b.align(v.width)
	at := b.offset
	b.writeStackValue(v, bw)
	sv := offsetValue(at, t, v.width)
	b.push(sv)
	return sv
}

// AddString writes a length prefixed, NUL terminated string.
func (b *Builder) AddString(s string) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	if sv, ok := b.strings[s]; ok && b.flags&ShareStrings != 0 {
		b.push(sv)
		return nil
	}
	sv := b.writeSized([]byte(s), TypeString, 1)
	if b.flags&ShareStrings != 0 {
		b.strings[s] = sv
	}
	return nil
}

// AddBlob writes a length prefixed copy of data. Blobs are never shared.
func (b *Builder) AddBlob(data []byte) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.writeSized(data, TypeBlob, 0)
	return nil
}

func (b *Builder) writeSized(data []byte, t ValueType, trailer int) stackValue {
	w := intr.WidthU(uint64(len(data)))
	bw := b.align(w)
	b.writeUInt(uint64(len(data)), bw)
	at := b.offset
	next := b.computeOffset(len(data) + trailer)
	copy(b.buf[at:], data)
	if trailer > 0 {
		b.buf[at+len(data)] = 0
	}
	sv := offsetValue(at, t, w)
	b.push(sv)
	b.offset = next
	return sv
}

// AddKey pushes the key for the next value of the innermost map.
func (b *Builder) AddKey(key string) error {
	if err := b.checkKey(key); err != nil {
		return err
	}
	if sv, ok := b.keys[key]; ok && b.flags&ShareKeys != 0 {
		b.push(sv)
		return nil
	}
	at := b.offset
	next := b.computeOffset(len(key) + 1)
	copy(b.buf[at:], key)
	b.buf[at+len(key)] = 0
	sv := offsetValue(at, TypeKey, Width8)
	b.push(sv)
	b.offset = next
	if b.flags&ShareKeys != 0 {
		b.keys[key] = sv
	}
	return nil
}

func (b *Builder) StartVector() error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.scopes = append(b.scopes, scope{stackPosition: len(b.stack), isVector: true})
	return nil
}

// StartMap opens a map. With presorted the caller promises keys arrive in
// ascending byte order and End skips sorting.
func (b *Builder) StartMap(presorted bool) error {
	if err := b.checkValue(); err != nil {
		return err
	}
	b.scopes = append(b.scopes, scope{stackPosition: len(b.stack), presorted: presorted})
	return nil
}

// End closes the innermost vector or map. Without an open scope it
// returns ErrNoOpenScope and changes nothing.
func (b *Builder) End() error {
	if b.err != nil {
		return b.err
	}
	if b.finished {
		return b.fail(ErrFinished)
	}
	if len(b.scopes) == 0 {
		return ErrNoOpenScope
	}
	s := b.scopes[len(b.scopes)-1]
	if s.isVector {
		b.scopes = b.scopes[:len(b.scopes)-1]
		b.endVector(s)
		return nil
	}
	if (len(b.stack)-s.stackPosition)%2 != 0 {
		return b.fail(newError(ErrValueWithoutKeyKind, b.offset, "map ended after a key with no value"))
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
	b.endMap(s)
	return nil
}

func (b *Builder) endVector(s scope) {
	n := len(b.stack) - s.stackPosition
	vec := b.createVector(s.stackPosition, n, 1, nil)
	b.stack = append(b.stack[:s.stackPosition], vec)
}

func (b *Builder) endMap(s scope) {
	if !s.presorted {
		b.sortKeys(s.stackPosition)
	}
	n := (len(b.stack) - s.stackPosition) / 2
	var keys stackValue
	if b.flags&ShareKeyVectors != 0 {
		fp := b.keyFingerprint(s.stackPosition)
		kv, ok := b.keyVectors[fp]
		if !ok {
			kv = b.createVector(s.stackPosition, n, 2, nil)
			b.keyVectors[fp] = kv
		}
		keys = kv
	} else {
		keys = b.createVector(s.stackPosition, n, 2, nil)
	}
	vals := b.createVector(s.stackPosition+1, n, 2, &keys)
	b.stack = append(b.stack[:s.stackPosition], vals)
}

// keyFingerprint identifies a key vector by the offsets of its keys.
func (b *Builder) keyFingerprint(start int) string {
	var fp []byte
	for i := start; i < len(b.stack); i += 2 {
		fp = strconv.AppendInt(fp, int64(b.stack[i].offset), 10)
		fp = append(fp, ',')
	}
	return string(fp)
}

// createVector writes the stack values start, start+step, ... as one
// vector. When keys is set the result is a map whose header points at it.
func (b *Builder) createVector(start, vecLen, step int, keys *stackValue) stackValue {
	bitWidth := intr.WidthU(uint64(vecLen))
	prefix := 1
	if keys != nil {
		bitWidth = max(bitWidth, keys.elementWidth(b.offset, 0))
		prefix += 2
	}
	vectorType := TypeKey
	// A map's key vector is typed even when empty.
	typed := keys == nil && (vecLen > 0 || step == 2)
	for i := start; i < len(b.stack); i += step {
		v := b.stack[i]
		bitWidth = max(bitWidth, v.elementWidth(b.offset, (i-start)/step+prefix))
		if i == start {
			vectorType = v.typ
			typed = typed && vectorType.IsTypedVectorElement()
		} else if v.typ != vectorType {
			typed = false
		}
	}
	bw := b.align(bitWidth)
	fixed := typed && vectorType.IsNumber() && vecLen >= 2 && vecLen <= 4
	if keys != nil {
		b.writeStackValue(*keys, bw)
		b.writeUInt(uint64(keys.width.ByteWidth()), bw)
	}
	if !fixed {
		b.writeUInt(uint64(vecLen), bw)
	}
	vecOffset := b.offset
	for i := start; i < len(b.stack); i += step {
		b.writeStackValue(b.stack[i], bw)
	}
	if !typed {
		for i := start; i < len(b.stack); i += step {
			b.writeUInt(uint64(b.stack[i].storedPackedType(bitWidth)), 1)
		}
	}
	switch {
	case keys != nil:
		return offsetValue(vecOffset, TypeMap, bitWidth)
	case fixed:
		return offsetValue(vecOffset, toTypedVector(vectorType, vecLen), bitWidth)
	case typed:
		return offsetValue(vecOffset, toTypedVector(vectorType, 0), bitWidth)
	default:
		return offsetValue(vecOffset, TypeVector, bitWidth)
	}
}

// Finish writes the root value followed by its packed type and byte width
// and returns the finished buffer. Exactly one value must remain on the
// stack with no vector or map left open.
func (b *Builder) Finish() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.finished {
		return nil, b.fail(ErrFinished)
	}
	if len(b.stack) != 1 || len(b.scopes) != 0 {
		return nil, b.fail(newError(ErrStackNotReducedKind, b.offset,
			"%d values and %d open scopes left, want 1 and 0", len(b.stack), len(b.scopes)))
	}
	v := b.stack[0]
	bw := b.align(v.elementWidth(b.offset, 0))
	b.writeStackValue(v, bw)
	b.writeUInt(uint64(v.storedPackedType(Width8)), 1)
	b.writeUInt(uint64(bw), 1)
	b.finished = true
	return b.buf[:b.offset], nil
}
