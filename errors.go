package flexbuffers

import (
	"errors"
	"fmt"

	intr "github.com/dadrian/flexbuffers/internal"
)

// ErrorKind classifies decoding/encoding errors.
type ErrorKind int

const (
	// Encoding: misuse of the Builder.
	ErrFinishedKind ErrorKind = iota + 1
	ErrKeyBeforeMapKind
	ErrValueWithoutKeyKind
	ErrStackNotReducedKind
	ErrUnsupportedValueKind
	ErrNoOpenScopeKind

	// Decoding: the buffer does not hold what was asked for.
	ErrBufferTooSmallKind
	ErrBadOffsetKind
	ErrIndexOutOfRangeKind
	ErrKeyNotFoundKind
	ErrTypeMismatchKind
)

var kindNames = map[ErrorKind]string{
	ErrFinishedKind:         "finished",
	ErrKeyBeforeMapKind:     "key outside map",
	ErrValueWithoutKeyKind:  "value without key",
	ErrStackNotReducedKind:  "stack not reduced",
	ErrUnsupportedValueKind: "unsupported value",
	ErrNoOpenScopeKind:      "no open scope",
	ErrBufferTooSmallKind:   "buffer too small",
	ErrBadOffsetKind:        "bad offset",
	ErrIndexOutOfRangeKind:  "index out of range",
	ErrKeyNotFoundKind:      "key not found",
	ErrTypeMismatchKind:     "type mismatch",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error carries offset and classification for better diagnostics.
type Error struct {
	Offset int
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset > 0 {
		return fmt.Sprintf("flexbuffers: %v at %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("flexbuffers: %v: %s", e.Kind, e.Detail)
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of offset or detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrFinished         = &Error{Kind: ErrFinishedKind, Detail: "builder already finished"}
	ErrKeyBeforeMap     = &Error{Kind: ErrKeyBeforeMapKind, Detail: "key added outside of a map"}
	ErrValueWithoutKey  = &Error{Kind: ErrValueWithoutKeyKind, Detail: "value added to a map before its key"}
	ErrStackNotReduced  = &Error{Kind: ErrStackNotReducedKind, Detail: "vectors and maps must be ended before finish"}
	ErrUnsupportedValue = &Error{Kind: ErrUnsupportedValueKind, Detail: "unsupported value"}
	ErrNoOpenScope      = &Error{Kind: ErrNoOpenScopeKind, Detail: "end without a started vector or map"}
	ErrBufferTooSmall   = &Error{Kind: ErrBufferTooSmallKind, Detail: "buffer shorter than a root"}
	ErrBadOffset        = &Error{Kind: ErrBadOffsetKind, Detail: "offset outside buffer or misaligned"}
	ErrIndexOutOfRange  = &Error{Kind: ErrIndexOutOfRangeKind, Detail: "index out of range"}
	ErrKeyNotFound      = &Error{Kind: ErrKeyNotFoundKind, Detail: "key not found"}
	ErrTypeMismatch     = &Error{Kind: ErrTypeMismatchKind, Detail: "type mismatch"}
)

func newError(kind ErrorKind, offset int, format string, args ...any) *Error {
	return &Error{Offset: offset, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// readError converts a failure from the internal readers.
func readError(path string, err error) error {
	var oe *intr.OffsetError
	if errors.As(err, &oe) {
		return newError(ErrBadOffsetKind, oe.Offset, "%s: %v", path, oe)
	}
	return newError(ErrBadOffsetKind, 0, "%s: %v", path, err)
}
