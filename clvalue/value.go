package clvalue

import (
	"bytes"
	"fmt"

	"github.com/caffeineduck/gorc/errors"
)

// Value is one tagged primitive. The zero Value is Bool(false).
type Value struct {
	v   any
	tag Tag
}

func Bool(b bool) Value     { return Value{tag: TagBool, v: b} }
func I32(n int32) Value     { return Value{tag: TagI32, v: n} }
func I64(n int64) Value     { return Value{tag: TagI64, v: n} }
func U8(n uint8) Value      { return Value{tag: TagU8, v: n} }
func U32(n uint32) Value    { return Value{tag: TagU32, v: n} }
func U64(n uint64) Value    { return Value{tag: TagU64, v: n} }
func Unit() Value           { return Value{tag: TagUnit, v: struct{}{}} }
func String(s string) Value { return Value{tag: TagString, v: s} }

// Bytes copies b so the value never aliases caller or guest memory.
func Bytes(b []byte) Value {
	return Value{tag: TagBytes, v: bytes.Clone(nonNil(b))}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// Tag returns the value's discriminant.
func (v Value) Tag() Tag { return v.tag }

// Interface returns the Go value: bool, int32, int64, uint8, uint32, uint64,
// struct{}, string or []byte.
func (v Value) Interface() any {
	if v.v == nil && v.tag == TagBool {
		return false
	}
	return v.v
}

// Equal reports whether both values have the same tag and payload.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	return bytes.Equal(Encode(v), Encode(o))
}

func (v Value) String() string {
	return v.tag.String() + ":" + Format(v)
}

// Of converts a Go value of a supported type into a Value.
func Of(x any) (Value, error) {
	switch x := x.(type) {
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int32:
		return I32(x), nil
	case int64:
		return I64(x), nil
	case uint8:
		return U8(x), nil
	case uint32:
		return U32(x), nil
	case uint64:
		return U64(x), nil
	case struct{}:
		return Unit(), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	}
	return Value{}, errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("unsupported Go type %T", x))
}

// As extracts v as T, failing with a tag mismatch when v holds another kind.
func As[T any](v Value) (T, error) {
	var zero T
	c, ok := CodecFor[T]()
	if !ok {
		return zero, errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("no codec for %T", zero))
	}
	if v.tag != c.Tag() {
		return zero, tagMismatch(v.tag, c.Tag())
	}
	out, ok := v.Interface().(T)
	if !ok {
		return zero, tagMismatch(v.tag, c.Tag())
	}
	return out, nil
}
