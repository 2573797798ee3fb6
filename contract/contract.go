package contract

import (
	"fmt"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/registry"
)

// Host is the set of boundary primitives a contract can reach.
type Host interface {
	GetArgSize(index uint32, tag clvalue.Tag) uint32
	GetArg(index uint32, tag clvalue.Tag, buf []byte)
	Ret(tag clvalue.Tag, payload []byte)
	StoreFunction(name string, shape []byte) registry.Key
	StoreFunctionReturning(name string, shape []byte, result clvalue.Tag) registry.Key
	Revert(code uint32)
}

// GetArg reads argument index as T.
func GetArg[T any](index uint32) T {
	c := codecFor[T]()
	return mustDecode(c, payload(index, c.Tag()))
}

// Arg reads argument index as a dynamic value of the given tag.
func Arg(index uint32, tag clvalue.Tag) clvalue.Value {
	v, err := clvalue.Decode(payload(index, tag), tag)
	if err != nil {
		panic(err)
	}
	return v
}

func payload(index uint32, tag clvalue.Tag) []byte {
	buf := make([]byte, current.GetArgSize(index, tag))
	current.GetArg(index, tag, buf)
	return buf
}

// Ret sets the return value of the running entry point.
func Ret[T any](v T) {
	c := codecFor[T]()
	current.Ret(c.Tag(), c.Encode(v))
}

// RetValue sets a dynamic return value.
func RetValue(v clvalue.Value) {
	current.Ret(v.Tag(), clvalue.Encode(v))
}

// StoreFunction registers the exported function name with its parameter
// tags. It may only be called from the "call" export.
func StoreFunction(name string, shape ...clvalue.Tag) registry.Key {
	return current.StoreFunction(name, registry.Shape(shape).Bytes())
}

// StoreFunctionReturning is StoreFunction with a declared result tag.
func StoreFunctionReturning(name string, result clvalue.Tag, shape ...clvalue.Tag) registry.Key {
	return current.StoreFunctionReturning(name, registry.Shape(shape).Bytes(), result)
}

// Revert aborts the running call with a user error code. It does not return.
func Revert(code uint32) {
	current.Revert(code)
	panic(fmt.Sprintf("contract: revert(%d) returned", code))
}

func codecFor[T any]() clvalue.Codec[T] {
	c, ok := clvalue.CodecFor[T]()
	if !ok {
		var zero T
		panic(fmt.Sprintf("contract: no codec for %T", zero))
	}
	return c
}

func mustDecode[T any](c clvalue.Codec[T], b []byte) T {
	v, err := c.Decode(b)
	if err != nil {
		panic(err)
	}
	return v
}
