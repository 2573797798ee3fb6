package registry

import (
	"context"

	"github.com/caffeineduck/gorc/clvalue"
)

// Callable is the native entry point bound to a key. The loader resolves it
// from the exported name; per-invocation state travels in ctx.
type Callable interface {
	Call(ctx context.Context) error
}

// CallableFunc adapts a function to Callable.
type CallableFunc func(ctx context.Context) error

func (f CallableFunc) Call(ctx context.Context) error { return f(ctx) }

// Entry is one registered function. Entries are never mutated after they
// are stored.
type Entry struct {
	Callable  Callable
	Name      string
	Shape     Shape
	Key       Key
	Result    clvalue.Tag
	HasResult bool
}

// ResultTag returns the declared return tag, if any.
func (e Entry) ResultTag() (clvalue.Tag, bool) {
	return e.Result, e.HasResult
}

// Signature renders name, shape and declared result, e.g.
// "hello_name_ext(string) -> string".
func (e Entry) Signature() string {
	s := e.Name + e.Shape.String()
	if e.HasResult {
		s += " -> " + e.Result.String()
	}
	return s
}

// clone copies the shape so entries handed out never alias a frozen table.
func (e Entry) clone() Entry {
	e.Shape = append(Shape(nil), e.Shape...)
	return e
}
