package executor

import (
	"context"
	"fmt"

	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/hostfunc"
	"github.com/caffeineduck/gorc/registry"
)

// NativeFunc is an in-process guest function. It reaches the boundary
// primitives through the frame it is given, exactly as a wasm guest does
// through its imports.
type NativeFunc func(ctx context.Context, f *hostfunc.Frame) error

// Native is a contract implemented in Go. Call registers entries from
// Exports via f.StoreFunction.
type Native struct {
	Name    string
	Call    NativeFunc
	Exports map[string]NativeFunc
}

func (n Native) export(name string) (registry.Callable, error) {
	fn, ok := n.Exports[name]
	if !ok || fn == nil {
		return nil, errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Path(name).
			Detail("contract %q does not export %s", n.Name, name).
			Build()
	}
	return native(fn), nil
}

type native NativeFunc

// Call runs the function with the frame carried by ctx. A panic is reported
// as an error the frame did not record, which the instance treats as a
// fault.
func (fn native) Call(ctx context.Context) (err error) {
	f, ok := hostfunc.FrameFrom(ctx)
	if !ok {
		return errors.New(errors.PhaseInvoke, errors.KindFaulted).
			Detail("native call without a frame").
			Build()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native guest panicked: %v", r)
		}
	}()
	return fn(ctx, f)
}
