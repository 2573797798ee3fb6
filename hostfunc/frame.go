package hostfunc

import (
	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
	"go.uber.org/zap"
)

// Mode says what a frame was prepared for.
type Mode int

const (
	// ModeInit frames run the contract's initialization export.
	ModeInit Mode = iota
	// ModeInvoke frames run one entry point.
	ModeInvoke
)

func (m Mode) String() string {
	if m == ModeInit {
		return "init"
	}
	return "invoke"
}

// ExportResolver binds an exported name to a native callable during
// registration.
type ExportResolver func(name string) (registry.Callable, error)

// Frame is the host-side state of one guest call. It is used by a single
// goroutine at a time.
type Frame struct {
	mode     Mode
	inv      *invocation.Invocation
	registry *registry.Registry
	resolve  ExportResolver
	logger   *zap.Logger
	err      error
}

// NewInitFrame prepares the initialization call. The registry must already
// be populating.
func NewInitFrame(reg *registry.Registry, resolve ExportResolver, logger *zap.Logger) *Frame {
	return &Frame{
		mode:     ModeInit,
		inv:      invocation.New(nil),
		registry: reg,
		resolve:  resolve,
		logger:   orNop(logger),
	}
}

// NewInvokeFrame prepares an entry point call.
func NewInvokeFrame(inv *invocation.Invocation, logger *zap.Logger) *Frame {
	return &Frame{
		mode:   ModeInvoke,
		inv:    inv,
		logger: orNop(logger),
	}
}

func (f *Frame) Mode() Mode { return f.mode }

func (f *Frame) Invocation() *invocation.Invocation { return f.inv }

func (f *Frame) Logger() *zap.Logger { return f.logger }

// Err returns the first error recorded by a primitive.
func (f *Frame) Err() error { return f.err }

// Fail records err unless an earlier error is already recorded, and returns
// the recorded error.
func (f *Frame) Fail(err error) error {
	if f.err == nil {
		f.err = err
		f.logger.Debug("guest call aborted", zap.Stringer("mode", f.mode), zap.Error(err))
	}
	return f.err
}

// GetArgSize returns the payload size of argument index.
func (f *Frame) GetArgSize(index int, tag clvalue.Tag) (int, error) {
	n, err := f.inv.Args.PayloadSize(index, tag)
	if err != nil {
		return 0, f.Fail(err)
	}
	return n, nil
}

// GetArg returns a copy of the payload of argument index.
func (f *Frame) GetArg(index int, tag clvalue.Tag) ([]byte, error) {
	payload, err := f.inv.Args.Payload(index, tag)
	if err != nil {
		return nil, f.Fail(err)
	}
	return payload, nil
}

// Ret sets the return value. Values returned during initialization are
// discarded.
func (f *Frame) Ret(tag clvalue.Tag, payload []byte) error {
	if f.mode == ModeInit {
		if err := clvalue.Validate(payload, tag); err != nil {
			return f.Fail(err)
		}
		f.logger.Debug("discarding value returned during initialization", zap.Stringer("tag", tag))
		return nil
	}
	if err := f.inv.Return.SetPayload(tag, payload); err != nil {
		return f.Fail(err)
	}
	return nil
}

// StoreFunction registers the export name under shape.
func (f *Frame) StoreFunction(name string, shape registry.Shape) (registry.Key, error) {
	return f.store(registry.Entry{Name: name, Shape: shape})
}

// StoreFunctionReturning registers the export name with a declared result.
func (f *Frame) StoreFunctionReturning(name string, shape registry.Shape, result clvalue.Tag) (registry.Key, error) {
	return f.store(registry.Entry{Name: name, Shape: shape, Result: result, HasResult: true})
}

func (f *Frame) store(e registry.Entry) (registry.Key, error) {
	if f.mode != ModeInit {
		return registry.Key{}, f.Fail(errors.New(errors.PhaseRegistry, errors.KindSealedRegistry).
			Path(e.Name).
			Detail("store_function called during an invocation").
			Build())
	}
	callable, err := f.resolve(e.Name)
	if err != nil {
		return registry.Key{}, f.Fail(err)
	}
	e.Callable = callable
	key, err := f.registry.Store(e)
	if err != nil {
		return registry.Key{}, f.Fail(err)
	}
	f.logger.Debug("function registered",
		zap.String("signature", e.Signature()),
		zap.Stringer("key", key),
	)
	return key, nil
}

// Revert aborts the call with a user error code.
func (f *Frame) Revert(code uint32) error {
	return f.Fail(errors.Reverted(code))
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
