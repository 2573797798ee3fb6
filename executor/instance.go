package executor

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/hostfunc"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// Instance is one loaded contract with its sealed registry. Invocations on
// an instance are serialized; separate instances share nothing but the
// executor's compiled modules.
type Instance struct {
	name    string
	mod     api.Module
	reg     *registry.Registry
	resolve hostfunc.ExportResolver
	initFn  func(ctx context.Context) error
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	fault  error
}

func newInstance(name string, logger *zap.Logger) *Instance {
	activeInstances.Inc()
	return &Instance{
		name:   name,
		reg:    registry.New(),
		logger: logger.With(zap.String("contract", name)),
	}
}

func (i *Instance) Name() string { return i.name }

// Init runs the initialization export with the registry open for writes,
// then seals it. It succeeds once per instance; every later call returns
// ErrSealedRegistry.
func (i *Instance) Init(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return i.closedErr()
	}
	if err := i.reg.Begin(); err != nil {
		return err
	}

	frame := hostfunc.NewInitFrame(i.reg, i.resolve, i.logger)
	err := i.initFn(hostfunc.WithFrame(ctx, frame))
	if ferr := frame.Err(); ferr != nil {
		return errors.Wrap(errors.PhaseLoad, kindOf(ferr), ferr, "initialization aborted")
	}
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindFaulted, err, "initialization trapped")
	}
	return i.reg.Seal()
}

// Entries lists the registered functions.
func (i *Instance) Entries() []registry.Entry {
	return i.reg.Entries()
}

// Resolve returns the entry registered under key.
func (i *Instance) Resolve(key registry.Key) (registry.Entry, error) {
	return i.reg.Resolve(key)
}

// Call derives the key from name and the tags of args, then invokes it.
func (i *Instance) Call(ctx context.Context, name string, args ...clvalue.Value) (invocation.Result, error) {
	return i.Invoke(ctx, registry.DeriveKey(name, registry.ShapeOf(args)), invocation.NewArgs(args...))
}

// Invoke runs the entry registered under key with args.
//
// Errors recorded by the boundary primitives (bad argument access, a second
// ret, revert) fail the invocation and leave the instance usable. A trap the
// primitives did not cause, or an expired budget, closes the instance and
// returns an error matching errors.ErrFaulted.
func (i *Instance) Invoke(ctx context.Context, key registry.Key, args *invocation.Args, opts ...Option) (invocation.Result, error) {
	start := time.Now()
	cfg := defaultInvokeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	res, entry, err := i.invoke(ctx, key, args, cfg)
	observeInvocation(time.Since(start), err)

	fields := []zap.Field{
		zap.Stringer("key", key),
		zap.Duration("duration", time.Since(start)),
	}
	if entry.Name != "" {
		fields = append(fields, zap.String("function", entry.Name))
	}
	if err != nil {
		i.logger.Debug("invocation failed", append(fields, zap.Error(err))...)
		return invocation.Result{}, err
	}
	i.logger.Debug("invocation finished", append(fields, zap.Bool("present", res.Present))...)
	return res, nil
}

func (i *Instance) invoke(ctx context.Context, key registry.Key, args *invocation.Args, cfg invokeConfig) (invocation.Result, registry.Entry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return invocation.Result{}, registry.Entry{}, i.closedErr()
	}
	entry, err := i.reg.Resolve(key)
	if err != nil {
		return invocation.Result{}, registry.Entry{}, err
	}
	if got := args.Shape(); !got.Equal(entry.Shape) {
		return invocation.Result{}, entry, errors.New(errors.PhaseArgument, errors.KindTypeMismatch).
			Path(entry.Name).
			Detail("%s takes %s, got %s", entry.Name, entry.Shape, got).
			Build()
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	inv := invocation.New(args)
	frame := hostfunc.NewInvokeFrame(inv, i.logger.With(zap.String("function", entry.Name)))
	callErr := entry.Callable.Call(hostfunc.WithFrame(ctx, frame))
	if ferr := frame.Err(); ferr != nil {
		if i.moduleClosed() {
			return invocation.Result{}, entry, i.faultLocked(ctx, ferr)
		}
		return invocation.Result{}, entry, ferr
	}
	if callErr != nil {
		return invocation.Result{}, entry, i.faultLocked(ctx, callErr)
	}

	res := inv.Return.Result()
	if tag, ok := entry.ResultTag(); ok {
		if _, err := res.Expect(tag); err != nil {
			return invocation.Result{}, entry, err
		}
	}
	if cfg.hasExpect {
		if _, err := res.Expect(cfg.expect); err != nil {
			return invocation.Result{}, entry, err
		}
	}
	return res, entry, nil
}

// moduleClosed reports whether wazero closed the module under a recorded
// error, which happens when the budget expires inside a primitive.
func (i *Instance) moduleClosed() bool {
	return i.mod != nil && i.mod.IsClosed()
}

func (i *Instance) faultLocked(ctx context.Context, cause error) error {
	detail := "guest trapped"
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		detail = "execution budget exceeded"
	} else if ctx.Err() != nil {
		detail = "invocation canceled"
	}
	err := errors.Wrap(errors.PhaseInvoke, errors.KindFaulted, cause, detail)
	i.fault = err
	i.closeLocked()
	i.logger.Warn("instance faulted", zap.Error(err))
	return err
}

// Fault returns the error that closed the instance, if any.
func (i *Instance) Fault() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.fault
}

func (i *Instance) closedErr() error {
	err := closedError("instance " + i.name)
	if i.fault != nil {
		err.Cause = i.fault
	}
	return err
}

// Close releases the module. It is safe to call more than once.
func (i *Instance) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closeLocked()
}

func (i *Instance) closeLocked() error {
	if i.closed {
		return nil
	}
	i.closed = true
	activeInstances.Dec()
	if i.mod == nil {
		return nil
	}
	return i.mod.Close(context.Background())
}

func (i *Instance) wasmExport(name string) (registry.Callable, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Path(name).
			Detail("contract %q does not export %s", i.name, name).
			Build()
	}
	if err := checkEntrySignature(fn.Definition()); err != nil {
		return nil, err
	}
	return registry.CallableFunc(func(ctx context.Context) error {
		_, err := fn.Call(ctx)
		return err
	}), nil
}

func kindOf(err error) errors.Kind {
	if _, kind, ok := errors.Classify(err); ok {
		return kind
	}
	return errors.KindFaulted
}
