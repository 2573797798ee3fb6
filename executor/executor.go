package executor

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/hostfunc"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// InitExport is the export a contract registers its functions from.
const InitExport = "call"

// Source is a contract binary to load.
type Source struct {
	Name   string
	Binary []byte
}

// WASM names a contract binary.
func WASM(name string, bin []byte) Source {
	return Source{Name: name, Binary: bin}
}

// ReadFile loads a contract binary from disk, named after the file.
func ReadFile(path string) (Source, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read contract: %w", err)
	}
	return WASM(filepath.Base(path), bin), nil
}

// Executor owns the wazero runtime and the compiled-module cache shared by
// every instance it loads.
type Executor struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled map[string]wazero.CompiledModule
	cfg      executorConfig
	logger   *zap.Logger
	mu       sync.RWMutex
	closed   bool
}

// New creates an Executor with the contract host module linked.
func New(opts ...ExecutorOption) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	cleanup := func() {
		rt.Close(ctx)
		if cache != nil {
			cache.Close(ctx)
		}
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		cleanup()
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}
	if _, err := hostfunc.Instantiate(ctx, rt); err != nil {
		cleanup()
		return nil, err
	}

	return &Executor{
		runtime:  rt,
		cache:    cache,
		compiled: make(map[string]wazero.CompiledModule),
		cfg:      cfg,
		logger:   cfg.logger,
	}, nil
}

// Load compiles src, links it, runs its initialization export once and
// returns the sealed instance.
func (e *Executor) Load(ctx context.Context, src Source) (*Instance, error) {
	inst, err := e.load(ctx, src)
	if err != nil {
		loadsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		e.logger.Warn("contract load failed", zap.String("contract", src.Name), zap.Error(err))
		return nil, err
	}
	loadsTotal.WithLabelValues(outcomeOK).Inc()
	e.logger.Info("contract loaded",
		zap.String("contract", src.Name),
		zap.Int("functions", len(inst.Entries())),
	)
	return inst, nil
}

func (e *Executor) load(ctx context.Context, src Source) (*Instance, error) {
	compiled, err := e.getCompiled(ctx, src.Binary)
	if err != nil {
		return nil, err
	}
	if err := hostfunc.ValidateImports(compiled.ImportedFunctions()); err != nil {
		return nil, err
	}
	def, ok := compiled.ExportedFunctions()[InitExport]
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindMissingExport).
			Path(InitExport).
			Detail("contract %q does not export %s", src.Name, InitExport).
			Build()
	}
	if err := checkEntrySignature(def); err != nil {
		return nil, err
	}

	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")
	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindFaulted, err, "instantiate "+src.Name)
	}

	inst := newInstance(src.Name, e.logger)
	inst.mod = mod
	inst.resolve = inst.wasmExport
	inst.initFn = func(ctx context.Context) error {
		_, err := mod.ExportedFunction(InitExport).Call(ctx)
		return err
	}
	if err := e.initialize(ctx, inst); err != nil {
		inst.Close()
		return nil, err
	}
	return inst, nil
}

// LoadNative builds an instance around Go entry points.
func (e *Executor) LoadNative(ctx context.Context, n Native) (*Instance, error) {
	if n.Call == nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindMissingExport).
			Path(InitExport).
			Detail("native contract %q has no initialization function", n.Name).
			Build()
	}
	inst := newInstance(n.Name, e.logger)
	inst.resolve = n.export
	inst.initFn = native(n.Call).Call
	if err := e.initialize(ctx, inst); err != nil {
		loadsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		inst.Close()
		return nil, err
	}
	loadsTotal.WithLabelValues(outcomeOK).Inc()
	return inst, nil
}

func (e *Executor) initialize(ctx context.Context, inst *Instance) error {
	if e.cfg.initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.initTimeout)
		defer cancel()
	}
	return inst.Init(ctx)
}

// getCompiled returns a cached compiled module, compiling if necessary.
func (e *Executor) getCompiled(ctx context.Context, bin []byte) (wazero.CompiledModule, error) {
	sum := blake2b.Sum256(bin)
	id := hex.EncodeToString(sum[:])

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, closedError("executor")
	}
	if compiled, ok := e.compiled[id]; ok {
		e.mu.RUnlock()
		return compiled, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if compiled, ok := e.compiled[id]; ok {
		return compiled, nil
	}

	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "compile")
	}

	e.compiled[id] = compiled
	return compiled, nil
}

// Close releases all resources held by the Executor. Instances loaded from
// it stop working.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	ctx := context.Background()

	var errs []error
	if err := e.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if e.cache != nil {
		if err := e.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func checkEntrySignature(def api.FunctionDefinition) error {
	if len(def.ParamTypes()) != 0 || len(def.ResultTypes()) != 0 {
		return errors.New(errors.PhaseRegistry, errors.KindInvalidEntry).
			Path(def.ExportNames()...).
			Detail("export must take and return nothing, has %s", signatureOf(def)).
			Build()
	}
	return nil
}

func signatureOf(def api.FunctionDefinition) string {
	name := func(ts []api.ValueType) string {
		s := "("
		for i, t := range ts {
			if i > 0 {
				s += ", "
			}
			s += api.ValueTypeName(t)
		}
		return s + ")"
	}
	return name(def.ParamTypes()) + " -> " + name(def.ResultTypes())
}

func closedError(what string) *errors.Error {
	return errors.New(errors.PhaseInvoke, errors.KindClosed).
		Detail("%s is closed", what).
		Build()
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "gorc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "gorc")
	}
	return filepath.Join(os.TempDir(), "gorc-cache")
}
