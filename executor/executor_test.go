package executor_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/caffeineduck/gorc/clvalue"
	gorcerrors "github.com/caffeineduck/gorc/errors"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/hostfunc"
	"github.com/caffeineduck/gorc/internal/wasmtest"
	"github.com/caffeineduck/gorc/invocation"
	"github.com/caffeineduck/gorc/registry"
)

// Shared executor; instances give each test its own registry and memory.
var sharedExec *executor.Executor

func TestMain(m *testing.M) {
	var err error
	sharedExec, err = executor.New()
	if err != nil {
		panic("failed to create shared executor: " + err.Error())
	}

	code := m.Run()

	sharedExec.Close()
	os.Exit(code)
}

func load(t *testing.T, name string, bin []byte) *executor.Instance {
	t.Helper()
	inst, err := sharedExec.Load(context.Background(), executor.WASM(name, bin))
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	t.Cleanup(func() { inst.Close() })
	return inst
}

func TestHelloName(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())

	entries := inst.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
	if entries[0].Key != want {
		t.Errorf("expected key %s, got %s", want, entries[0].Key)
	}

	res, err := inst.Invoke(context.Background(), want, invocation.NewArgs(clvalue.String("World")))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	got, err := invocation.ResultAs[string](res)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello, World" {
		t.Errorf("expected %q, got %q", "Hello, World", got)
	}
}

func TestEntriesDoNotAliasRegistry(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())

	inst.Entries()[0].Shape[0] = clvalue.TagU32
	key := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
	if e, err := inst.Resolve(key); err != nil {
		t.Fatal(err)
	} else {
		e.Shape[0] = clvalue.TagU32
	}

	res, err := inst.Call(context.Background(), "hello_name_ext", clvalue.String("World"))
	if err != nil {
		t.Fatalf("call after mutating returned entries: %v", err)
	}
	if got, _ := invocation.ResultAs[string](res); got != "Hello, World" {
		t.Errorf("expected %q, got %q", "Hello, World", got)
	}
}

func TestHelloNameRepeatable(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())

	for _, name := range []string{"a", "", "Gopher", "世界"} {
		res, err := inst.Call(context.Background(), "hello_name_ext", clvalue.String(name))
		if err != nil {
			t.Fatalf("call(%q) failed: %v", name, err)
		}
		got, _ := invocation.ResultAs[string](res)
		if got != "Hello, "+name {
			t.Errorf("call(%q): got %q", name, got)
		}
	}
}

func TestDeclaredResult(t *testing.T) {
	inst := load(t, "adder", wasmtest.Adder())

	res, err := inst.Call(context.Background(), "add", clvalue.U32(40), clvalue.U32(2))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	n, err := invocation.ResultAs[uint32](res)
	if err != nil || n != 42 {
		t.Errorf("expected 42, got %d (%v)", n, err)
	}

	entry := inst.Entries()[0]
	if entry.Signature() != "add(u32, u32) -> u32" {
		t.Errorf("signature %q", entry.Signature())
	}
}

func TestExpectResult(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())
	key := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
	args := invocation.NewArgs(clvalue.String("x"))

	if _, err := inst.Invoke(context.Background(), key, args, executor.ExpectResult(clvalue.TagString)); err != nil {
		t.Errorf("matching expectation failed: %v", err)
	}
	_, err := inst.Invoke(context.Background(), key, args, executor.ExpectResult(clvalue.TagU64))
	if !errors.Is(err, gorcerrors.ErrResultMismatch) {
		t.Errorf("expected return tag_mismatch, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		bin  []byte
		want error
	}{
		{"duplicate store", wasmtest.DuplicateStore(), gorcerrors.ErrDuplicateRegistration},
		{"no call export", wasmtest.WithoutCall(), gorcerrors.ErrMissingExport},
		{"unknown import", wasmtest.UnknownImport(), gorcerrors.ErrInvalidImport},
		{"unknown shape tag", wasmtest.BadShape(), gorcerrors.ErrInvalidEncoding},
		{"entry takes a parameter", wasmtest.BadSignature(), gorcerrors.ErrInvalidEntry},
		{"entry not exported", wasmtest.MissingEntry(), gorcerrors.ErrInvalidEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := sharedExec.Load(context.Background(), executor.WASM(tt.name, tt.bin))
			if err == nil {
				inst.Close()
				t.Fatal("expected load to fail")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadTrapInCall(t *testing.T) {
	_, err := sharedExec.Load(context.Background(), executor.WASM("trap", wasmtest.TrapInCall()))
	phase, kind, ok := gorcerrors.Classify(err)
	if !ok || phase != gorcerrors.PhaseLoad || kind != gorcerrors.KindFaulted {
		t.Errorf("expected load/faulted, got %v", err)
	}
}

func TestLoadGarbage(t *testing.T) {
	_, err := sharedExec.Load(context.Background(), executor.WASM("garbage", []byte("not wasm")))
	if _, kind, ok := gorcerrors.Classify(err); !ok || kind != gorcerrors.KindInvalidInput {
		t.Errorf("expected invalid_input, got %v", err)
	}
}

func TestReinitRejected(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())
	if err := inst.Init(context.Background()); !errors.Is(err, gorcerrors.ErrSealedRegistry) {
		t.Errorf("expected sealed_registry, got %v", err)
	}
	if len(inst.Entries()) != 1 {
		t.Error("failed re-init must not touch the registry")
	}
}

func TestRecoverableErrors(t *testing.T) {
	inst := load(t, "misbehaving", wasmtest.Misbehaving())

	tests := []struct {
		export string
		args   []clvalue.Value
		want   error
	}{
		{"twice", nil, gorcerrors.ErrAlreadySet},
		{"peek", nil, gorcerrors.ErrOutOfRange},
		{"fail", nil, gorcerrors.ErrReverted},
		{"late", nil, gorcerrors.ErrSealedRegistry},
		{"wild", nil, gorcerrors.ErrOutOfBounds},
		{"short", nil, gorcerrors.ErrTruncatedInput},
		{"liar", nil, gorcerrors.ErrResultMismatch},
		{"confused", []clvalue.Value{clvalue.String("x")}, gorcerrors.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.export, func(t *testing.T) {
			_, err := inst.Call(context.Background(), tt.export, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if gorcerrors.IsFatal(err) {
				t.Error("recorded errors must not be fatal")
			}

			res, err := inst.Call(context.Background(), "noop")
			if err != nil {
				t.Fatalf("instance unusable after %s: %v", tt.export, err)
			}
			if res.Present {
				t.Error("noop must return nothing")
			}
		})
	}
}

func TestRevertCode(t *testing.T) {
	inst := load(t, "misbehaving", wasmtest.Misbehaving())
	_, err := inst.Call(context.Background(), "fail")
	code, ok := gorcerrors.RevertCode(err)
	if !ok || code != 7 {
		t.Errorf("expected revert code 7, got %d (%v)", code, err)
	}
}

func TestMissingValue(t *testing.T) {
	inst := load(t, "misbehaving", wasmtest.Misbehaving())
	key := registry.DeriveKey("noop", nil)
	_, err := inst.Invoke(context.Background(), key, nil, executor.ExpectResult(clvalue.TagString))
	if !errors.Is(err, gorcerrors.ErrMissingValue) {
		t.Errorf("expected missing_value, got %v", err)
	}
}

func TestResolveErrors(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())

	if _, err := inst.Call(context.Background(), "hello_name_ext", clvalue.U32(1)); !errors.Is(err, gorcerrors.ErrNotFound) {
		t.Errorf("unregistered shape: expected not_found, got %v", err)
	}

	key := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
	_, err := inst.Invoke(context.Background(), key, invocation.NewArgs(clvalue.U32(1)))
	if !errors.Is(err, gorcerrors.ErrTypeMismatch) {
		t.Errorf("wrong argument tags: expected type_mismatch, got %v", err)
	}
}

func TestTrapIsFatal(t *testing.T) {
	inst := load(t, "misbehaving", wasmtest.Misbehaving())

	_, err := inst.Call(context.Background(), "boom")
	if !gorcerrors.IsFatal(err) {
		t.Fatalf("expected fatal fault, got %v", err)
	}
	if inst.Fault() == nil {
		t.Error("Fault() must report the trap")
	}
	if _, err := inst.Call(context.Background(), "noop"); !errors.Is(err, gorcerrors.ErrClosed) {
		t.Errorf("faulted instance must refuse calls, got %v", err)
	}
}

func TestTimeoutIsFatal(t *testing.T) {
	inst := load(t, "misbehaving", wasmtest.Misbehaving())

	key := registry.DeriveKey("spin", nil)
	start := time.Now()
	_, err := inst.Invoke(context.Background(), key, nil, executor.WithTimeout(50*time.Millisecond))
	if !gorcerrors.IsFatal(err) {
		t.Fatalf("expected fatal fault, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout not enforced")
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	bad := load(t, "misbehaving", wasmtest.Misbehaving())
	good := load(t, "hello_name", wasmtest.HelloName())

	_, _ = bad.Call(context.Background(), "boom")
	if _, err := good.Call(context.Background(), "hello_name_ext", clvalue.String("still here")); err != nil {
		t.Errorf("fault leaked across instances: %v", err)
	}
}

func TestConcurrentInvocations(t *testing.T) {
	inst := load(t, "hello_name", wasmtest.HelloName())

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := inst.Call(context.Background(), "hello_name_ext", clvalue.String("x"))
			if err != nil {
				errs <- err
				return
			}
			if s, _ := invocation.ResultAs[string](res); s != "Hello, x" {
				errs <- errors.New("wrong result " + s)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCloseInstance(t *testing.T) {
	inst, err := sharedExec.Load(context.Background(), executor.WASM("hello_name", wasmtest.HelloName()))
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Close(); err != nil {
		t.Fatal(err)
	}
	if err := inst.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := inst.Call(context.Background(), "hello_name_ext", clvalue.String("x")); !errors.Is(err, gorcerrors.ErrClosed) {
		t.Errorf("expected closed, got %v", err)
	}
}

func TestClosedExecutor(t *testing.T) {
	exec, err := executor.New()
	if err != nil {
		t.Fatal(err)
	}
	exec.Close()
	if _, err := exec.Load(context.Background(), executor.WASM("x", wasmtest.HelloName())); !errors.Is(err, gorcerrors.ErrClosed) {
		t.Errorf("expected closed, got %v", err)
	}
}

func nativeHello() executor.Native {
	return executor.Native{
		Name: "native_hello",
		Call: func(ctx context.Context, f *hostfunc.Frame) error {
			_, err := f.StoreFunction("hello_name_ext", registry.Shape{clvalue.TagString})
			return err
		},
		Exports: map[string]executor.NativeFunc{
			"hello_name_ext": func(ctx context.Context, f *hostfunc.Frame) error {
				name, err := invocation.GetArg[string](f.Invocation().Args, 0)
				if err != nil {
					return f.Fail(err)
				}
				return f.Ret(clvalue.TagString, clvalue.StringCodec.Encode("Hello, "+name))
			},
			"oops": func(ctx context.Context, f *hostfunc.Frame) error {
				return errors.New("unrecorded failure")
			},
		},
	}
}

func TestNativeContract(t *testing.T) {
	inst, err := sharedExec.LoadNative(context.Background(), nativeHello())
	if err != nil {
		t.Fatalf("LoadNative failed: %v", err)
	}
	defer inst.Close()

	wasmKey := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
	if inst.Entries()[0].Key != wasmKey {
		t.Error("native and wasm contracts must derive the same key")
	}
	res, err := inst.Call(context.Background(), "hello_name_ext", clvalue.String("Go"))
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := invocation.ResultAs[string](res); s != "Hello, Go" {
		t.Errorf("got %q", s)
	}
}

func TestNativeLoadErrors(t *testing.T) {
	if _, err := sharedExec.LoadNative(context.Background(), executor.Native{Name: "empty"}); !errors.Is(err, gorcerrors.ErrMissingExport) {
		t.Errorf("expected missing_export, got %v", err)
	}

	n := nativeHello()
	n.Call = func(ctx context.Context, f *hostfunc.Frame) error {
		_, err := f.StoreFunction("oops", nil)
		if err != nil {
			return err
		}
		_, err = f.StoreFunction("oops", nil)
		return err
	}
	if _, err := sharedExec.LoadNative(context.Background(), n); !errors.Is(err, gorcerrors.ErrDuplicateRegistration) {
		t.Errorf("expected duplicate_registration, got %v", err)
	}
}

func TestNativeUnrecordedErrorIsFatal(t *testing.T) {
	n := nativeHello()
	n.Call = func(ctx context.Context, f *hostfunc.Frame) error {
		_, err := f.StoreFunction("oops", nil)
		return err
	}
	inst, err := sharedExec.LoadNative(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close()

	if _, err := inst.Call(context.Background(), "oops"); !gorcerrors.IsFatal(err) {
		t.Errorf("expected fatal fault, got %v", err)
	}
}
