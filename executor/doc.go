// Package executor loads contracts into sandboxed instances and dispatches
// invocations to the functions they register.
//
// # Overview
//
// An [Executor] owns a wazero runtime with the contract host module linked
// and caches compiled modules by content. Loading a contract instantiates it,
// runs its "call" export once with the registry open, then seals the
// registry. From then on the instance only dispatches.
//
// # Basic Usage
//
//	exec, err := executor.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	inst, err := exec.Load(ctx, executor.WASM("hello_name", bin))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close()
//
//	res, err := inst.Call(ctx, "hello_name_ext", clvalue.String("World"))
//	fmt.Println(res.Value) // string:Hello, World
//
// # Dispatch by key
//
// Keys are derived from (name, shape) and can be computed before loading:
//
//	key := registry.DeriveKey("hello_name_ext", registry.Shape{clvalue.TagString})
//	res, err := inst.Invoke(ctx, key, invocation.NewArgs(clvalue.String("World")),
//	    executor.WithTimeout(time.Second),
//	    executor.ExpectResult(clvalue.TagString),
//	)
//
// # Faults
//
// Errors raised by the boundary primitives fail only the invocation. A trap
// they did not cause, or an expired timeout, closes the instance; check with
// errors.IsFatal and load a fresh instance.
//
// # Native contracts
//
// [Native] contracts run Go functions against the same registry and channel
// semantics, which is useful for hosts embedding system contracts and for
// tests.
package executor
