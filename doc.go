// Package gorc runs sandboxed WebAssembly contracts.
//
// # Overview
//
// A contract is a WASM module that exports call() and one or more entry
// points. While call() runs, the contract registers its entry points with
// store_function; the host then seals the registry and addresses each entry
// point by a key derived from its name and argument tags. Values cross the
// boundary in a small tagged binary encoding.
//
// # Basic Usage
//
//	exec, _ := executor.New()
//	defer exec.Close()
//
//	inst, _ := exec.Load(ctx, executor.WASM("hello", bin))
//	defer inst.Close()
//
//	res, _ := inst.Call(ctx, "hello_name_ext", clvalue.String("World"))
//	fmt.Println(res) // string:Hello, World
//
// # Writing Contracts
//
// Contracts written in Go use the [contract] package and build with
// GOOS=wasip1 GOARCH=wasm -buildmode=c-shared. See examples/hello_name.
//
// See the [clvalue], [registry], [invocation], [hostfunc] and [executor]
// packages for detailed API documentation.
package gorc
