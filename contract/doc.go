// Package contract is the guest-side SDK for writing contracts in Go.
//
// A contract is a wasip1 reactor exporting "call" and one function per
// entry point:
//
//	//go:wasmexport call
//	func call() {
//	    contract.StoreFunction("hello_name_ext", clvalue.TagString)
//	}
//
//	//go:wasmexport hello_name_ext
//	func helloName() {
//	    name := contract.GetArg[string](0)
//	    contract.Ret("Hello, " + name)
//	}
//
// Build with GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared. On wasm
// the functions call the host's env imports directly. Elsewhere they call a
// [Host] installed with SetHost, which lets the same contract code run as a
// native contract or under test.
//
// The host traps the guest on any boundary error, so none of these functions
// return errors.
package contract
