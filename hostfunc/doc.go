// Package hostfunc implements the boundary primitives a contract calls into
// and the wazero host module that exports them.
//
// # Overview
//
// A contract has no access to the host beyond the functions of the "env"
// module. Each primitive operates on a [Frame], the per-call state the host
// prepares before entering the guest: the argument and return channels of an
// invocation, or the registry while the contract initializes. Frames travel
// in the context passed to the guest call:
//
//	frame := hostfunc.NewInvokeFrame(invocation.New(args), logger)
//	_, err := fn.Call(hostfunc.WithFrame(ctx, frame))
//	if ferr := frame.Err(); ferr != nil {
//	    err = ferr
//	}
//
// # Primitives
//
//	get_arg_size(index, tag) -> size
//	get_arg(index, tag, ptr, len)
//	ret(tag, ptr, len)
//	store_function(name_ptr, name_len, shape_ptr, shape_len, key_ptr)
//	store_function_returning(name_ptr, name_len, shape_ptr, shape_len, result_tag, key_ptr)
//	revert(code)
//
// All parameters are i32. A primitive that fails records the error on the
// frame and traps the guest; the first recorded error is the outcome of the
// call regardless of what the guest does after it.
//
// # Security Model
//
//   - Guest memory is only read or written within its bounds
//   - Every payload is decoded with its tag before the host accepts it
//   - Registration is possible only while the contract initializes
//   - Modules importing anything outside [Funcs] are rejected at load
package hostfunc
