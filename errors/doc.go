// Package errors provides the structured error taxonomy shared by the codec,
// the argument and return channels, the function registry and the executor.
//
// Errors are categorized by Phase (where the error occurred) and Kind (what
// went wrong). Is compares Phase and Kind only, so the exported sentinels can
// be matched with the standard errors.Is regardless of detail or cause:
//
//	if errors.Is(err, gorcerrors.ErrOutOfRange) {
//		// get_arg index past the last slot
//	}
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseArgument, errors.KindTypeMismatch).
//		Path("arg[0]").
//		Detail("slot holds %s, requested %s", stored, requested).
//		Build()
//
// Every error in this taxonomy is local to one invocation and recoverable by
// the caller, except those reported by IsFatal, which leave the module
// instance unusable.
package errors
