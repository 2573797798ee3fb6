package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // bytes to value
	PhaseArgument Phase = "argument" // get_arg
	PhaseReturn   Phase = "return"   // ret
	PhaseRegistry Phase = "registry" // store_function and resolve
	PhaseLoad     Phase = "load"     // compile, link, initialize
	PhaseInvoke   Phase = "invoke"   // dispatch into an entry point
	PhaseHost     Phase = "host"     // host configuration
)

// Kind categorizes the error
type Kind string

const (
	KindTruncatedInput        Kind = "truncated_input"
	KindTagMismatch           Kind = "tag_mismatch"
	KindInvalidEncoding       Kind = "invalid_encoding"
	KindOutOfRange            Kind = "out_of_range"
	KindTypeMismatch          Kind = "type_mismatch"
	KindAlreadySet            Kind = "already_set"
	KindMissingValue          Kind = "missing_value"
	KindDuplicateRegistration Kind = "duplicate_registration"
	KindNotFound              Kind = "not_found"
	KindSealedRegistry        Kind = "sealed_registry"
	KindNotSealed             Kind = "not_sealed"
	KindInvalidEntry          Kind = "invalid_entry"
	KindMissingExport         Kind = "missing_export"
	KindInvalidImport         Kind = "invalid_import"
	KindReverted              Kind = "reverted"
	KindOutOfBounds           Kind = "out_of_bounds"
	KindFaulted               Kind = "faulted"
	KindClosed                Kind = "closed"
	KindInvalidInput          Kind = "invalid_input"
)

// Error is the structured error type used throughout gorc
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is matching.
var (
	ErrTruncatedInput  = &Error{Phase: PhaseDecode, Kind: KindTruncatedInput}
	ErrTagMismatch     = &Error{Phase: PhaseDecode, Kind: KindTagMismatch}
	ErrInvalidEncoding = &Error{Phase: PhaseDecode, Kind: KindInvalidEncoding}

	ErrOutOfRange   = &Error{Phase: PhaseArgument, Kind: KindOutOfRange}
	ErrTypeMismatch = &Error{Phase: PhaseArgument, Kind: KindTypeMismatch}

	ErrAlreadySet     = &Error{Phase: PhaseReturn, Kind: KindAlreadySet}
	ErrMissingValue   = &Error{Phase: PhaseReturn, Kind: KindMissingValue}
	ErrResultMismatch = &Error{Phase: PhaseReturn, Kind: KindTagMismatch}

	ErrDuplicateRegistration = &Error{Phase: PhaseRegistry, Kind: KindDuplicateRegistration}
	ErrNotFound              = &Error{Phase: PhaseRegistry, Kind: KindNotFound}
	ErrSealedRegistry        = &Error{Phase: PhaseRegistry, Kind: KindSealedRegistry}
	ErrNotSealed             = &Error{Phase: PhaseRegistry, Kind: KindNotSealed}
	ErrInvalidEntry          = &Error{Phase: PhaseRegistry, Kind: KindInvalidEntry}

	ErrMissingExport = &Error{Phase: PhaseLoad, Kind: KindMissingExport}
	ErrInvalidImport = &Error{Phase: PhaseLoad, Kind: KindInvalidImport}

	ErrReverted    = &Error{Phase: PhaseInvoke, Kind: KindReverted}
	ErrOutOfBounds = &Error{Phase: PhaseInvoke, Kind: KindOutOfBounds}
	ErrFaulted     = &Error{Phase: PhaseInvoke, Kind: KindFaulted}
	ErrClosed      = &Error{Phase: PhaseInvoke, Kind: KindClosed}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Truncated creates a truncated input error
func Truncated(what string, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncatedInput,
		Detail: fmt.Sprintf("%s needs %d bytes, have %d", what, need, have),
	}
}

// InvalidEncoding creates an invalid encoding error
func InvalidEncoding(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidEncoding,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// OutOfRange creates an argument index error
func OutOfRange(index, count int) *Error {
	return &Error{
		Phase:  PhaseArgument,
		Kind:   KindOutOfRange,
		Path:   []string{fmt.Sprintf("arg[%d]", index)},
		Detail: fmt.Sprintf("index %d, %d slots", index, count),
		Value:  index,
	}
}

// Reverted creates an error for a guest-initiated revert with a user code
func Reverted(code uint32) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindReverted,
		Detail: fmt.Sprintf("user error %d", code),
		Value:  code,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsFatal reports whether err leaves the module instance unusable.
func IsFatal(err error) bool {
	return stderrors.Is(err, ErrFaulted)
}

// RevertCode extracts the user code of a reverted invocation.
func RevertCode(err error) (uint32, bool) {
	var e *Error
	if !stderrors.As(err, &e) || e.Kind != KindReverted {
		return 0, false
	}
	code, ok := e.Value.(uint32)
	return code, ok
}

// Classify returns the phase and kind of the first *Error in err's chain.
func Classify(err error) (Phase, Kind, bool) {
	var e *Error
	if !stderrors.As(err, &e) {
		return "", "", false
	}
	return e.Phase, e.Kind, true
}
