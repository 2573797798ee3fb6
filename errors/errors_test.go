package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseArgument,
				Kind:   KindTypeMismatch,
				Path:   []string{"arg[2]"},
				Detail: "slot holds string, requested u32",
			},
			contains: []string{"[argument]", "type_mismatch", "arg[2]", "slot holds string"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindTruncatedInput,
			},
			contains: []string{"[decode]", "truncated_input"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindMissingExport,
				Detail: "call",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "missing_export", "call", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_IsMatchesPhaseAndKind(t *testing.T) {
	err := New(PhaseRegistry, KindDuplicateRegistration).Detail("hello_name_ext").Build()

	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Error("expected match on phase and kind")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("different kind must not match")
	}

	wrapped := fmt.Errorf("load contract: %w", err)
	if !errors.Is(wrapped, ErrDuplicateRegistration) {
		t.Error("expected match through fmt wrapping")
	}
}

func TestError_SamePhaseDifferentSentinels(t *testing.T) {
	decode := &Error{Phase: PhaseDecode, Kind: KindTagMismatch}
	if errors.Is(decode, ErrResultMismatch) {
		t.Error("decode tag mismatch must not match return tag mismatch")
	}
	if !errors.Is(decode, ErrTagMismatch) {
		t.Error("expected decode tag mismatch to match")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseInvoke, KindFaulted, cause, "trap")

	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return cause")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(PhaseInvoke, KindFaulted, nil, "budget exceeded")) {
		t.Error("faulted error must be fatal")
	}
	if IsFatal(OutOfRange(3, 1)) {
		t.Error("argument errors are recoverable")
	}
	if IsFatal(nil) {
		t.Error("nil is not fatal")
	}
}

func TestRevertCode(t *testing.T) {
	err := fmt.Errorf("invoke: %w", Reverted(7))

	code, ok := RevertCode(err)
	if !ok {
		t.Fatal("expected revert code")
	}
	if code != 7 {
		t.Errorf("expected code 7, got %d", code)
	}

	if _, ok := RevertCode(ErrNotFound); ok {
		t.Error("not found is not a revert")
	}
}

func TestClassify(t *testing.T) {
	phase, kind, ok := Classify(fmt.Errorf("wrapped: %w", OutOfRange(1, 1)))
	if !ok {
		t.Fatal("expected classification")
	}
	if phase != PhaseArgument || kind != KindOutOfRange {
		t.Errorf("got %s/%s", phase, kind)
	}

	if _, _, ok := Classify(errors.New("plain")); ok {
		t.Error("plain errors are not classified")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseInvoke, KindOutOfBounds).
		Path("get_arg").
		Value(uint32(70000)).
		Detail("write %d bytes at %d", 12, 70000).
		Build()

	if err.Detail != "write 12 bytes at 70000" {
		t.Errorf("unexpected detail %q", err.Detail)
	}
	if err.Value != uint32(70000) {
		t.Errorf("unexpected value %v", err.Value)
	}
	if !errors.Is(err, ErrOutOfBounds) {
		t.Error("expected out of bounds match")
	}
}
