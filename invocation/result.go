package invocation

import (
	"fmt"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/errors"
)

// Return is the write-once return slot of one invocation.
type Return struct {
	slot Slot
	set  bool
}

// Set encodes v into the slot.
func (r *Return) Set(v clvalue.Value) error {
	return r.SetPayload(v.Tag(), clvalue.Encode(v))
}

// SetPayload accepts an encoded value after decoding it with tag.
func (r *Return) SetPayload(tag clvalue.Tag, payload []byte) error {
	if r.set {
		return errors.New(errors.PhaseReturn, errors.KindAlreadySet).
			Detail("return value already holds %s", r.slot.Tag).
			Build()
	}
	if err := clvalue.Validate(payload, tag); err != nil {
		return err
	}
	r.slot = Slot{Tag: tag, Payload: append([]byte(nil), payload...)}
	r.set = true
	return nil
}

func (r *Return) IsSet() bool { return r.set }

// Result snapshots the slot.
func (r *Return) Result() Result {
	if !r.set {
		return Result{}
	}
	v, err := clvalue.Decode(r.slot.Payload, r.slot.Tag)
	if err != nil {
		// SetPayload validated the bytes.
		panic(err)
	}
	return Result{Value: v, Present: true}
}

// Result is the outcome of an invocation's return channel. Absence means the
// guest returned nothing, which is not a failure.
type Result struct {
	Value   clvalue.Value
	Present bool
}

func Some(v clvalue.Value) Result { return Result{Value: v, Present: true} }

// Expect returns the value if one is present with the given tag.
func (r Result) Expect(tag clvalue.Tag) (clvalue.Value, error) {
	if !r.Present {
		return clvalue.Value{}, errors.New(errors.PhaseReturn, errors.KindMissingValue).
			Detail("expected %s, guest returned nothing", tag).
			Build()
	}
	if r.Value.Tag() != tag {
		return clvalue.Value{}, errors.New(errors.PhaseReturn, errors.KindTagMismatch).
			Value(r.Value.Tag()).
			Detail("expected %s, guest returned %s", tag, r.Value.Tag()).
			Build()
	}
	return r.Value, nil
}

func (r Result) String() string {
	if !r.Present {
		return "<none>"
	}
	return r.Value.String()
}

// ResultAs unwraps a Result into the Go type T.
func ResultAs[T any](r Result) (T, error) {
	var zero T
	tag, ok := clvalue.TagOf[T]()
	if !ok {
		return zero, errors.InvalidInput(errors.PhaseReturn, fmt.Sprintf("no codec for %T", zero))
	}
	v, err := r.Expect(tag)
	if err != nil {
		return zero, err
	}
	return clvalue.As[T](v)
}

// Invocation bundles the two channels of a single call.
type Invocation struct {
	Args   *Args
	Return Return
}

func New(args *Args) *Invocation {
	if args == nil {
		args = NewArgs()
	}
	return &Invocation{Args: args}
}
